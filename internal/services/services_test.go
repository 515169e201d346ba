package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/plank-dev/plank/db"
	"github.com/plank-dev/plank/internal/config"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]string, 0, len(r.events))
	for _, e := range r.events {
		result = append(result, e.Type)
	}
	return result
}

// openTestDB returns a migrated in-memory sqlite database private to t.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := db.ConnectDatabase(config.DBConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })

	require.NoError(t, db.MigrateDatabase(gdb))

	return gdb
}

func newTestServices(t *testing.T) (*Services, *gorm.DB, *recorder) {
	t.Helper()

	gdb := openTestDB(t)
	rec := &recorder{}

	return New(gdb, Options{Events: rec}), gdb, rec
}

func mustUser(t *testing.T, svc *Services, name, email string) *models.User {
	t.Helper()

	user, err := svc.Users.Register(context.Background(), name, email, "")
	require.NoError(t, err)

	return user
}

func mustWorkspace(t *testing.T, svc *Services, ownerID, name string) *models.Workspace {
	t.Helper()

	workspace, err := svc.Workspaces.Create(context.Background(), ownerID, CreateWorkspaceInput{Name: name})
	require.NoError(t, err)

	return workspace
}

func mustProject(t *testing.T, svc *Services, userID, workspaceID, name string) *models.Project {
	t.Helper()

	project, err := svc.Projects.Create(context.Background(), userID, CreateProjectInput{WorkspaceID: workspaceID, Name: name})
	require.NoError(t, err)

	return project
}

func mustTask(t *testing.T, svc *Services, userID, projectID, title string) *models.Task {
	t.Helper()

	task, err := svc.Tasks.Create(context.Background(), userID, CreateTaskInput{ProjectID: projectID, Title: title})
	require.NoError(t, err)

	return task
}

// onInsert runs fn inside the inserting transaction just before each row of
// type T is written.
func onInsert[T any](t *testing.T, gdb *gorm.DB, fn func(tx *gorm.DB, row *T)) {
	t.Helper()

	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:on_insert:"+t.Name(), func(tx *gorm.DB) {
		if row, ok := tx.Statement.Dest.(*T); ok {
			fn(tx, row)
		}
	}))
}

// execInTx runs a raw statement on the transaction tx belongs to, the way a
// competing request's committed write would look to it.
func execInTx(tx *gorm.DB, query string, args ...interface{}) {
	if err := tx.Session(&gorm.Session{NewDB: true}).Exec(query, args...).Error; err != nil {
		tx.AddError(err)
	}
}

func TestUnionByID(t *testing.T) {
	id := func(s string) string { return s }

	assert.Equal(t, []string{"a", "b", "c"}, unionByID(id, []string{"a", "b"}, []string{"b", "c", "a"}))
	assert.Empty(t, unionByID(id))
}

func TestNormalizeEmail(t *testing.T) {
	svc, _, _ := newTestServices(t)
	b := svc.Users.base

	email, err := b.normalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = b.normalizeEmail("   ")
	assert.ErrorContains(t, err, "Email is required")

	_, err = b.normalizeEmail("not-an-email")
	assert.ErrorContains(t, err, "Email must be valid")
}
