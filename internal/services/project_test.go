package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func projectMemberIDs(t *testing.T, gdb *gorm.DB, projectID string) []string {
	t.Helper()

	var ids []string
	require.NoError(t, gdb.Model(&models.ProjectMember{}).Where("project_id = ?", projectID).Pluck("user_id", &ids).Error)

	return ids
}

func TestCreateProjectDefaults(t *testing.T) {
	svc, gdb, rec := newTestServices(t)

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")

	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")

	assert.Equal(t, owner.ID, project.TeamLead)
	assert.Equal(t, types.ProjectPlanning, project.Status)
	assert.Equal(t, types.PriorityMedium, project.Priority)
	assert.Zero(t, project.Progress)
	assert.Equal(t, []string{owner.ID}, projectMemberIDs(t, gdb, project.ID))
	assert.Contains(t, rec.types(), events.ProjectChanged)
}

func TestCreateProjectLeadEnrolledOnce(t *testing.T) {
	svc, gdb, _ := newTestServices(t)
	ctx := context.Background()

	u1 := mustUser(t, svc, "U1", "u1@example.com")
	u2 := mustUser(t, svc, "U2", "u2@example.com")
	ws := mustWorkspace(t, svc, u1.ID, "Acme")

	project, err := svc.Projects.Create(ctx, u1.ID, CreateProjectInput{
		WorkspaceID: ws.ID,
		Name:        "Launch",
		TeamMembers: []string{u1.ID, u2.ID, u2.ID, "unknown-user"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{u1.ID, u2.ID}, projectMemberIDs(t, gdb, project.ID))
}

func TestCreateProjectExplicitLead(t *testing.T) {
	svc, gdb, _ := newTestServices(t)
	ctx := context.Background()

	u1 := mustUser(t, svc, "U1", "u1@example.com")
	u2 := mustUser(t, svc, "U2", "u2@example.com")
	ws := mustWorkspace(t, svc, u1.ID, "Acme")

	progress := 40
	project, err := svc.Projects.Create(ctx, u1.ID, CreateProjectInput{
		WorkspaceID: ws.ID,
		Name:        "Launch",
		TeamLead:    u2.ID,
		Status:      types.ProjectActive,
		Priority:    types.PriorityHigh,
		Progress:    &progress,
	})
	require.NoError(t, err)

	assert.Equal(t, u2.ID, project.TeamLead)
	assert.Equal(t, 40, project.Progress)
	assert.Equal(t, []string{u2.ID}, projectMemberIDs(t, gdb, project.ID))
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")

	_, err := svc.Projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: "missing", Name: "Launch"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: ws.ID, Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: ws.ID, Name: "Launch", Status: "DONE"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	progress := 101
	_, err = svc.Projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: ws.ID, Name: "Launch", Progress: &progress})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateProjectRollsBackOnMemberFailure(t *testing.T) {
	svc, gdb, rec := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")

	boom := errors.New("member insert failed")
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:fail_project_members", func(tx *gorm.DB) {
		if tx.Statement.Table == "project_members" {
			tx.AddError(boom)
		}
	}))

	_, err := svc.Projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: ws.ID, Name: "Doomed"})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, gdb.Model(&models.Project{}).Where("name = ?", "Doomed").Count(&count).Error)
	assert.Zero(t, count)
	assert.NotContains(t, rec.types(), events.ProjectChanged)
}

func TestFindProjectsByUser(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	alice := mustUser(t, svc, "Alice", "alice@example.com")
	bob := mustUser(t, svc, "Bob", "bob@example.com")
	ws := mustWorkspace(t, svc, alice.ID, "Acme")

	led := mustProject(t, svc, alice.ID, ws.ID, "Led")
	joined := mustProject(t, svc, bob.ID, ws.ID, "Joined")
	mustProject(t, svc, bob.ID, ws.ID, "Hidden")

	_, err := svc.Projects.AddMember(ctx, joined.ID, alice.Email)
	require.NoError(t, err)

	visible, err := svc.Projects.FindByUserID(ctx, alice.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(visible))
	for _, p := range visible {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{led.ID, joined.ID}, ids)

	inWorkspace, err := svc.Projects.FindByWorkspaceID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, inWorkspace, 3)
}

func TestAddProjectMember(t *testing.T) {
	svc, gdb, _ := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	dev := mustUser(t, svc, "Dev", "dev@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")
	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")

	member, err := svc.Projects.AddMember(ctx, project.ID, "Dev@Example.com")
	require.NoError(t, err)
	assert.Equal(t, dev.ID, member.UserID)

	_, err = svc.Projects.AddMember(ctx, project.ID, dev.Email)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Projects.AddMember(ctx, "missing", dev.Email)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// No placeholder user for project invitations.
	_, err = svc.Projects.AddMember(ctx, project.ID, "stranger@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var count int64
	require.NoError(t, gdb.Model(&models.User{}).Where("email = ?", "stranger@example.com").Count(&count).Error)
	assert.Zero(t, count)

	members, err := svc.Projects.ListMembers(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestUpdateProject(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")
	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")

	status := types.ProjectCompleted
	progress := 100
	updated, err := svc.Projects.Update(ctx, project.ID, UpdateProjectInput{Status: &status, Progress: &progress})
	require.NoError(t, err)

	assert.Equal(t, types.ProjectCompleted, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, "Launch", updated.Name)
	assert.Equal(t, owner.ID, updated.TeamLead)

	bad := -1
	_, err = svc.Projects.Update(ctx, project.ID, UpdateProjectInput{Progress: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Projects.Update(ctx, "missing", UpdateProjectInput{Status: &status})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	svc, gdb, rec := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")
	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")
	task := mustTask(t, svc, owner.ID, project.ID, "Ship")
	_, err := svc.Comments.Create(ctx, task.ID, owner.ID, "done soon")
	require.NoError(t, err)

	require.NoError(t, svc.Projects.Delete(ctx, project.ID))
	assert.Contains(t, rec.types(), events.ProjectDeleted)

	_, err = svc.Tasks.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	comments, err := svc.Comments.FindByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, projectMemberIDs(t, gdb, project.ID))

	_, err = svc.Workspaces.FindByID(ctx, ws.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Projects.Delete(ctx, project.ID), apperrors.ErrNotFound)
}

func TestAddProjectMemberTranslatesRacingInsert(t *testing.T) {
	svc, gdb, _ := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	dev := mustUser(t, svc, "Dev", "dev@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")
	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")

	raced := 0
	onInsert(t, gdb, func(tx *gorm.DB, member *models.ProjectMember) {
		if raced > 0 {
			return
		}
		raced++

		now := time.Now()
		execInTx(tx, "INSERT INTO project_members (id, user_id, project_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), member.UserID, member.ProjectID, now, now)
	})

	_, err := svc.Projects.AddMember(ctx, project.ID, dev.Email)
	require.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "User is already a member of this project", err.Error())
	assert.Equal(t, 1, raced)
	assert.NotContains(t, projectMemberIDs(t, gdb, project.ID), dev.ID)

	_, err = svc.Projects.AddMember(ctx, project.ID, dev.Email)
	require.NoError(t, err)

	_, err = svc.Projects.AddMember(ctx, project.ID, dev.Email)
	require.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ElementsMatch(t, []string{owner.ID, dev.ID}, projectMemberIDs(t, gdb, project.ID))
}
