package services

import (
	"context"
	"testing"

	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginCreatesPlaceholderUser(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	user, err := svc.Users.Login(ctx, " Demo@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", user.Email)
	assert.Equal(t, "demo", user.Name)

	again, err := svc.Users.Login(ctx, "demo@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestLoginChecksPassword(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	registered, err := svc.Users.Register(ctx, "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.PasswordHash)
	assert.NotEqual(t, "s3cret", registered.PasswordHash)

	user, err := svc.Users.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Users.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	mustUser(t, svc, "Alice", "alice@example.com")

	_, err := svc.Users.Register(ctx, "Other", "ALICE@example.com", "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Users.Register(ctx, "", "new@example.com", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	user := mustUser(t, svc, "Alice", "alice@example.com")

	name := "Alice Liddell"
	updated, err := svc.Users.Update(ctx, user.ID, UpdateUserInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = svc.Users.Update(ctx, user.ID, UpdateUserInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	withAvatar, err := svc.Users.SetAvatar(ctx, user.ID, "http://cdn/avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/avatars/a.png", withAvatar.Image)

	_, err = svc.Users.Update(ctx, "missing", UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteUserLeavesDanglingReferences(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := mustUser(t, svc, "Owner", "owner@example.com")
	author := mustUser(t, svc, "Author", "author@example.com")
	ws := mustWorkspace(t, svc, owner.ID, "Acme")
	project := mustProject(t, svc, owner.ID, ws.ID, "Launch")
	task := mustTask(t, svc, owner.ID, project.ID, "Ship")

	comment, err := svc.Comments.Create(ctx, task.ID, author.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, svc.Users.Delete(ctx, author.ID))

	_, err = svc.Users.FindByID(ctx, author.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	comments, err := svc.Comments.FindByTaskID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
	assert.Equal(t, author.ID, comments[0].UserID)
	assert.Nil(t, comments[0].User)

	assert.ErrorIs(t, svc.Users.Delete(ctx, author.ID), apperrors.ErrNotFound)
}

func TestFindUserByEmailNotFound(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Users.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
