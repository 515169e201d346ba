package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"gorm.io/gorm"
)

type Options struct {
	Events   events.Publisher
	Notifier *Notifier
}

type Services struct {
	Users      *UserService
	Workspaces *WorkspaceService
	Projects   *ProjectService
	Tasks      *TaskService
	Comments   *CommentService
}

func New(gdb *gorm.DB, opts Options) *Services {
	b := &base{
		db:       gdb,
		events:   opts.Events,
		notifier: opts.Notifier,
		validate: validator.New(),
	}

	if b.events == nil {
		b.events = events.Nop{}
	}

	projects := &ProjectService{base: b}

	return &Services{
		Users:      &UserService{base: b},
		Workspaces: &WorkspaceService{base: b},
		Projects:   projects,
		Tasks:      &TaskService{base: b, projects: projects},
		Comments:   &CommentService{base: b},
	}
}

// base holds what every service shares.
type base struct {
	db       *gorm.DB
	events   events.Publisher
	notifier *Notifier
	validate *validator.Validate
}

func (b *base) publish(ctx context.Context, eventType, workspaceID, entityID string) {
	b.events.Publish(ctx, events.Event{
		Type:        eventType,
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		At:          time.Now().UTC(),
	})
}

func (b *base) notifyInvitation(ctx context.Context, invitation Invitation) {
	if err := b.notifier.SendInvitation(ctx, invitation); err != nil {
		slog.WarnContext(ctx, "invitation notification failed",
			"workspace_id", invitation.Workspace.ID, "user_id", invitation.User.ID, "error", err)
	}
}

// normalizeEmail lower-cases and trims email, then rejects it when empty or
// malformed.
func (b *base) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return "", apperrors.Validation("Email is required")
	}

	if err := b.validate.Var(email, "email"); err != nil {
		return "", apperrors.Validation("Email must be valid")
	}

	return email, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// unionByID concatenates lists and keeps the first occurrence of each id.
func unionByID[T any](id func(T) string, lists ...[]T) []T {
	seen := make(map[string]bool)
	result := make([]T, 0)

	for _, list := range lists {
		for _, item := range list {
			key := id(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

func requireText(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Validation("%s is required", field)
	}
	return value, nil
}
