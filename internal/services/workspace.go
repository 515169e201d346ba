package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/plank-dev/plank/db"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WorkspaceService struct {
	*base
}

type CreateWorkspaceInput struct {
	Name        string
	Description string
	ImageURL    string
	Settings    map[string]interface{}
}

type UpdateWorkspaceInput struct {
	Name        *string
	Description *string
	ImageURL    *string
	Settings    map[string]interface{}
}

type InviteMemberInput struct {
	Email   string
	Role    types.WorkspaceRole
	Message string
}

type WorkspaceMemberDetail struct {
	models.WorkspaceMember
	User *models.User `json:"user"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

const fallbackSlug = "workspace"

// slugAttempts bounds how often Create retries the slug search after a
// concurrent insert took the slug it picked.
const slugAttempts = 3

var errSlugTaken = errors.New("slug taken")

// Slugify lower-cases name, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// uniqueSlug tries base, base-1, base-2, ... until a free slug is found.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	slug := base

	for n := 1; ; n++ {
		var count int64

		if err := tx.Model(&models.Workspace{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}

		if count == 0 {
			return slug, nil
		}

		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *WorkspaceService) FindAll(ctx context.Context) ([]models.Workspace, error) {
	var workspaces []models.Workspace

	if err := s.db.WithContext(ctx).Order("created_at").Find(&workspaces).Error; err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	return workspaces, nil
}

func (s *WorkspaceService) FindByID(ctx context.Context, id string) (*models.Workspace, error) {
	return findWorkspace(s.db.WithContext(ctx), id)
}

func findWorkspace(tx *gorm.DB, id string) (*models.Workspace, error) {
	var workspace models.Workspace

	if err := tx.Where("id = ?", id).First(&workspace).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("Workspace not found")
		}
		return nil, fmt.Errorf("fetching workspace %s: %w", id, err)
	}

	return &workspace, nil
}

// FindByUserID returns the workspaces userID owns or is a member of, each
// once. Owned workspaces come first, but callers should not rely on order.
func (s *WorkspaceService) FindByUserID(ctx context.Context, userID string) ([]models.Workspace, error) {
	tx := s.db.WithContext(ctx)

	var owned []models.Workspace

	if err := tx.Where("owner_id = ?", userID).Order("created_at").Find(&owned).Error; err != nil {
		return nil, fmt.Errorf("listing owned workspaces: %w", err)
	}

	var memberOf []models.Workspace

	memberships := tx.Model(&models.WorkspaceMember{}).Select("workspace_id").Where("user_id = ?", userID)

	if err := tx.Where("id IN (?)", memberships).Order("created_at").Find(&memberOf).Error; err != nil {
		return nil, fmt.Errorf("listing member workspaces: %w", err)
	}

	return unionByID(func(w models.Workspace) string { return w.ID }, owned, memberOf), nil
}

// HasAccess reports whether userID owns the workspace or holds a membership
// row in it, the same rule FindByUserID applies.
func (s *WorkspaceService) HasAccess(ctx context.Context, workspaceID, userID string) (bool, error) {
	tx := s.db.WithContext(ctx)

	workspace, err := findWorkspace(tx, workspaceID)
	if err != nil {
		return false, err
	}

	if workspace.OwnerID == userID {
		return true, nil
	}

	var count int64

	if err := tx.Model(&models.WorkspaceMember{}).Where("user_id = ? AND workspace_id = ?", userID, workspaceID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}

	return count > 0, nil
}

// Create stores the workspace under a unique slug and records the owner as an
// ADMIN member in the same transaction. Losing a race for the slug restarts
// the slug search in a fresh transaction.
func (s *WorkspaceService) Create(ctx context.Context, ownerID string, input CreateWorkspaceInput) (*models.Workspace, error) {
	name, err := requireText(input.Name, "Name")
	if err != nil {
		return nil, err
	}

	settings := datatypes.JSONMap(input.Settings)
	if settings == nil {
		settings = datatypes.JSONMap{}
	}

	workspace := models.Workspace{
		Name:        name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Settings:    settings,
		OwnerID:     ownerID,
	}

	base := Slugify(name)
	if base == "" {
		base = fallbackSlug
	}

	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return createWorkspaceTx(tx, &workspace, base)
		})

		if !errors.Is(err, errSlugTaken) {
			break
		}

		if attempt == slugAttempts {
			return nil, apperrors.Conflict("Workspace slug %q is already taken", workspace.Slug)
		}

		workspace.ID = ""
	}

	if err != nil {
		return nil, err
	}

	return &workspace, nil
}

func createWorkspaceTx(tx *gorm.DB, workspace *models.Workspace, base string) error {
	slug, err := uniqueSlug(tx, base)
	if err != nil {
		return err
	}
	workspace.Slug = slug

	if err := tx.Create(workspace).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return fmt.Errorf("creating workspace: %w", err)
	}

	owner := models.WorkspaceMember{
		UserID:      workspace.OwnerID,
		WorkspaceID: workspace.ID,
		Role:        types.RoleAdmin,
	}

	if err := tx.Create(&owner).Error; err != nil {
		return fmt.Errorf("adding workspace owner: %w", err)
	}

	return nil
}

// Update never regenerates the slug.
func (s *WorkspaceService) Update(ctx context.Context, id string, input UpdateWorkspaceInput) (*models.Workspace, error) {
	updates := map[string]interface{}{}

	if input.Name != nil {
		name, err := requireText(*input.Name, "Name")
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}

	if input.Description != nil {
		updates["description"] = *input.Description
	}

	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}

	if input.Settings != nil {
		updates["settings"] = datatypes.JSONMap(input.Settings)
	}

	var workspace *models.Workspace

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if workspace, err = findWorkspace(tx, id); err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(workspace).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating workspace: %w", err)
		}

		workspace, err = findWorkspace(tx, id)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.WorkspaceUpdated, workspace.ID, workspace.ID)

	return workspace, nil
}

// Delete removes the workspace with its projects, tasks, comments and
// memberships in one transaction.
func (s *WorkspaceService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findWorkspace(tx, id); err != nil {
			return err
		}
		return deleteWorkspaceTx(tx, id)
	})

	if err != nil {
		return err
	}

	s.publish(ctx, events.WorkspaceDeleted, id, id)

	return nil
}

// AddMember invites input.Email to the workspace, creating a placeholder user
// when the email is unknown. The caller's own role is not checked here.
func (s *WorkspaceService) AddMember(ctx context.Context, workspaceID string, input InviteMemberInput) (*models.WorkspaceMember, error) {
	email, err := s.normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = types.RoleMember
	}

	if !role.Valid() {
		return nil, apperrors.Validation("Role must be ADMIN or MEMBER")
	}

	var (
		member    models.WorkspaceMember
		workspace *models.Workspace
		user      *models.User
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if workspace, err = findWorkspace(tx, workspaceID); err != nil {
			return err
		}

		if user, err = findOrCreateUserByEmail(tx, email); err != nil {
			return err
		}

		var count int64

		if err := tx.Model(&models.WorkspaceMember{}).Where("user_id = ? AND workspace_id = ?", user.ID, workspaceID).Count(&count).Error; err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}

		if count > 0 {
			return apperrors.Conflict("User is already a member of this workspace")
		}

		member = models.WorkspaceMember{
			UserID:      user.ID,
			WorkspaceID: workspaceID,
			Role:        role,
			Message:     input.Message,
		}

		if err := tx.Create(&member).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.Conflict("User is already a member of this workspace")
			}
			return fmt.Errorf("creating workspace member: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.MemberAdded, workspaceID, member.ID)
	s.notifyInvitation(ctx, Invitation{Workspace: *workspace, User: *user, Role: string(role)})

	return &member, nil
}

func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID string) ([]WorkspaceMemberDetail, error) {
	tx := s.db.WithContext(ctx)

	if _, err := findWorkspace(tx, workspaceID); err != nil {
		return nil, err
	}

	var members []models.WorkspaceMember

	if err := tx.Where("workspace_id = ?", workspaceID).Order("created_at").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing workspace members: %w", err)
	}

	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	users, err := usersByID(tx, userIDs)
	if err != nil {
		return nil, err
	}

	details := make([]WorkspaceMemberDetail, 0, len(members))
	for _, m := range members {
		details = append(details, WorkspaceMemberDetail{WorkspaceMember: m, User: users[m.UserID]})
	}

	return details, nil
}

// usersByID loads the given users keyed by id. Ids of deleted users are
// simply absent from the map.
func usersByID(tx *gorm.DB, ids []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User

	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	for i := range users {
		result[users[i].ID] = &users[i]
	}

	return result, nil
}
