package services

import (
	"context"
	"fmt"
	"time"

	"github.com/plank-dev/plank/db"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
	"gorm.io/gorm"
)

type ProjectService struct {
	*base
}

type CreateProjectInput struct {
	WorkspaceID string
	Name        string
	Description string
	Priority    types.Priority
	Status      types.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	TeamLead    string
	TeamMembers []string
	Progress    *int
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Priority    *types.Priority
	Status      *types.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	TeamLead    *string
	Progress    *int
}

type ProjectMemberDetail struct {
	models.ProjectMember
	User *models.User `json:"user"`
}

func validProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return apperrors.Validation("Progress must be between 0 and 100")
	}
	return nil
}

func (s *ProjectService) FindAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project

	if err := s.db.WithContext(ctx).Order("created_at").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

func (s *ProjectService) FindByID(ctx context.Context, id string) (*models.Project, error) {
	return findProject(s.db.WithContext(ctx), id)
}

func findProject(tx *gorm.DB, id string) (*models.Project, error) {
	var project models.Project

	if err := tx.Where("id = ?", id).First(&project).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, fmt.Errorf("fetching project %s: %w", id, err)
	}

	return &project, nil
}

func (s *ProjectService) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]models.Project, error) {
	var projects []models.Project

	if err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing projects of workspace %s: %w", workspaceID, err)
	}

	return projects, nil
}

// FindByUserID returns the projects userID leads or is a member of, each once.
func (s *ProjectService) FindByUserID(ctx context.Context, userID string) ([]models.Project, error) {
	tx := s.db.WithContext(ctx)

	var led []models.Project

	if err := tx.Where("team_lead = ?", userID).Order("created_at").Find(&led).Error; err != nil {
		return nil, fmt.Errorf("listing led projects: %w", err)
	}

	var memberOf []models.Project

	memberships := tx.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)

	if err := tx.Where("id IN (?)", memberships).Order("created_at").Find(&memberOf).Error; err != nil {
		return nil, fmt.Errorf("listing member projects: %w", err)
	}

	return unionByID(func(p models.Project) string { return p.ID }, led, memberOf), nil
}

// Create stores the project and enrolls the team lead plus every supplied
// member id that belongs to an existing user. Unknown ids are skipped and the
// lead is enrolled exactly once.
func (s *ProjectService) Create(ctx context.Context, currentUserID string, input CreateProjectInput) (*models.Project, error) {
	name, err := requireText(input.Name, "Name")
	if err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        name,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		TeamLead:    input.TeamLead,
		WorkspaceID: input.WorkspaceID,
	}

	if project.Priority == "" {
		project.Priority = types.PriorityMedium
	}

	if project.Status == "" {
		project.Status = types.ProjectPlanning
	}

	if project.TeamLead == "" {
		project.TeamLead = currentUserID
	}

	if input.Progress != nil {
		project.Progress = *input.Progress
	}

	if !project.Priority.Valid() {
		return nil, apperrors.Validation("Invalid priority %q", project.Priority)
	}

	if !project.Status.Valid() {
		return nil, apperrors.Validation("Invalid status %q", project.Status)
	}

	if err := validProgress(project.Progress); err != nil {
		return nil, err
	}

	candidates := unionByID(func(id string) string { return id }, []string{project.TeamLead}, input.TeamMembers)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findWorkspace(tx, project.WorkspaceID); err != nil {
			return err
		}

		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		var existing []string

		if err := tx.Model(&models.User{}).Where("id IN ?", candidates).Pluck("id", &existing).Error; err != nil {
			return fmt.Errorf("resolving team members: %w", err)
		}

		known := make(map[string]bool, len(existing))
		for _, id := range existing {
			known[id] = true
		}

		for _, userID := range candidates {
			if !known[userID] {
				continue
			}

			member := models.ProjectMember{UserID: userID, ProjectID: project.ID}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("adding project member %s: %w", userID, err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProjectChanged, project.WorkspaceID, project.ID)

	return &project, nil
}

// Update leaves unset fields untouched.
func (s *ProjectService) Update(ctx context.Context, id string, input UpdateProjectInput) (*models.Project, error) {
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

	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.Validation("Invalid priority %q", *input.Priority)
		}
		updates["priority"] = *input.Priority
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.Validation("Invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}

	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}

	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}

	if input.TeamLead != nil && *input.TeamLead != "" {
		updates["team_lead"] = *input.TeamLead
	}

	if input.Progress != nil {
		if err := validProgress(*input.Progress); err != nil {
			return nil, err
		}
		updates["progress"] = *input.Progress
	}

	var project *models.Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if project, err = findProject(tx, id); err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(project).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating project: %w", err)
		}

		project, err = findProject(tx, id)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProjectChanged, project.WorkspaceID, project.ID)

	return project, nil
}

// Delete removes the project with its tasks, their comments and the project's
// memberships.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	var project *models.Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if project, err = findProject(tx, id); err != nil {
			return err
		}

		return deleteProjectsTx(tx, []string{id})
	})

	if err != nil {
		return err
	}

	s.publish(ctx, events.ProjectDeleted, project.WorkspaceID, id)

	return nil
}

// AddMember enrolls the existing user with the given email. Unlike workspace
// invitations no placeholder user is created, and the caller's rights are not
// checked.
func (s *ProjectService) AddMember(ctx context.Context, projectID, email string) (*models.ProjectMember, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var (
		member    models.ProjectMember
		project   *models.Project
		workspace *models.Workspace
		user      *models.User
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if project, err = findProject(tx, projectID); err != nil {
			return err
		}

		if user, err = findUserByEmail(tx, email); err != nil {
			return err
		}

		if user == nil {
			return apperrors.NotFound("User not found with email: %s", email)
		}

		var count int64

		if err := tx.Model(&models.ProjectMember{}).Where("user_id = ? AND project_id = ?", user.ID, projectID).Count(&count).Error; err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}

		if count > 0 {
			return apperrors.Conflict("User is already a member of this project")
		}

		member = models.ProjectMember{UserID: user.ID, ProjectID: projectID}

		if err := tx.Create(&member).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.Conflict("User is already a member of this project")
			}
			return fmt.Errorf("creating project member: %w", err)
		}

		// The workspace only feeds the notification; a dangling id is tolerated.
		if ws, err := findWorkspace(tx, project.WorkspaceID); err == nil {
			workspace = ws
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.MemberAdded, project.WorkspaceID, member.ID)

	if workspace != nil {
		s.notifyInvitation(ctx, Invitation{Workspace: *workspace, Project: project, User: *user})
	}

	return &member, nil
}

func (s *ProjectService) ListMembers(ctx context.Context, projectID string) ([]ProjectMemberDetail, error) {
	tx := s.db.WithContext(ctx)

	if _, err := findProject(tx, projectID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember

	if err := tx.Where("project_id = ?", projectID).Order("created_at").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing project members: %w", err)
	}

	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	users, err := usersByID(tx, userIDs)
	if err != nil {
		return nil, err
	}

	details := make([]ProjectMemberDetail, 0, len(members))
	for _, m := range members {
		details = append(details, ProjectMemberDetail{ProjectMember: m, User: users[m.UserID]})
	}

	return details, nil
}
