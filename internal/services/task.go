package services

import (
	"context"
	"fmt"
	"time"

	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
	"gorm.io/gorm"
)

const defaultTaskDue = 7 * 24 * time.Hour

type TaskService struct {
	*base
	projects *ProjectService
}

type CreateTaskInput struct {
	ProjectID   string
	Title       string
	Description string
	Status      types.TaskStatus
	Type        types.TaskType
	Priority    types.Priority
	AssigneeID  string
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *types.TaskStatus
	Type        *types.TaskType
	Priority    *types.Priority
	AssigneeID  *string
	DueDate     *time.Time
}

func (s *TaskService) FindAll(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task

	if err := s.db.WithContext(ctx).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskService) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return findTask(s.db.WithContext(ctx), id)
}

func findTask(tx *gorm.DB, id string) (*models.Task, error) {
	var task models.Task

	if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("Task not found")
		}
		return nil, fmt.Errorf("fetching task %s: %w", id, err)
	}

	return &task, nil
}

func (s *TaskService) FindByProjectID(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task

	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks of project %s: %w", projectID, err)
	}

	return tasks, nil
}

func (s *TaskService) FindByAssigneeID(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task

	if err := s.db.WithContext(ctx).Where("assignee_id = ?", userID).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks assigned to %s: %w", userID, err)
	}

	return tasks, nil
}

// FindVisible returns tasks of every project userID leads or belongs to,
// followed by any other task assigned to them.
func (s *TaskService) FindVisible(ctx context.Context, userID string) ([]models.Task, error) {
	projects, err := s.projects.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var inProjects []models.Task

	if len(projects) > 0 {
		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}

		if err := s.db.WithContext(ctx).Where("project_id IN ?", ids).Order("created_at").Find(&inProjects).Error; err != nil {
			return nil, fmt.Errorf("listing visible tasks: %w", err)
		}
	}

	assigned, err := s.FindByAssigneeID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return unionByID(func(t models.Task) string { return t.ID }, inProjects, assigned), nil
}

// Create defaults the assignee to the caller and the due date to a week out.
func (s *TaskService) Create(ctx context.Context, currentUserID string, input CreateTaskInput) (*models.Task, error) {
	title, err := requireText(input.Title, "Title")
	if err != nil {
		return nil, err
	}

	task := models.Task{
		ProjectID:   input.ProjectID,
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Type:        input.Type,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
	}

	if task.Status == "" {
		task.Status = types.TaskTodo
	}

	if task.Type == "" {
		task.Type = types.TaskTypeTask
	}

	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}

	if task.AssigneeID == "" {
		task.AssigneeID = currentUserID
	}

	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	} else {
		task.DueDate = time.Now().UTC().Add(defaultTaskDue)
	}

	if err := validateTaskEnums(task.Status, task.Type, task.Priority); err != nil {
		return nil, err
	}

	var project *models.Project

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if project, err = findProject(tx, task.ProjectID); err != nil {
			return err
		}

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TaskChanged, project.WorkspaceID, task.ID)

	return &task, nil
}

func validateTaskEnums(status types.TaskStatus, taskType types.TaskType, priority types.Priority) error {
	if !status.Valid() {
		return apperrors.Validation("Invalid status %q", status)
	}

	if !taskType.Valid() {
		return apperrors.Validation("Invalid type %q", taskType)
	}

	if !priority.Valid() {
		return apperrors.Validation("Invalid priority %q", priority)
	}

	return nil
}

func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	updates := map[string]interface{}{}

	if input.Title != nil {
		title, err := requireText(*input.Title, "Title")
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}

	if input.Description != nil {
		updates["description"] = *input.Description
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.Validation("Invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}

	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, apperrors.Validation("Invalid type %q", *input.Type)
		}
		updates["type"] = *input.Type
	}

	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.Validation("Invalid priority %q", *input.Priority)
		}
		updates["priority"] = *input.Priority
	}

	if input.AssigneeID != nil && *input.AssigneeID != "" {
		updates["assignee_id"] = *input.AssigneeID
	}

	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}

	var (
		task        *models.Task
		workspaceID string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		if task, err = findTask(tx, id); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(task).Updates(updates).Error; err != nil {
				return fmt.Errorf("updating task: %w", err)
			}

			if task, err = findTask(tx, id); err != nil {
				return err
			}
		}

		workspaceID = workspaceOfProject(tx, task.ProjectID)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TaskChanged, workspaceID, task.ID)

	return task, nil
}

// Delete removes the task and its comments.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	var workspaceID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}

		workspaceID = workspaceOfProject(tx, task.ProjectID)

		return deleteTasksTx(tx, []string{id})
	})

	if err != nil {
		return err
	}

	s.publish(ctx, events.TaskDeleted, workspaceID, id)

	return nil
}

// workspaceOfProject returns "" when the project is gone.
func workspaceOfProject(tx *gorm.DB, projectID string) string {
	var workspaceIDs []string

	tx.Model(&models.Project{}).Where("id = ?", projectID).Limit(1).Pluck("workspace_id", &workspaceIDs)

	if len(workspaceIDs) == 0 {
		return ""
	}

	return workspaceIDs[0]
}
