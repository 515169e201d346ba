package services

import (
	"context"
	"fmt"

	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/models"
	"gorm.io/gorm"
)

type CommentService struct {
	*base
}

type CommentDetail struct {
	models.Comment
	User *models.User `json:"user"`
}

func (s *CommentService) Create(ctx context.Context, taskID, userID, content string) (*models.Comment, error) {
	content, err := requireText(content, "Content")
	if err != nil {
		return nil, err
	}

	comment := models.Comment{TaskID: taskID, UserID: userID, Content: content}

	var workspaceID string

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}

		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}

		workspaceID = workspaceOfProject(tx, task.ProjectID)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.CommentChanged, workspaceID, comment.ID)

	return &comment, nil
}

// FindByTaskID returns the task's comments newest first, each with its author
// when the author still exists.
func (s *CommentService) FindByTaskID(ctx context.Context, taskID string) ([]CommentDetail, error) {
	tx := s.db.WithContext(ctx)

	var comments []models.Comment

	if err := tx.Where("task_id = ?", taskID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("listing comments of task %s: %w", taskID, err)
	}

	userIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}

	users, err := usersByID(tx, userIDs)
	if err != nil {
		return nil, err
	}

	details := make([]CommentDetail, 0, len(comments))
	for _, c := range comments {
		details = append(details, CommentDetail{Comment: c, User: users[c.UserID]})
	}

	return details, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	var workspaceID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment

		if err := tx.Where("id = ?", id).First(&comment).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NotFound("Comment not found")
			}
			return fmt.Errorf("fetching comment %s: %w", id, err)
		}

		if task, err := findTask(tx, comment.TaskID); err == nil {
			workspaceID = workspaceOfProject(tx, task.ProjectID)
		}

		if err := tx.Delete(&comment).Error; err != nil {
			return fmt.Errorf("deleting comment: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.publish(ctx, events.CommentChanged, workspaceID, id)

	return nil
}
