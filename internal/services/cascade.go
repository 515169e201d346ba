package services

import (
	"fmt"

	"github.com/plank-dev/plank/internal/models"
	"gorm.io/gorm"
)

// The delete helpers below run inside the caller's transaction and remove
// children before parents: comments, tasks, project members, projects,
// workspace members, workspace. Users are never touched.

func deleteWorkspaceTx(tx *gorm.DB, workspaceID string) error {
	var projectIDs []string

	if err := tx.Model(&models.Project{}).Where("workspace_id = ?", workspaceID).Pluck("id", &projectIDs).Error; err != nil {
		return fmt.Errorf("listing projects of workspace %s: %w", workspaceID, err)
	}

	if err := deleteProjectsTx(tx, projectIDs); err != nil {
		return err
	}

	if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkspaceMember{}).Error; err != nil {
		return fmt.Errorf("deleting workspace members: %w", err)
	}

	if err := tx.Where("id = ?", workspaceID).Delete(&models.Workspace{}).Error; err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}

	return nil
}

func deleteProjectsTx(tx *gorm.DB, projectIDs []string) error {
	if len(projectIDs) == 0 {
		return nil
	}

	var taskIDs []string

	if err := tx.Model(&models.Task{}).Where("project_id IN ?", projectIDs).Pluck("id", &taskIDs).Error; err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	if err := deleteTasksTx(tx, taskIDs); err != nil {
		return err
	}

	if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.ProjectMember{}).Error; err != nil {
		return fmt.Errorf("deleting project members: %w", err)
	}

	if err := tx.Where("id IN ?", projectIDs).Delete(&models.Project{}).Error; err != nil {
		return fmt.Errorf("deleting projects: %w", err)
	}

	return nil
}

func deleteTasksTx(tx *gorm.DB, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}

	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}

	if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}

	return nil
}
