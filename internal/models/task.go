package models

import (
	"time"

	"github.com/plank-dev/plank/internal/types"
)

type Task struct {
	BaseModel

	ProjectID   string           `gorm:"size:36;not null;index" json:"project_id"`
	Title       string           `gorm:"not null" json:"title"`
	Description string           `json:"description"`
	Status      types.TaskStatus `gorm:"size:16;not null" json:"status"`
	Type        types.TaskType   `gorm:"size:16;not null" json:"type"`
	Priority    types.Priority   `gorm:"size:16;not null" json:"priority"`
	AssigneeID  string           `gorm:"size:36;not null;index" json:"assignee_id"`
	DueDate     time.Time        `gorm:"not null" json:"due_date"`
}
