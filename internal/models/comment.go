package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment has no updated_at: once written only its deletion is possible.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID    string    `gorm:"size:36;not null;index" json:"task_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create;not null" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
