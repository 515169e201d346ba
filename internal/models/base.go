package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel replaces gorm.Model: string ids, no soft delete, and a created_at
// column gorm only writes on insert.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null" json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All returns every model managed by AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Workspace{},
		&WorkspaceMember{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&Comment{},
	}
}
