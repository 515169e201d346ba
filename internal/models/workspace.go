package models

import (
	"github.com/plank-dev/plank/internal/types"
	"gorm.io/datatypes"
)

type Workspace struct {
	BaseModel

	Name        string            `gorm:"not null" json:"name"`
	Slug        string            `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description string            `json:"description"`
	ImageURL    string            `gorm:"not null;default:''" json:"image_url"`
	Settings    datatypes.JSONMap `json:"settings"`
	OwnerID     string            `gorm:"size:36;not null;index" json:"owner_id"`
}

type WorkspaceMember struct {
	BaseModel

	UserID      string              `gorm:"size:36;not null;uniqueIndex:idx_user_workspace" json:"user_id"`
	WorkspaceID string              `gorm:"size:36;not null;uniqueIndex:idx_user_workspace;index" json:"workspace_id"`
	Role        types.WorkspaceRole `gorm:"size:16;not null" json:"role"`
	Message     string              `gorm:"not null;default:''" json:"message"`
}
