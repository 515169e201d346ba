package models

import (
	"time"

	"github.com/plank-dev/plank/internal/types"
)

type Project struct {
	BaseModel

	Name        string              `gorm:"not null" json:"name"`
	Description string              `json:"description"`
	Priority    types.Priority      `gorm:"size:16;not null" json:"priority"`
	Status      types.ProjectStatus `gorm:"size:16;not null" json:"status"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	TeamLead    string              `gorm:"size:36;not null;index" json:"team_lead"`
	WorkspaceID string              `gorm:"size:36;not null;index" json:"workspace_id"`
	Progress    int                 `gorm:"not null;default:0" json:"progress"`
}
