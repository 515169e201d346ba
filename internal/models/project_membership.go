package models

type ProjectMember struct {
	BaseModel

	UserID    string `gorm:"size:36;not null;uniqueIndex:idx_user_project" json:"user_id"`
	ProjectID string `gorm:"size:36;not null;uniqueIndex:idx_user_project;index" json:"project_id"`
}
