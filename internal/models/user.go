package models

// User is referenced by id from every other table but owns nothing: deleting a
// user never touches the rows pointing at it.
type User struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Image        string `gorm:"not null;default:''" json:"image"`
	PasswordHash string `gorm:"not null;default:''" json:"-"`
}
