package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             string         `gorm:"primaryKey;size:32" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email          string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash   string         `gorm:"size:100;not null" json:"-"`
	IsAdmin        bool           `gorm:"not null;default:false" json:"is_admin"`
	ProfilePicture string         `gorm:"size:255" json:"profile_picture"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"` // 封禁（软删）
}

func (User) TableName() string { return "users" }

// Caller is the authenticated identity performing an operation.
// The zero value is an anonymous caller.
type Caller struct {
	UserID   string
	Username string
	Email    string
	IsAdmin  bool
}

func (c Caller) Authenticated() bool { return c.UserID != "" }

// CanModify reports whether the caller may mutate a record owned by ownerID.
func (c Caller) CanModify(ownerID string) bool {
	return c.Authenticated() && (c.IsAdmin || c.UserID == ownerID)
}
