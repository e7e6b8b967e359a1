package domain

import "time"

// Comment uses a plain nullable deleted_at rather than gorm.DeletedAt so a
// soft-deleted comment stays reachable by id.
type Comment struct {
	ID        string     `gorm:"primaryKey;size:32"`
	BlogID    string     `gorm:"size:32;not null;index"`
	AuthorID  string     `gorm:"size:32;not null;index"`
	Author    User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Content   string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"index"`
	DeletedAt *time.Time `gorm:"index"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) Deleted() bool { return c.DeletedAt != nil }
