package domain

import (
	"time"

	"gorm.io/gorm"
)

type Blog struct {
	ID          string         `gorm:"primaryKey;size:32"`
	Title       string         `gorm:"size:100;not null"`
	Content     string         `gorm:"type:text;not null"`
	Image       string         `gorm:"size:255"`
	AuthorID    string         `gorm:"size:32;not null;index"`
	Author      User           `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CategoryID  *string        `gorm:"size:32;index"`
	Category    *Category      `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	IsPublished bool           `gorm:"not null;default:false;index"`
	PublishAt   *time.Time     `gorm:"index"`
	Views       uint           `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"index"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Comments   []Comment `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
	LikesCount int64     `gorm:"-"`
}

func (Blog) TableName() string { return "blogs" }

// ApplyPublishSchedule forces IsPublished once PublishAt is due.
// It never unpublishes.
func (b *Blog) ApplyPublishSchedule(now time.Time) {
	if b.PublishAt != nil && !b.PublishAt.After(now) {
		b.IsPublished = true
	}
}

// BeforeSave runs on every create and full save.
func (b *Blog) BeforeSave(*gorm.DB) error {
	b.ApplyPublishSchedule(time.Now())
	return nil
}

// VisibleTo reports whether the caller may read the blog.
func (b *Blog) VisibleTo(c Caller) bool {
	return b.IsPublished || c.CanModify(b.AuthorID)
}

// BlogLike is one row of a blog's like set.
type BlogLike struct {
	BlogID    string    `gorm:"primaryKey;size:32"`
	UserID    string    `gorm:"primaryKey;size:32;index"`
	Blog      *Blog     `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (BlogLike) TableName() string { return "blog_likes" }
