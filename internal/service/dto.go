package service

import (
	"time"

	"go-gin-gorm-blog/internal/domain"
)

type UserView struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	IsAdmin        bool   `json:"is_admin"`
	ProfilePicture string `json:"profile_picture"`
	Email          string `json:"email"`
}

func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:             u.ID,
		Username:       u.Username,
		IsAdmin:        u.IsAdmin,
		ProfilePicture: u.ProfilePicture,
		Email:          u.Email,
	}
}

type CommentView struct {
	ID        string     `json:"id"`
	Blog      string     `json:"blog"`
	Author    UserView   `json:"author"`
	Comment   string     `json:"comment"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func NewCommentView(c *domain.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Blog:      c.BlogID,
		Author:    NewUserView(&c.Author),
		Comment:   c.Content,
		CreatedAt: c.CreatedAt,
		DeletedAt: c.DeletedAt,
	}
}

func commentViews(cs []domain.Comment) []CommentView {
	out := make([]CommentView, 0, len(cs))
	for i := range cs {
		out = append(out, NewCommentView(&cs[i]))
	}
	return out
}

type BlogView struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Author      UserView         `json:"author"`
	Category    *domain.Category `json:"category"`
	Image       string           `json:"image"`
	IsPublished bool             `json:"is_published"`
	PublishAt   *time.Time       `json:"publish_at"`
	CreatedAt   time.Time        `json:"created_at"`
	DeletedAt   *time.Time       `json:"deleted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	LikesCount  int64            `json:"likes_count"`
	Views       uint             `json:"views"`
	LikedByMe   bool             `json:"liked_by_me"`
	Comments    []CommentView    `json:"comments"`
}

func NewBlogView(b *domain.Blog) BlogView {
	v := BlogView{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		Author:      NewUserView(&b.Author),
		Category:    b.Category,
		Image:       b.Image,
		IsPublished: b.IsPublished,
		PublishAt:   b.PublishAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		LikesCount:  b.LikesCount,
		Views:       b.Views,
		Comments:    commentViews(b.Comments),
	}
	if b.DeletedAt.Valid {
		t := b.DeletedAt.Time
		v.DeletedAt = &t
	}
	return v
}

func blogViews(bs []domain.Blog) []BlogView {
	out := make([]BlogView, 0, len(bs))
	for i := range bs {
		out = append(out, NewBlogView(&bs[i]))
	}
	return out
}
