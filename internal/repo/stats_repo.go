package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-blog/internal/domain"
)

type CategoryRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BlogRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type UserRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// StatsRepo 后台统计用的只读查询
type StatsRepo struct{ db *gorm.DB }

func NewStatsRepo(db *gorm.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) count(ctx context.Context, model any, where ...any) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *StatsRepo) CountBlogs(ctx context.Context) (int64, error) {
	return r.count(ctx, &domain.Blog{})
}

// CountLikes 只算未删除博客上的点赞
func (r *StatsRepo) CountLikes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BlogLike{}).
		Joins("JOIN blogs ON blogs.id = blog_likes.blog_id AND blogs.deleted_at IS NULL").
		Count(&n).Error
	return n, err
}

func (r *StatsRepo) CountComments(ctx context.Context) (int64, error) {
	return r.count(ctx, &domain.Comment{}, "deleted_at IS NULL")
}

func (r *StatsRepo) Categories(ctx context.Context) ([]CategoryRow, error) {
	var rows []CategoryRow
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Order("name asc").Scan(&rows).Error
	return rows, err
}

func (r *StatsRepo) Blogs(ctx context.Context) ([]BlogRow, error) {
	var rows []BlogRow
	err := r.db.WithContext(ctx).Model(&domain.Blog{}).
		Select("id", "title", "author_id", "created_at").
		Order("created_at asc").Scan(&rows).Error
	return rows, err
}

func (r *StatsRepo) Users(ctx context.Context) ([]UserRow, error) {
	var rows []UserRow
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("id", "username", "email", "is_admin").
		Order("created_at asc").Scan(&rows).Error
	return rows, err
}

func (r *StatsRepo) BlogCreatedTimes(ctx context.Context) ([]time.Time, error) {
	var ts []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Blog{}).Pluck("created_at", &ts).Error
	return ts, err
}

func (r *StatsRepo) UserCreatedTimes(ctx context.Context) ([]time.Time, error) {
	var ts []time.Time
	err := r.db.WithContext(ctx).Model(&domain.User{}).Pluck("created_at", &ts).Error
	return ts, err
}
