package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-gorm-blog/internal/domain"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// FindByID 直接查找，包含已软删的评论
func (r *CommentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.WithContext(ctx).Preload("Author", withAuthor).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive 未删除的评论，按时间正序
func (r *CommentRepo) ListActive(ctx context.Context, blogID string) ([]domain.Comment, error) {
	var cs []domain.Comment
	err := r.db.WithContext(ctx).Preload("Author", withAuthor).
		Where("blog_id = ? AND deleted_at IS NULL", blogID).
		Order("created_at asc").Order("id asc").
		Find(&cs).Error
	return cs, err
}

// SoftDelete 只标记 deleted_at，已删除的不重复更新
func (r *CommentRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at).Error
}
