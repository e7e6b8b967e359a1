package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-gin-gorm-blog/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var cs []domain.Category
	err := r.db.WithContext(ctx).Order("name asc").Find(&cs).Error
	return cs, err
}

func (r *CategoryRepo) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *CategoryRepo) first(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var c domain.Category
	err := r.db.WithContext(ctx).First(&c, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Model(c).Select("name", "description").Updates(c).Error
}

// Delete 先把引用该分类的博客置空，再删分类
func (r *CategoryRepo) Delete(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&domain.Blog{}).Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Category{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
