package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-gorm-blog/internal/domain"
)

type BlogRepo struct{ db *gorm.DB }

func NewBlogRepo(db *gorm.DB) *BlogRepo { return &BlogRepo{db: db} }

// 作者被封禁后仍要能展示
func withAuthor(db *gorm.DB) *gorm.DB { return db.Unscoped() }

func activeComments(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL").Order("created_at asc")
}

func (r *BlogRepo) Create(ctx context.Context, b *domain.Blog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

// Get 找不到（含软删）返回 nil, nil
func (r *BlogRepo) Get(ctx context.Context, id string) (*domain.Blog, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("blogs.id = ?", id))
}

// GetPublishedByTitle 同名取最新一篇
func (r *BlogRepo) GetPublishedByTitle(ctx context.Context, title string) (*domain.Blog, error) {
	return r.first(ctx, r.db.WithContext(ctx).
		Where("title = ? AND is_published = ?", title, true).
		Order("created_at desc"))
}

func (r *BlogRepo) first(ctx context.Context, q *gorm.DB) (*domain.Blog, error) {
	var b domain.Blog
	err := q.Preload("Author", withAuthor).
		Preload("Category").
		Preload("Comments", activeComments).
		Preload("Comments.Author", withAuthor).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b.LikesCount, err = r.CountLikes(ctx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update 只写可编辑列；作者、浏览量、创建时间不动
func (r *BlogRepo) Update(ctx context.Context, b *domain.Blog) error {
	return r.db.WithContext(ctx).Model(b).
		Select("title", "content", "image", "category_id", "is_published", "publish_at", "updated_at").
		Updates(b).Error
}

func (r *BlogRepo) SoftDelete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Blog{})
	return res.RowsAffected, res.Error
}

// Purge 物理删除博客及其评论、点赞
func (r *BlogRepo) Purge(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", id).Delete(&domain.BlogLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blog_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&domain.Blog{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// IncrementViews views = views + 1，单条语句
func (r *BlogRepo) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Blog{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// ToggleLike flips (blogID, userID) membership and returns the new state and total.
func (r *BlogRepo) ToggleLike(ctx context.Context, blogID, userID string) (liked bool, total int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&domain.BlogLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := domain.BlogLike{BlogID: blogID, UserID: userID}
			if err := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&domain.BlogLike{}).Where("blog_id = ?", blogID).Count(&total).Error
	})
	return
}

func (r *BlogRepo) CountLikes(ctx context.Context, blogID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BlogLike{}).Where("blog_id = ?", blogID).Count(&n).Error
	return n, err
}

func (r *BlogRepo) HasLiked(ctx context.Context, blogID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BlogLike{}).
		Where("blog_id = ? AND user_id = ?", blogID, userID).Count(&n).Error
	return n > 0, err
}

// LikedAmong returns the subset of blogIDs the user has liked.
func (r *BlogRepo) LikedAmong(ctx context.Context, userID string, blogIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(blogIDs))
	if userID == "" || len(blogIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.BlogLike{}).
		Where("user_id = ? AND blog_id IN ?", userID, blogIDs).
		Pluck("blog_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

type BlogFilter struct {
	CategoryID string
	Search     string
	AuthorID   string
	Published  bool // true 只要已发布
	Offset     int
	Limit      int
}

func (r *BlogRepo) List(ctx context.Context, f BlogFilter) ([]domain.Blog, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Blog{})
	if f.Published {
		q = q.Where("is_published = ?", true)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		q = q.Where(likeAny("title", "content"), like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var blogs []domain.Blog
	err := q.Preload("Author", withAuthor).
		Preload("Category").
		Preload("Comments", activeComments).
		Preload("Comments.Author", withAuthor).
		Order("created_at desc").Order("id desc").
		Offset(f.Offset).Limit(f.Limit).
		Find(&blogs).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.fillLikes(ctx, blogs); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *BlogRepo) fillLikes(ctx context.Context, blogs []domain.Blog) error {
	if len(blogs) == 0 {
		return nil
	}
	ids := make([]string, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].ID
	}
	var rows []struct {
		BlogID string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.BlogLike{}).
		Select("blog_id, COUNT(*) AS n").
		Where("blog_id IN ?", ids).
		Group("blog_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BlogID] = row.N
	}
	for i := range blogs {
		blogs[i].LikesCount = counts[blogs[i].ID]
	}
	return nil
}
