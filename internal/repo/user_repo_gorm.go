package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-blog/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID 找不到返回 nil, nil；封禁（软删）用户视为不存在
func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

// Taken reports which of username/email already belong to someone, banned users included.
func (r *UserRepo) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var n int64
	if err = r.db.WithContext(ctx).Unscoped().Model(&domain.User{}).
		Where("username = ?", username).Count(&n).Error; err != nil {
		return
	}
	usernameTaken = n > 0
	if err = r.db.WithContext(ctx).Unscoped().Model(&domain.User{}).
		Where("email = ?", email).Count(&n).Error; err != nil {
		return
	}
	emailTaken = n > 0
	return
}

type UserQuery struct {
	Offset      int
	Limit       int
	Q           string // 按 username/email 模糊搜
	WithDeleted bool
}

func (r *UserRepo) List(ctx context.Context, q UserQuery) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q.WithDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		like := containsPattern(s)
		tx = tx.Where(likeAny("username", "email"), like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := tx.Order("created_at desc").Offset(q.Offset).Limit(q.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (r *UserRepo) UpdateProfilePicture(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("profile_picture", url).Error
}

// SoftDelete 封禁用户
func (r *UserRepo) SoftDelete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	return res.RowsAffected, res.Error
}

func (r *UserRepo) SetAdmin(ctx context.Context, username string, admin bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).
		Update("is_admin", admin)
	return res.RowsAffected, res.Error
}
