package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Revoker is the refresh-token blacklist, keyed by jti.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedPrefix = "jwt:revoked:"

type RedisRevoker struct{ RDB *redis.Client }

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker { return &RedisRevoker{RDB: rdb} }

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil // 已过期，无需拉黑
	}
	return r.RDB.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.RDB.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokedToken backs GormRevoker.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (RevokedToken) TableName() string { return "revoked_tokens" }

type GormRevoker struct{ db *gorm.DB }

func NewGormRevoker(db *gorm.DB) *GormRevoker { return &GormRevoker{db: db} }

func (r *GormRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	db := r.db.WithContext(ctx)
	// 顺手清理过期记录
	if err := db.Where("expires_at < ?", time.Now()).Delete(&RevokedToken{}).Error; err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&RevokedToken{JTI: jti, ExpiresAt: until}).Error
}

func (r *GormRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&RevokedToken{}).Where("jti = ?", jti).Count(&n).Error
	return n > 0, err
}
