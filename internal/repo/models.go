package repo

import (
	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/domain"
)

// Models 需要自动迁移的表（有外键依赖，按顺序）
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Category{},
		&domain.Blog{},
		&domain.Comment{},
		&domain.BlogLike{},
		&auth.RevokedToken{},
	}
}
