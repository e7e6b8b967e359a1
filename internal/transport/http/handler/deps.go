// Package handler holds the HTTP modules mounted by the router registry.
// Each module maps routes onto service calls through ez.RegisterAction.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/service"
)

// Deps 各模块共享的依赖
type Deps struct {
	Log *zap.Logger

	// Authed 要求 access token 的中间件（由 router 构造）
	Authed gin.HandlerFunc
	// Optional 公共路由：token 可选，合法时写入身份
	Optional gin.HandlerFunc

	Auth       *service.AuthService
	Profile    *service.ProfileService
	Blogs      *service.BlogService
	Comments   *service.CommentService
	Categories *service.CategoryService
	Stats      *service.StatsService
	Users      *service.UserAdminService
}

// public 公共路由组的中间件
func (d *Deps) public() []gin.HandlerFunc {
	if d.Optional == nil {
		return nil
	}
	return []gin.HandlerFunc{d.Optional}
}

type detail struct {
	Detail string `json:"detail"`
}
