package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-gin-gorm-blog/internal/core/server"
	"go-gin-gorm-blog/internal/transport/http/ez"
	mdw "go-gin-gorm-blog/internal/transport/http/middleware"
)

func NewAdminEngine(o Options, reg *Registry) *gin.Engine {
	r := server.NewRouter(o.Log, o.CORSOrigins)
	r.Use(common(o.Log)...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(o.JWT, ez.RoleAdmin, o.Active))
	reg.MountAllAdmin(admin)

	return r
}
