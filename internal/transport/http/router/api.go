package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/core/server"
	mdw "go-gin-gorm-blog/internal/transport/http/middleware"
)

// Options 两个 engine 共用
type Options struct {
	Log         *zap.Logger
	JWT         *auth.JWTer
	Active      mdw.ActiveChecker // 可为 nil
	CORSOrigins []string

	// 本地存储时对外暴露上传目录，例如 /media -> ./media
	MediaPrefix string
	MediaDir    string
}

func common(l *zap.Logger) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(20, 40),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16 << 20),
		mdw.Timeout(10 * time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	}
}

func NewAPIEngine(o Options, reg *Registry) *gin.Engine {
	r := server.NewRouter(o.Log, o.CORSOrigins)

	// 中间件
	r.Use(common(o.Log)...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	if o.MediaDir != "" && o.MediaPrefix != "" {
		r.Static(o.MediaPrefix, o.MediaDir)
	}

	// 前缀
	api := r.Group("/api/v1")
	reg.MountAllAPI(api)

	return r
}
