// Package app wires configuration into stores, services and HTTP engines.
// Both binaries build the same App and mount different engines.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/core/cache"
	"go-gin-gorm-blog/internal/core/config"
	"go-gin-gorm-blog/internal/core/database"
	"go-gin-gorm-blog/internal/core/logger"
	"go-gin-gorm-blog/internal/core/mailer"
	"go-gin-gorm-blog/internal/core/storage"
	"go-gin-gorm-blog/internal/repo"
	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/handler"
	mdw "go-gin-gorm-blog/internal/transport/http/middleware"
	"go-gin-gorm-blog/internal/transport/http/router"
)

type App struct {
	Cfg *config.Config
	Log *zap.Logger
	DB  *gorm.DB
	RDB *redis.Client // 未配置时为 nil

	JWT      *auth.JWTer
	Auth     *service.AuthService
	Users    *service.UserAdminService
	Registry *router.Registry

	opts    router.Options
	closers []func()
}

// Options 测试时可替换外部依赖
type Options struct {
	DB    *gorm.DB      // 为空则按配置连接
	Store storage.Store // 为空则按配置创建
	Mail  mailer.Sender // 为空则按配置创建
}

func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, o Options) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	// 数据库
	db := o.DB
	if db == nil {
		var err error
		db, err = database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			Writer:             logger.GormWriter{L: log},
		})
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		a.closers = append(a.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	}
	a.DB = db

	if cfg.DB.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(repo.Models()...); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	// Redis：黑名单 + 分类缓存；未配置时黑名单落库
	var (
		revoker auth.Revoker = auth.NewGormRevoker(db)
		cc      *cache.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		a.RDB = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		revoker = auth.NewRedisRevoker(rdb)
		cc = cache.NewFromClient(rdb)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	// 文件存储
	store := o.Store
	if store == nil {
		var err error
		store, err = newStore(ctx, cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.Storage.Driver != "minio" && strings.HasPrefix(cfg.Storage.PublicBase, "/") {
		a.opts.MediaPrefix = cfg.Storage.PublicBase
		a.opts.MediaDir = cfg.Storage.LocalDir
	}

	mail := o.Mail
	if mail == nil {
		mail = mailer.New(mailer.SMTPOpts{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}, log)
	}
	// 邮件走后台队列，请求不等待 SMTP
	mq := mailer.NewQueue(mail, 64, 30*time.Second, log)
	a.closers = append(a.closers, mq.Close)

	// JWT
	a.JWT = &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshTokenTTLHour) * time.Hour,
	}
	resetTokens := &auth.ResetTokens{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.Reset.TTLMin) * time.Minute,
	}

	// 依赖
	users := repo.NewUserRepo(db)
	blogs := repo.NewBlogRepo(db)
	cats := repo.NewCategoryRepo(db)
	comments := repo.NewCommentRepo(db)

	a.Auth = service.NewAuthService(service.AuthDeps{
		Users:     users,
		JWT:       a.JWT,
		Revoker:   revoker,
		Reset:     resetTokens,
		Mail:      mq,
		ResetLink: cfg.Reset.LinkBase,
		Log:       log,
	})
	a.Users = service.NewUserAdminService(users)

	deps := &handler.Deps{
		Log:        log,
		Authed:     mdw.AuthJWT(a.JWT, "", a.Auth),
		Optional:   mdw.OptionalAuth(a.JWT),
		Auth:       a.Auth,
		Profile:    service.NewProfileService(users, store),
		Blogs:      service.NewBlogService(blogs, cats, store),
		Comments:   service.NewCommentService(blogs, comments),
		Categories: service.NewCategoryService(cats, cc, time.Duration(cfg.Redis.CacheTTLSec)*time.Second),
		Stats:      service.NewStatsService(repo.NewStatsRepo(db)),
		Users:      a.Users,
	}
	a.Registry = router.NewRegistry(
		handler.NewAuth(deps),
		handler.NewCategory(deps),
		handler.NewBlog(deps),
		handler.NewComment(deps),
		handler.NewAdmin(deps),
	)

	a.opts.Log = log
	a.opts.JWT = a.JWT
	a.opts.Active = a.Auth
	a.opts.CORSOrigins = cfg.App.HTTP.CORSOrigins
	return a, nil
}

func newStore(ctx context.Context, c config.Storage) (storage.Store, error) {
	switch c.Driver {
	case "minio":
		m := c.Minio
		s, err := storage.NewMinioStore(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL, c.PublicBase)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return s, nil
	case "", "local":
		s, err := storage.NewLocalStore(c.LocalDir, c.PublicBase)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
}

// APIEngine 用户端 /api/v1
func (a *App) APIEngine() *gin.Engine { return router.NewAPIEngine(a.opts, a.Registry) }

// AdminEngine 管理端 /admin/v1 + /metrics
func (a *App) AdminEngine() *gin.Engine { return router.NewAdminEngine(a.opts, a.Registry) }

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
