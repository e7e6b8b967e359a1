package main

import (
	"context"
	"flag"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-gorm-blog/internal/app"
	"go-gin-gorm-blog/internal/core/config"
	"go-gin-gorm-blog/internal/core/logger"
	"go-gin-gorm-blog/internal/core/server"
)

func main() {
	promote := flag.String("promote", "", "grant admin rights to this username and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.Build(context.Background(), cfg, log, app.Options{})
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 初始化第一个管理员：admin -promote alice
	if *promote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		code := promoteAdmin(ctx, a.Users, *promote, log)
		cancel()
		if code != 0 {
			// os.Exit 不走 defer，先手动收尾
			a.Close()
			cleanup()
			os.Exit(code)
		}
		return
	}

	// HTTP Server
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, a.AdminEngine(), 5*time.Second, 10*time.Second, 60*time.Second)

	// 启动前打印可点击地址
	baseURL := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	server.Run(srv, log, "admin api", 10*time.Second)
}

type promoter interface {
	Promote(ctx context.Context, username string) error
}

// promoteAdmin returns the process exit code.
func promoteAdmin(ctx context.Context, p promoter, username string, log *zap.Logger) int {
	if err := p.Promote(ctx, username); err != nil {
		log.Error("promote failed", zap.String("username", username), zap.Error(err))
		return 1
	}
	log.Info("promoted to admin", zap.String("username", username))
	return 0
}
