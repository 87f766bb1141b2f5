package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Vitalis058/school-sms-backend-sub002/config"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/api/handler"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/api/router"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/permission"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/repository"
	"github.com/Vitalis058/school-sms-backend-sub002/internal/service"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/database"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/jwt"
	applogger "github.com/Vitalis058/school-sms-backend-sub002/pkg/logger"
	"github.com/Vitalis058/school-sms-backend-sub002/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, &cfg.Log, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，排课只依赖事务与约束）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，排课锁 / 权限缓存 / 限流 / Token 黑名单将不可用", zap.Error(err))
		rdb = nil
	}

	// 接口变量只在 Redis 可用时赋值，避免携带 nil 指针的非 nil 接口
	var (
		locker  service.Locker
		backend permission.Backend
		pinger  handler.Pinger
	)
	if rdb != nil {
		locker, backend, pinger = rdb, rdb, rdb
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	rules := permission.NewRuleCache(backend, repo.Permission, cfg.Scheduling.PermissionCacheTTL, logger)
	svc := service.NewService(cfg, repo, locker, rules, logger)
	h := handler.NewHandler(svc, repo, pinger)

	// 7. 初始化路由
	engine, err := router.Setup(cfg, h, router.Deps{
		JWT:       jwtMgr,
		Redis:     rdb,
		Evaluator: permission.NewEvaluator(rules),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
