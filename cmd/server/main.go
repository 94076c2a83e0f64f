package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p2p-ramp.backend/internal/config"
	"p2p-ramp.backend/internal/infrastructure/datasources"
	"p2p-ramp.backend/internal/infrastructure/models"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = datasources.Open
	runServer  = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	redisEnabled := true
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		// idempotency and settings fan-out need Redis; allocation does not
		logger.Warn(ctx, "Redis unavailable, continuing without it", zap.Error(err))
		_ = redis.Close()
		redis.SetClient(nil)
		redisEnabled = false
	} else {
		defer redis.Close()
		logger.Info(ctx, "Redis initialized")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database, cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	if err := models.Migrate(db, cfg.Exchange.OneOpenPerCurrency); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Database ready", zap.String("driver", cfg.Database.Driver))

	app, err := buildApp(ctx, cfg, db, redisEnabled)
	if err != nil {
		return err
	}
	defer app.close()

	go app.expiryJob.Start(ctx)
	defer app.expiryJob.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "P2P ramp backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("routes", len(app.router.Routes())),
	)

	if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
