package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p2p-ramp.backend/internal/config"
	"p2p-ramp.backend/internal/domain/entities"
	domainRepos "p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/internal/infrastructure/jobs"
	"p2p-ramp.backend/internal/infrastructure/messaging"
	"p2p-ramp.backend/internal/infrastructure/repositories"
	"p2p-ramp.backend/internal/interfaces/http/handlers"
	"p2p-ramp.backend/internal/interfaces/http/middleware"
	"p2p-ramp.backend/internal/usecases"
	"p2p-ramp.backend/pkg/jwt"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
	"p2p-ramp.backend/pkg/redis"
)

type app struct {
	router    *gin.Engine
	expiryJob *jobs.TransactionExpiryJob
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn(context.Background(), "Shutdown step failed", zap.Error(err))
		}
	}
}

// buildApp wires repositories, usecases and handlers over db.
func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB, redisEnabled bool) (*app, error) {
	a := &app{}
	m := metrics.New()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	traderRepo := repositories.NewTraderRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	uow := repositories.NewUnitOfWork(db)
	locks := keylock.New()

	var publisher domainRepos.EventPublisher = messaging.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, kafkaPublisher.Close)
		publisher = kafkaPublisher
		logger.Info(ctx, "Publishing transaction events to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Settings
	settings := usecases.NewSettingsStore(settingsRepo, m)
	seed := entities.Settings{
		CommissionRate:       cfg.Exchange.DefaultCommissionRate,
		ExchangeRate:         cfg.Exchange.DefaultExchangeRate,
		DepositWalletAddress: cfg.Exchange.DefaultDepositWallet,
	}
	if err := settings.Load(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if redisEnabled {
		notifier := messaging.NewRedisSettingsNotifier()
		settings.SetNotifier(notifier)
		if err := notifier.Listen(ctx, settings); err != nil {
			logger.Warn(ctx, "Settings change listener not started", zap.Error(err))
		}
	}

	// Usecases
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)
	guard := usecases.NewAccountGuard(userRepo, traderRepo)
	ledger := usecases.NewLedgerService(traderRepo, uow, locks, m)
	cards := usecases.NewCardRegistry(cardRepo, txRepo, guard, uow, locks)
	engine := usecases.NewAllocationEngine(settings, cards, guard, cardRepo, traderRepo, txRepo, uow, locks, publisher, m,
		usecases.AllocationPolicy{
			ReservationTTL:     cfg.Exchange.ReservationTTL,
			OneOpenPerCurrency: cfg.Exchange.OneOpenPerCurrency,
			DefaultCurrency:    cfg.Exchange.DefaultCurrency,
		})
	stateMachine := usecases.NewTransactionStateMachine(txRepo, cardRepo, guard, ledger, uow, locks, publisher, m)
	authUsecase := usecases.NewAuthUsecase(userRepo, traderRepo, jwtService)
	traderUsecase := usecases.NewTraderUsecase(userRepo, traderRepo, guard, uow)
	reporting := usecases.NewReportingUsecase(userRepo, traderRepo, cardRepo, txRepo, guard)

	a.expiryJob = jobs.NewTransactionExpiryJob(stateMachine, cfg.Exchange.SweepInterval, cfg.Exchange.SweepBatch)

	// Handlers
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisEnabled {
		checks["redis"] = func(ctx context.Context) error {
			return redis.GetClient().Ping(ctx).Err()
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(m))
	applyCORSMiddleware(r)

	commonHandler := handlers.NewCommonHandler(settings, reporting, checks)
	registerOpsRoutes(r, commonHandler, m)
	registerAPIRoutes(r, routeDeps{
		authHandler:   handlers.NewAuthHandler(authUsecase),
		userHandler:   handlers.NewUserHandler(engine, stateMachine, reporting),
		traderHandler: handlers.NewTraderHandler(traderUsecase, cards, stateMachine, reporting),
		adminHandler: handlers.NewAdminHandler(handlers.AdminDeps{
			Settings:     settings,
			Traders:      traderUsecase,
			Users:        authUsecase,
			Ledger:       ledger,
			Guard:        guard,
			Transactions: reporting,
			Canceller:    stateMachine,
		}),
		commonHandler:  commonHandler,
		authMiddleware: middleware.AuthMiddleware(jwtService),
	})

	a.router = r
	return a, nil
}
