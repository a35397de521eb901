// Package main - точка входа для API сервера CyberGuard Academy Hub.
//
// Сервер обслуживает REST API движка обучения: регистрация и вход,
// прохождение миссий и игр, прогресс, достижения, лидерборд и лента
// уведомлений. Вся запись идёт через command handlers, чтение - через
// query handlers.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: реализация репозиториев, кеши, event bus
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/config"

	// Application layer
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/command"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/eventhandler"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/query"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"

	// Domain layer
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/messaging"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/persistence/postgres"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/persistence/redis"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/cyberguard-hub/cyberguard-academy-hub/internal/interface/http"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/interface/http/handlers"

	// Packages
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog := setupSlog(cfg)
	slogLog.Info("starting CyberGuard Academy Hub API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// Структурный логгер для application/interface слоёв
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("connecting to database...")
	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return nil, retry.Retryable(err)
		}
		return conn, nil
	},
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			slogLog.Warn("database not ready, retrying",
				"attempt", attempt, "delay", delay.String(), "error", err.Error())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		slogLog.Info("closing database connection...")
		dbConn.Close()
	}()
	slogLog.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		slogLog.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		slogLog.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("connecting to Redis...")
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	redisCache, err := redis.NewCache(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		slogLog.Info("closing Redis connection...")
		_ = redisCache.Close()
	}()
	slogLog.Info("Redis connection established", "addr", redisCfg.Addr())

	stateStore := redis.NewStateStore(redisCache, appLog)
	accountCache := redis.NewAccountCache(redisCache, appLog)
	ranking := redis.NewLeaderboardRanking(redisCache, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing repositories...")
	accountRepo := postgres.NewAccountRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS И DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	// События моста через Redis Pub/Sub: worker и server видят события
	// друг друга (например, сброс стрика воркером доходит до обработчиков
	// уведомлений сервера).
	slogLog.Info("initializing event bus...")
	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = slogLog
	eventBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         messaging.NewCacheRedisClient(redisCache),
		LocalBusConfig: localBusCfg,
		Logger:         slogLog,
	})
	if err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	defer func() {
		slogLog.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherCfg := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherCfg.Logger = slogLog
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(slogLog))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ СЕРВИСОВ И САГ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing application services...")
	idGenerator := service.NewIDGenerator()
	notificationSvc := service.NewNotificationDispatcher(
		notificationRepo, stateStore, eventBus, cfg.Progression.FeedCap, appLog)

	achievementFlow := saga.NewAchievementFlowSaga(
		accountRepo, achievementRepo, sessionRepo, stateStore,
		notificationSvc, eventBus, appLog,
		saga.DefaultAchievementFlowConfig())

	onboardingCfg := saga.OnboardingSagaConfig{
		BcryptCost:     cfg.Progression.BcryptCost,
		WelcomeEnabled: cfg.Progression.WelcomeEnabled && cfg.Features.IsEnabled(config.FeatureOnboardingWelcome, nil),
	}
	onboarding := saga.NewOnboardingSaga(
		accountRepo, ranking, notificationSvc, stateStore,
		eventBus, idGenerator, appLog, onboardingCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("registering event handlers...")

	levelUpHandler := eventhandler.NewOnLevelUpHandler(catalogRepo, notificationSvc, appLog)
	if err := dispatcher.Register(shared.EventLevelUp, "on_level_up", levelUpHandler.HandlerFunc()); err != nil {
		return fmt.Errorf("failed to register level-up handler: %w", err)
	}

	riskChangedHandler := eventhandler.NewOnRiskChangedHandler(notificationSvc, appLog)
	if err := dispatcher.Register(shared.EventRiskScoreChanged, "on_risk_changed", riskChangedHandler.HandlerFunc()); err != nil {
		return fmt.Errorf("failed to register risk handler: %w", err)
	}

	progressChangedHandler := eventhandler.NewOnProgressChangedHandler(accountCache, appLog)
	for _, eventType := range progressChangedHandler.WatchedEvents() {
		if err := dispatcher.Register(eventType, "on_progress_changed", progressChangedHandler.HandlerFunc()); err != nil {
			return fmt.Errorf("failed to register progress handler: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ИНИЦИАЛИЗАЦИЯ COMMAND / QUERY HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing application layer...")

	completeMissionCmd := command.NewCompleteMissionHandler(
		accountRepo, catalogRepo, sessionRepo, stateStore, ranking,
		notificationSvc, eventBus, achievementFlow, idGenerator, appLog)
	completeGameCmd := command.NewCompleteGameHandler(
		accountRepo, catalogRepo, sessionRepo, stateStore, ranking,
		notificationSvc, eventBus, achievementFlow, idGenerator, appLog)
	recordHelpCmd := command.NewRecordHelpHandler(
		accountRepo, sessionRepo, achievementFlow, idGenerator, appLog)
	adjustRiskCmd := command.NewAdjustRiskHandler(
		accountRepo, stateStore, notificationSvc, eventBus, appLog)
	resetProgressCmd := command.NewResetProgressHandler(
		accountRepo, achievementRepo, sessionRepo, notificationRepo,
		stateStore, stateStore, ranking, notificationSvc, eventBus, appLog)
	markNotificationsCmd := command.NewMarkNotificationsHandler(notificationSvc, appLog)

	getProgressQuery := query.NewGetProgressHandler(accountRepo, accountCache, appLog)
	getContentQuery := query.NewGetAccessibleContentHandler(accountRepo, catalogRepo, appLog)
	getAchievementsQuery := query.NewGetAchievementsHandler(achievementRepo, appLog)
	getLeaderboardQuery := query.NewGetLeaderboardHandler(ranking, appLog)
	getNotificationsQuery := query.NewGetNotificationsHandler(notificationSvc, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	healthChecker.AddCheck("state_store", handlers.NewStateStoreCheck(stateStore))

	// ─────────────────────────────────────────────────────────────────────────
	// 12. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.AuthRateLimitPerMinute = cfg.HTTP.AuthRateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeys = cfg.HTTP.APIKeys

	httpDeps := httpserver.Dependencies{
		Onboarding:        onboarding,
		CompleteMission:   completeMissionCmd,
		CompleteGame:      completeGameCmd,
		RecordHelp:        recordHelpCmd,
		AdjustRisk:        adjustRiskCmd,
		ResetProgress:     resetProgressCmd,
		MarkNotifications: markNotificationsCmd,
		GetProgress:       getProgressQuery,
		GetContent:        getContentQuery,
		GetAchievements:   getAchievementsQuery,
		GetLeaderboard:    getLeaderboardQuery,
		GetNotifications:  getNotificationsQuery,
		Logger:            appLog,
		HealthChecker:     healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. ЗАПУСК СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		slogLog.Info("starting HTTP server", "address", httpConfig.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("CyberGuard Academy Hub API is running",
		"http_address", httpConfig.Address(),
	)

	// Ожидаем сигнал завершения или ошибку
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogLog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slogLog.Error("service error", "error", err)
		return err
	}

	// Начинаем graceful shutdown
	slogLog.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// 1. Останавливаем HTTP сервер (перестаём принимать новые запросы)
	slogLog.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slogLog.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// 2. Dispatcher, event bus и база данных закроются через defer

	if shutdownErr != nil {
		slogLog.Warn("shutdown completed with errors")
	} else {
		slogLog.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog настраивает структурированное логирование для инфраструктуры.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
