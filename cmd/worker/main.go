// Package main - точка входа для фоновых процессов (Worker) CyberGuard Academy Hub.
//
// Worker отвечает за периодические задачи:
// - Пересчёт лидерборда и публикация изменений рангов
// - Ежедневный аудит стриков (сброс прерванных серий)
// - Обрезка старых уведомлений в лентах аккаунтов
// - Детектирование неактивных (dormant) аккаунтов
// - Переписывание снапшотов прогресса в key-value хранилище
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/config"

	// Infrastructure layer
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/messaging"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/persistence/postgres"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/persistence/redis"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/scheduler"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/scheduler/jobs"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/service"

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
	slogLog.Info("starting CyberGuard Academy Hub Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	if !cfg.Scheduler.Enabled {
		slogLog.Warn("scheduler is disabled, worker has nothing to do")
		return nil
	}

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
	// 4. ЗАПУСК МИГРАЦИЙ (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slogLog.Info("database schema is up to date")

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
	ranking := redis.NewLeaderboardRanking(redisCache, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing repositories...")
	accountRepo := postgres.NewAccountRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	// Мост через Redis Pub/Sub: события фоновых задач (сброс стриков,
	// пересчёт лидерборда) доставляются и обработчикам сервера.
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

	// Задачи-аудиторы публикуют события пачками; буфер сглаживает всплеск.
	jobBus := messaging.NewBufferedEventBus(messaging.BufferedEventBusConfig{
		Inner:         eventBus,
		FlushInterval: time.Second,
		Logger:        slogLog,
	})
	defer func() { _ = jobBus.Close() }()

	notificationSvc := service.NewNotificationDispatcher(
		notificationRepo, stateStore, eventBus, cfg.Progression.FeedCap, appLog)
	refresher := service.NewLeaderboardRefresher(accountRepo, ranking, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. РЕГИСТРАЦИЯ ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("registering scheduled jobs...")

	schedulerCfg := scheduler.DefaultSchedulerConfig()
	schedulerCfg.Logger = slogLog
	sched := scheduler.NewScheduler(schedulerCfg)

	// Пересчёт лидерборда
	rebuildJob := jobs.NewRebuildLeaderboardJob(
		refresher, ranking, jobBus, slogLog, jobs.DefaultRebuildLeaderboardConfig())
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return fmt.Errorf("failed to register leaderboard job: %w", err)
	}

	// Ежедневный аудит стриков (UTC)
	auditCron, err := scheduler.ParseCronExpression(
		fmt.Sprintf("%d %d * * *", cfg.Scheduler.StreakAuditMinute, cfg.Scheduler.StreakAuditHour))
	if err != nil {
		return fmt.Errorf("invalid streak audit schedule: %w", err)
	}
	streakJob := jobs.NewStreakAuditJob(
		accountRepo, notificationSvc, jobBus, slogLog, jobs.DefaultStreakAuditConfig())
	if err := sched.Register(streakJob, auditCron); err != nil {
		return fmt.Errorf("failed to register streak audit job: %w", err)
	}

	// Обрезка лент уведомлений
	pruneCfg := jobs.DefaultPruneNotificationsConfig()
	pruneCfg.Keep = cfg.Progression.FeedCap
	pruneJob := jobs.NewPruneNotificationsJob(accountRepo, notificationRepo, slogLog, pruneCfg)
	if err := sched.Register(pruneJob, scheduler.NewIntervalSchedule(cfg.Scheduler.PruneInterval)); err != nil {
		return fmt.Errorf("failed to register prune job: %w", err)
	}

	// Детектирование неактивных аккаунтов
	dormantCfg := jobs.DefaultDetectDormantConfig()
	dormantCfg.DormantAfterDays = cfg.Progression.DormantAfterDays
	dormantJob := jobs.NewDetectDormantJob(accountRepo, jobBus, slogLog, dormantCfg)
	if err := sched.Register(dormantJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectDormantInterval)); err != nil {
		return fmt.Errorf("failed to register dormant job: %w", err)
	}

	// Переписывание снапшотов прогресса
	snapshotJob := jobs.NewSnapshotFlushJob(
		accountRepo, stateStore, slogLog, jobs.DefaultSnapshotFlushConfig())
	if err := sched.Register(snapshotJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SnapshotFlushInterval)); err != nil {
		return fmt.Errorf("failed to register snapshot job: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ЗАПУСК SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slogLog.Info("CyberGuard Academy Hub Worker is running",
		"leaderboard_interval", cfg.Scheduler.RebuildLeaderboardInterval.String(),
		"streak_audit", auditCron.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	slogLog.Info("received shutdown signal", "signal", sig.String())

	// Начинаем graceful shutdown
	slogLog.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if err := sched.Stop(); err != nil {
		slogLog.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

	slogLog.Info("shutdown completed successfully")
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
