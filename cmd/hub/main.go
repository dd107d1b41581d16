// Package main - точка входа HTTP-сервиса Raksha360 Preparedness Hub.
//
// Сервис ведёт сессии студентов: прогресс по модулям готовности к ЧС,
// уровни, значки, конструктор аварийного набора и рейтинг класса.
//
// Слои:
// - Domain: чистые правила (progress, level, badge, kit, leaderboard)
// - Application: сессии, команды, запросы, обработчики событий
// - Infrastructure: журналы, табло, шина событий, каталог контента
// - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raksha360/preparedness-hub/config"

	// Application layer
	"github.com/raksha360/preparedness-hub/internal/application/command"
	"github.com/raksha360/preparedness-hub/internal/application/eventhandler"
	"github.com/raksha360/preparedness-hub/internal/application/query"
	"github.com/raksha360/preparedness-hub/internal/application/session"

	// Domain
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/raksha360/preparedness-hub/internal/infrastructure/catalog"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/messaging"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/memory"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/postgres"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/redis"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/sqlite"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/scheduler"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/scheduler/jobs"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/raksha360/preparedness-hub/internal/interface/http"
	"github.com/raksha360/preparedness-hub/internal/interface/http/handlers"

	// Packages
	"github.com/raksha360/preparedness-hub/pkg/logger"
	"github.com/raksha360/preparedness-hub/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// eventBus - шина событий с закрытием.
type eventBus interface {
	shared.EventBus
	Close() error
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
	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting preparedness hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("journal", string(cfg.Journal.Driver)),
		logger.Any("features", cfg.Features.Enabled()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КОНТЕНТ
	// ─────────────────────────────────────────────────────────────────────────
	bundle, err := catalog.LoadFile(cfg.Rules.ContentPath, nil)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}
	log.Info("content loaded",
		logger.Int("modules", len(bundle.Content.Modules)),
		logger.Int("badges", len(bundle.Content.Badges.Badges())),
		logger.Int("kit_items", bundle.Content.Kit.Len()),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЖУРНАЛ СЕССИЙ
	// ─────────────────────────────────────────────────────────────────────────
	journal, closeJournal, err := openJournal(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeJournal()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS: ТАБЛО КЛАССОВ И ШИНА (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		scores      leaderboard.ScoreSource = memory.NewScoreboard()
		redisClient *redis.Client
	)
	if !cfg.Redis.Disabled {
		redisClient, err = connectRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing Redis connection...")
			_ = redisClient.Close()
		}()
		health.AddCheck("redis", handlers.NewPingCheck(redisClient))
		scores = service.NewScoreboardService(redis.NewScoreboard(redisClient), nil, log)
	}

	bus, err := newEventBus(cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	settings := session.Settings{
		MinClassLevel:   cfg.Rules.LeaderboardMinClassLevel,
		NextBadgesLimit: cfg.Rules.NextBadgesLimit,
	}
	registry := session.NewRegistry(journal, bundle.Content, settings)

	if cfg.Features.IsEnabled(config.FeatureScoreboardSync) {
		if err := eventhandler.NewOnScoreChangedHandler(scores, log).Register(bus); err != nil {
			return fmt.Errorf("register score handler: %w", err)
		}
	}
	if cfg.Features.IsEnabled(config.FeatureAuditLog) {
		if err := eventhandler.NewAuditLogHandler(log).Register(bus); err != nil {
			return fmt.Errorf("register audit handler: %w", err)
		}
	}

	if cfg.App.SeedDemoRoster {
		res, err := command.NewSeedRosterHandler(scores, log).Handle(ctx, command.SeedRosterCommand{
			ClassID: bundle.Roster.ClassID,
			Records: bundle.Roster.Records,
		})
		if err != nil {
			// Пустое табло не мешает работе сессий.
			log.Warn("failed to seed demo roster", logger.Err(err))
		} else {
			log.Info("demo roster",
				logger.ClassID(bundle.Roster.ClassID),
				logger.Int("seeded", res.Seeded),
				logger.Bool("skipped", res.Skipped),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = startScheduler(ctx, cfg, registry, scores, log)
		if err != nil {
			return err
		}
	}

	deps := httpserver.Dependencies{
		StartSession: command.NewStartSessionHandler(registry, scores, log),
		ApplyEvent: command.NewApplyEventHandler(registry, bus, log,
			command.WithMilestones(cfg.Features.IsEnabled(config.FeatureMilestoneTracking)),
		),
		GetDashboard:   query.NewGetDashboardHandler(registry),
		GetKit:         query.NewGetKitHandler(registry),
		GetLeaderboard: query.NewGetLeaderboardHandler(registry, scores),
		Features:       cfg.Features,
		HealthChecker:  health,
		Logger:         log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	server := httpserver.NewServer(httpserver.ConfigFrom(cfg.HTTP, cfg.App.Version), deps)
	errCh := server.StartAsync()

	log.Info("preparedness hub is running", logger.String("http_address", cfg.HTTP.Addr()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	if cfg.Observability.LogFormat == string(logger.FormatConsole) {
		opts.Format = logger.FormatConsole
	}
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}

// openJournal открывает журнал по JOURNAL_DRIVER.
func openJournal(ctx context.Context, cfg *config.Config, log *logger.Logger, health handlers.HealthChecker) (session.Journal, func(), error) {
	switch cfg.Journal.Driver {
	case config.JournalPostgres:
		log.Info("connecting to database...")
		r := retry.Startup(cfg.Database.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready",
				logger.Int("attempt", attempt),
				logger.Duration("retry_in", delay),
				logger.Err(err),
			)
		})

		pgCfg := postgres.DefaultConfig(cfg.Database.URL)
		pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		var conn *postgres.Connection
		err := r.Do(ctx, func(ctx context.Context) error {
			var err error
			conn, err = postgres.NewConnection(ctx, pgCfg)
			return err
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		log.Info("running database migrations...")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		health.AddCheck("postgres", handlers.NewPingCheck(conn))

		return postgres.NewJournalRepository(conn), func() {
			log.Info("closing database connection...")
			conn.Close()
		}, nil

	case config.JournalSQLite:
		j, err := sqlite.Open(cfg.Journal.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite journal: %w", err)
		}
		log.Info("sqlite journal opened", logger.String("path", cfg.Journal.SQLitePath))
		return j, func() { _ = j.Close() }, nil

	case config.JournalMemory:
		log.Warn("using in-memory journal: sessions are lost on restart")
		return memory.NewJournal(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown journal driver %q", cfg.Journal.Driver)
}

// connectRedis подключается к Redis с повторами.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	log.Info("connecting to Redis...")

	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	r := retry.Startup(cfg.Database.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		log.Warn("redis not ready",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Err(err),
		)
	})

	var client *redis.Client
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		client, err = redis.NewClient(ctx, redisCfg)
		if err != nil && !errors.Is(err, redis.ErrConnection) {
			// Bad URL or options: retrying will not help.
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Redis connection established")
	return client, nil
}

// newEventBus создаёт шину: через Redis, если он включён, иначе локальную.
func newEventBus(cfg *config.Config, client *redis.Client, log *logger.Logger) (eventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.AsyncMode = cfg.EventBus.Async
	local.WorkerPoolSize = cfg.EventBus.Workers
	local.Logger = log

	if client == nil {
		return messaging.NewInMemoryEventBus(local), nil
	}

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         redis.NewPubSub(client),
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	return bus, nil
}

// startScheduler регистрирует фоновые задачи и запускает планировщик.
func startScheduler(ctx context.Context, cfg *config.Config, registry *session.Registry, scores leaderboard.ScoreSource, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.Config{Logger: log})

	if err := sched.Register(
		jobs.NewEvictIdleSessionsJob(registry, cfg.Scheduler.SessionIdleTTL, log),
		scheduler.Every(cfg.Scheduler.SessionSweepInterval),
	); err != nil {
		return nil, fmt.Errorf("register eviction job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureScoreboardSync) {
		if err := sched.Register(
			jobs.NewSyncScoreboardJob(registry, scores, log),
			scheduler.Every(cfg.Scheduler.ScoreboardSyncInterval),
		); err != nil {
			return nil, fmt.Errorf("register scoreboard job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	return sched, nil
}
