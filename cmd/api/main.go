package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gram-portal/internal/api/http"
	"github.com/spec-kit/gram-portal/internal/api/http/handlers"
	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/observability"
	"github.com/spec-kit/gram-portal/internal/persistence"
	"github.com/spec-kit/gram-portal/internal/repository"
	"github.com/spec-kit/gram-portal/internal/seed"
	"github.com/spec-kit/gram-portal/internal/service"
	"github.com/spec-kit/gram-portal/internal/session"
	"github.com/spec-kit/gram-portal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users        repository.UserRepository
	resets       repository.PasswordResetRepository
	services     repository.ServiceRepository
	applications repository.ApplicationRepository
	history      repository.ApplicationHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	repos := buildRepositories(pool)

	healthDeps := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pool != nil {
		healthDeps["postgres"] = pg
	}

	memorySessions := session.NewMemoryStore()
	var (
		sessions session.Store          = memorySessions
		sweeper  service.SessionSweeper = memorySessions
	)
	if cfg.Session.Backend == config.SessionBackendRedis {
		sweeper = nil
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sessions = session.NewRedisStore(redis.Client, cfg.Session.KeyPrefix)
		healthDeps["redis"] = redis
	}

	if cfg.Seed.DemoData {
		seeder := seed.NewSeeder(seed.Dependencies{
			UserRepo:        repos.users,
			ServiceRepo:     repos.services,
			ApplicationRepo: repos.applications,
			HistoryRepo:     repos.history,
			BcryptCost:      cfg.Auth.BcryptCost,
			Logger:          logger,
		})
		if err := seeder.Run(ctx); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	if len(cfg.Kafka.Brokers) > 0 {
		forwarder := events.NewKafkaForwarder(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		forwarder.Register(dispatcher)
		defer forwarder.Close() //nolint:errcheck
		logger.Info("forwarding events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(ctx, notificationService)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          repos.users,
		PasswordResetRepo: repos.resets,
		Sessions:          sessions,
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ServiceRepo:     repos.services,
		ApplicationRepo: repos.applications,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: repos.applications,
		ServiceRepo:     repos.services,
		HistoryRepo:     repos.history,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	accountService := service.NewAccountService(*cfg, service.AccountDependencies{
		UserRepo: repos.users,
		Logger:   logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		UserRepo:        repos.users,
		ServiceRepo:     repos.services,
		ApplicationRepo: repos.applications,
	})

	var scheduler *worker.Scheduler
	if cfg.Scheduler.Enabled {
		maintenance := service.NewMaintenanceService(service.MaintenanceDependencies{
			PasswordResetRepo: repos.resets,
			ApplicationRepo:   repos.applications,
			Sessions:          sweeper,
			Metrics:           metrics,
			Logger:            logger,
			StaleAfter:        cfg.Scheduler.StaleAfter(),
		})
		jobs := []worker.Job{
			{Name: "purge_password_resets", Run: maintenance.PurgePasswordResets},
			{Name: "purge_sessions", Run: maintenance.PurgeSessions},
			{Name: "scan_stale_applications", Run: maintenance.ScanStaleApplications},
		}
		scheduler, err = worker.NewScheduler(cfg.Scheduler.MaintenanceSpec, logger, jobs...)
		if err != nil {
			logger.Fatal("failed to configure scheduler", zap.Error(err))
		}
		scheduler.RunNow(jobs...)
		scheduler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: !cfg.App.IsDev(),
	})
	httptransport.RegisterMiddlewares(app, cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Auth:                handlers.NewAuthHandler(authService, cfg.App.IsDev()),
		Users:               handlers.NewUsersHandler(authService, accountService),
		Services:            handlers.NewServicesHandler(catalogService),
		Applications:        handlers.NewApplicationsHandler(applicationService),
		Dashboards:          handlers.NewDashboardHandler(dashboardService),
		Authenticator:       auth.NewAuthenticator(authService.TokenManager(), sessions, repos.users),
		Metrics:             metrics,
		AuthRateLimitPerMin: cfg.App.AuthRateLimitPerMin,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	cancel()
}

// buildRepositories picks Postgres repositories when a pool is available and
// the in-memory store otherwise.
func buildRepositories(pool *pgxpool.Pool) repositories {
	if pool == nil {
		store := repository.NewMemoryStore()
		return repositories{
			users:        store.Users(),
			resets:       store.PasswordResets(),
			services:     store.Services(),
			applications: store.Applications(),
			history:      store.History(),
		}
	}
	return repositories{
		users:        repository.NewUserRepository(pool),
		resets:       repository.NewPasswordResetRepository(pool),
		services:     repository.NewServiceRepository(pool),
		applications: repository.NewApplicationRepository(pool),
		history:      repository.NewApplicationHistoryRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
