package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/petnice/clinic-dashboard/internal/api/http"
	"github.com/petnice/clinic-dashboard/internal/api/http/handlers"
	"github.com/petnice/clinic-dashboard/internal/api/http/views"
	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/clinicapi"
	"github.com/petnice/clinic-dashboard/internal/config"
	"github.com/petnice/clinic-dashboard/internal/events"
	"github.com/petnice/clinic-dashboard/internal/observability"
	"github.com/petnice/clinic-dashboard/internal/persistence"
	"github.com/petnice/clinic-dashboard/internal/repository"
	"github.com/petnice/clinic-dashboard/internal/service"
	"github.com/petnice/clinic-dashboard/internal/session"
	"github.com/petnice/clinic-dashboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dependencies := map[string]handlers.Pinger{}

	var backend session.Backend
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redis, err := persistence.NewRedis(ctx, cfg.Redis, true, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		backend = session.NewRedisBackend(redis.Client)
		dependencies["redis"] = redis
	case config.SessionBackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		backend = session.NewPostgresBackend(pg.PoolHandle())
		dependencies["postgres"] = pg
	default:
		backend = session.NewMemoryBackend()
	}
	logger.Info("session backend selected", zap.String("backend", cfg.Session.Backend))

	decoder := auth.NewTokenDecoder(cfg.ClinicAPI.JWTSecret)
	if !decoder.Verifies() {
		logger.Warn("CLINIC_API_JWT_SECRET not set; token signatures are not verified")
	}
	store := session.NewStore(backend, decoder, logger,
		session.WithSealer(session.NewSealer(cfg.Session.Secret)),
		session.WithFallbackTTL(cfg.Session.FallbackTTL()),
	)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))
	sweeperDone := worker.StartSessionSweeper(ctx, store.Backend(), cfg.Session.SweepInterval(), metrics, logger)

	client := clinicapi.New(cfg.ClinicAPI, metrics, logger)
	authService := service.NewAuthService(service.AuthDependencies{
		API:        client,
		Sessions:   store,
		Decoder:    decoder,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	cookie := handlers.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	screens := handlers.NewScreens(handlers.ScreenServices{
		Owners:         service.NewRecordService(repository.NewOwnerRepository(client), dispatcher, logger),
		Patients:       service.NewRecordService(repository.NewPatientRepository(client), dispatcher, logger),
		Appointments:   service.NewRecordService(repository.NewAppointmentRepository(client), dispatcher, logger),
		MedicalRecords: service.NewRecordService(repository.NewMedicalRecordRepository(client), dispatcher, logger),
		Users:          service.NewRecordService(repository.NewUserRepository(client), dispatcher, logger),
	}, handlers.ScreenDeps{
		Auth:         authService,
		Cookie:       cookie,
		SnapshotSize: cfg.Session.SnapshotSize,
		SnapshotTTL:  cfg.Session.SnapshotTTL(),
		Logger:       logger,
	})
	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		Views:       views.NewEngine(),
		ReadTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService, cookie),
		Dashboard:      handlers.NewDashboardHandler(screens.Cards()),
		Screens:        screens,
		Session:        auth.NewSessionMiddleware(authService, cfg.Session.CookieName),
		Metrics:        metrics.Handler(),
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	cancel()
	<-sweeperDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
