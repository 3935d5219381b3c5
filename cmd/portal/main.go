package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-portal/internal/api/http"
	"github.com/spec-kit/ticket-portal/internal/api/http/handlers"
	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/config"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/observability"
	"github.com/spec-kit/ticket-portal/internal/persistence"
	"github.com/spec-kit/ticket-portal/internal/repository"
	"github.com/spec-kit/ticket-portal/internal/service"
	"github.com/spec-kit/ticket-portal/internal/worker"
)

type options struct {
	envFiles      []string
	migrationsDir string
	migrateOnly   bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, opts, logger); err != nil {
		logger.Fatal("portal stopped", zap.Error(err))
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("portal", pflag.ContinueOnError)
	flagSet.StringArrayVar(&opts.envFiles, "env-file", nil, "env file to load before reading the environment (repeatable; default .env)")
	flagSet.StringVar(&opts.migrationsDir, "migrations-dir", persistence.MigrationsDir, "directory holding *.sql migrations")
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply migrations and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func run(cfg *config.Config, opts options, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations || opts.migrateOnly {
		if err := persistence.RunMigrations(ctx, pg.Pool, opts.migrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	if opts.migrateOnly {
		return nil
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var eventRepo repository.SessionEventRepository
	if pg.Enabled() {
		eventRepo = repository.NewSessionEventRepository(pg.Pool)
	}
	worker.StartAuditWorker(service.NewAuditService(dispatcher, eventRepo, logger))

	health := map[string]handlers.Pinger{"postgres": pg}

	var (
		sessions repository.SessionRepository
		pages    repository.PageCache
	)
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		logger.Warn("sessions kept in memory; they are lost on restart")
		sessions = repository.NewMemorySessionRepository()
		health["redis"] = (*persistence.Redis)(nil)
	default:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sessions = repository.NewRedisSessionRepository(redis.Client, cfg.Session.KeyPrefix, cfg.Session.IdleTTL())
		if ttl := cfg.Session.PageCacheTTL(); ttl > 0 {
			pages = repository.NewRedisPageCache(redis.Client, cfg.Session.PageCachePrefix, ttl)
		}
		health["redis"] = redis
	}

	backendClient := backend.NewClient(cfg.Backend, logger, metrics)
	terminator := auth.NewTerminator(sessions, pages, dispatcher, logger)
	cookie := auth.NewSessionCookie(cfg.Session)

	gate := auth.NewGate(cfg.Gate, auth.GateDependencies{
		Sessions:   sessions,
		Validator:  backendClient,
		Terminator: terminator,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Backend:    backendClient,
		Sessions:   sessions,
		Terminator: terminator,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	pageService := service.NewPageService(service.PageDependencies{
		Backend:    backendClient,
		Sessions:   sessions,
		Pages:      pages,
		Terminator: terminator,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Auth:           handlers.NewAuthHandler(authService, handlers.NewValidator(), cookie),
		Pages:          handlers.NewPagesHandler(pageService, cookie),
		Gate:           handlers.NewGateHandler(gate, authService, cookie),
		GateMiddleware: auth.NewGateMiddleware(gate, cookie, logger),
		Metrics:        metrics,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portal listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.String("session_store", cfg.Session.Store),
		)
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.Shutdown()
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
