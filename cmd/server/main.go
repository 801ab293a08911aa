package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"Quad/internal/api/middleware"
	"Quad/internal/api/routes"
	"Quad/internal/config"
	"Quad/internal/db/migrations"
	postgresRepo "Quad/internal/db/postgres"
	"Quad/internal/ops"
	"Quad/internal/realtime"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := ops.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := waitForDatabase(ctx, db, logger); err != nil {
		return err
	}
	logger.Info("connected to database")

	if err := migrations.Up(db, cfg.Database.MigrationsDir); err != nil {
		return err
	}
	logger.Info("migrations completed successfully")

	// Post changes: Postgres NOTIFY -> hub -> websocket relay
	hub := realtime.NewHub(ops.WithComponent(logger, "hub"))
	source := realtime.NewPostgresSource(cfg.Database.URL, cfg.Realtime.Channel, hub, ops.WithComponent(logger, "listener"))
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- source.Run(ctx)
	}()

	viewer := middleware.NewViewerMiddleware(middleware.NewCookieStore(cfg.Server.SessionSecret), cfg.Server.TrustViewerHeader)
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)
	defer rateLimiter.Stop()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(viewer.LoadViewer)
	r.Use(rateLimiter.Middleware)

	likeRepo := postgresRepo.NewLikeRepository(db)
	commentRepo := postgresRepo.NewCommentRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)
	userRepo := postgresRepo.NewUserRepository(db)

	routes.RegisterLikeRoutes(r, likeRepo, viewer)
	routes.RegisterCommentRoutes(r, commentRepo, viewer)
	routes.RegisterPostRoutes(r, postRepo, cfg.Feed.PageSize, viewer)
	routes.RegisterIdentityRoutes(r, userRepo, viewer)
	routes.RegisterRealtimeRoutes(r, hub, ops.WithComponent(logger, "relay"))
	routes.RegisterHealthRoutes(r, func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("post change listener failed: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// waitForDatabase pings with exponential backoff so the server can start alongside Postgres
func waitForDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	backoff := retry.WithMaxRetries(8, retry.NewExponential(500*time.Millisecond))
	backoff = retry.WithCappedDuration(5*time.Second, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
