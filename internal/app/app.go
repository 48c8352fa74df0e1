package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/friendgraph/backend/internal/config"
	"github.com/friendgraph/backend/internal/db"
	"github.com/friendgraph/backend/internal/handlers"
	"github.com/friendgraph/backend/internal/httpserver"
	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/middleware"
	"github.com/friendgraph/backend/internal/repositories"
)

const sessionPurgeInterval = time.Hour

// Run bootstraps the friendgraph backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, seed, or purge-sessions")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	case "purge-sessions":
		return purgeSessions(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.UsesDevSecret() {
		logger.Warn("signing access tokens with the development secret; set FRIENDGRAPH_JWT_SECRET in production")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps := buildDependencies(pool, cfg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(mux)

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort)

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessionsPeriodically(purgeCtx, logger, repositories.NewPostgresSessionStore(pool), sessionPurgeInterval)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server", "cause", context.Cause(ctx))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

func purgeSessionsPeriodically(ctx context.Context, logger *slog.Logger, store sessionPurger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("purge expired sessions failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("purged expired sessions", "count", removed)
			}
		}
	}
}

func purgeSessions(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	removed, err := repositories.NewPostgresSessionStore(pool).PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("purged %d expired sessions\n", removed)
	return nil
}
