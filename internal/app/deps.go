package app

import (
	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/config"
	"github.com/friendgraph/backend/internal/db"
	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/handlers"
	"github.com/friendgraph/backend/internal/middleware"
	"github.com/friendgraph/backend/internal/repositories"
)

// rateLimitIdleWindows is how many windows a caller may stay idle before its
// bucket is forgotten.
const rateLimitIdleWindows = 5

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)
	manager := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)

	deps := handlers.Dependencies{
		Users:       users,
		Sessions:    manager,
		Tokens:      manager,
		Friendships: friendships.NewService(repositories.NewPostgresFriendshipRepository(pool), users),
		Limiter: middleware.NewKeyedRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			rateLimitIdleWindows*cfg.RateLimit.Window,
		),
	}

	if checker, ok := pool.(handlers.HealthChecker); ok {
		deps.Database = checker
	}

	return deps
}
