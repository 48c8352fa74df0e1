package handlers

import (
	"net/http"

	"github.com/friendgraph/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Tokens      middleware.TokenVerifier
	Friendships FriendshipService
	Limiter     RateLimiter
	Database    HealthChecker
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	authn := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.Limiter}
	friends := FriendshipHandler{Friendships: deps.Friendships, Limiter: deps.Limiter}

	requireSession := middleware.RequireSession(deps.Tokens)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", authn.Login)
	mux.HandleFunc("/api/v1/auth/signup", authn.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", authn.Refresh)
	mux.Handle("/api/v1/friendships", requireSession(http.HandlerFunc(friends.List)))
	mux.Handle("/api/v1/friendships/send", requireSession(http.HandlerFunc(friends.Send)))
	mux.Handle("/api/v1/friendships/accept", requireSession(http.HandlerFunc(friends.Accept)))
	mux.Handle("/api/v1/friendships/decline", requireSession(http.HandlerFunc(friends.Decline)))
}
