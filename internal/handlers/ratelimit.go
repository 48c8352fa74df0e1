package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/friendgraph/backend/internal/auth"
)

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(rateLimitKey(r, scope))
}

// rateLimitKey buckets authenticated callers by user id and everyone else by
// client address.
func rateLimitKey(r *http.Request, scope string) string {
	subject := "ip:" + clientIP(r)
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		subject = "user:" + userID
	}
	if scope == "" {
		return subject
	}
	return fmt.Sprintf("%s:%s", scope, subject)
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
