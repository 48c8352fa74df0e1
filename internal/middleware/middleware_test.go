package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/friendgraph/backend/internal/auth"
)

type verifierStub struct {
	userID string
	err    error
}

func (v verifierStub) Verify(context.Context, string) (string, error) {
	return v.userID, v.err
}

func TestRequireSession(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name       string
		verifier   TokenVerifier
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid", verifierStub{userID: "user-1"}, "Bearer token", http.StatusNoContent, "user-1"},
		{"lowercaseScheme", verifierStub{userID: "user-1"}, "bearer token", http.StatusNoContent, "user-1"},
		{"missingHeader", verifierStub{userID: "user-1"}, "", http.StatusUnauthorized, ""},
		{"wrongScheme", verifierStub{userID: "user-1"}, "Basic abc", http.StatusUnauthorized, ""},
		{"emptyToken", verifierStub{userID: "user-1"}, "Bearer   ", http.StatusUnauthorized, ""},
		{"rejected", verifierStub{err: errors.New("expired")}, "Bearer token", http.StatusUnauthorized, ""},
		{"noVerifier", nil, "Bearer token", http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/api/v1/friendships/send", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			RequireSession(tc.verifier)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}
			if seen != tc.wantUser {
				t.Fatalf("expected user %q got %q", tc.wantUser, seen)
			}
			if rec.Code == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate challenge")
			}
		})
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	dec := json.NewDecoder(&buf)
	var sawPanic, sawCompletion bool
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode log entry: %v", err)
		}
		switch entry["msg"] {
		case "panic recovered":
			sawPanic = true
		case "request completed":
			sawCompletion = true
			if status, _ := entry["status"].(float64); int(status) != http.StatusInternalServerError {
				t.Fatalf("expected logged status 500 got %v", entry["status"])
			}
		}
	}
	if !sawPanic || !sawCompletion {
		t.Fatalf("expected panic and completion entries, got panic=%v completion=%v", sawPanic, sawCompletion)
	}
}

func TestRequestLoggerReusesRequestID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	const id = "5b0c2f44-5d1e-4a6a-9d0f-0d4b8f7a1c33"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("expected request id %s got %s", id, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got == "not a uuid" || got == "" {
		t.Fatalf("expected generated request id got %q", got)
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	limiter := NewKeyedRateLimiter(1, time.Minute, 2, time.Minute)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("user:a") || !limiter.Allow("user:a") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("user:a") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("user:b") {
		t.Fatal("expected independent bucket for another key")
	}

	now = now.Add(2 * time.Minute)
	if !limiter.Allow("user:a") {
		t.Fatal("expected tokens to refill")
	}
	if limiter.Len() != 1 {
		t.Fatalf("expected idle key to be collected, tracking %d", limiter.Len())
	}
}
