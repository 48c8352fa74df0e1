package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

// FriendshipHandler exposes the friendship request endpoints. Every route
// expects the caller to have been authenticated by middleware.RequireSession.
type FriendshipHandler struct {
	Friendships FriendshipService
	Limiter     RateLimiter
}

type friendshipInput struct {
	FriendUserID string `json:"friendUserId" validate:"required,uuid"`
}

func (in *friendshipInput) normalize() {
	in.FriendUserID = strings.TrimSpace(in.FriendUserID)
}

type listFriendshipsResponse struct {
	Friendships []models.Friendship `json:"friendships"`
}

type friendshipMutation func(svc FriendshipService, ctx context.Context, callerID, friendUserID string) error

// Send handles POST /api/v1/friendships/send.
func (h FriendshipHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "send", FriendshipService.Send)
}

// Accept handles POST /api/v1/friendships/accept.
func (h FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "accept", FriendshipService.Accept)
}

// Decline handles POST /api/v1/friendships/decline.
func (h FriendshipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "decline", FriendshipService.Decline)
}

// List handles GET /api/v1/friendships.
func (h FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Friendships == nil {
		logger.Error("friendship service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "friendship service unavailable")
		return
	}

	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := h.Friendships.List(ctx, callerID)
	if err != nil {
		logger.Error("list friendships failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list friendships")
		return
	}
	if records == nil {
		records = []models.Friendship{}
	}

	respondJSON(ctx, w, http.StatusOK, listFriendshipsResponse{Friendships: records})
}

func (h FriendshipHandler) mutate(w http.ResponseWriter, r *http.Request, action string, op friendshipMutation) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx).With("action", action)

	if h.Friendships == nil {
		logger.Error("friendship service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "friendship service unavailable")
		return
	}

	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if !allowRequest(h.Limiter, r, "friendships") {
		logger.Warn("friendship mutation rate limited")
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var input friendshipInput
	if !bindJSON(w, r, &input) {
		return
	}

	if err := op(h.Friendships, ctx, callerID, input.FriendUserID); err != nil {
		status, message := friendshipErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("friendship mutation failed", "friendUserId", input.FriendUserID, "error", err)
		}
		respondError(ctx, w, status, message)
		return
	}

	logger.Info("friendship mutation applied", "friendUserId", input.FriendUserID)
	w.WriteHeader(http.StatusNoContent)
}

func friendshipErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, friendships.ErrAlreadyRequested),
		errors.Is(err, friendships.ErrAlreadyFriends):
		return http.StatusConflict, err.Error()
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, friendships.ErrAlreadyRequested.Error()
	case friendships.IsClientError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusBadRequest, "user does not exist"
	default:
		return http.StatusInternalServerError, "failed to update friendship"
	}
}
