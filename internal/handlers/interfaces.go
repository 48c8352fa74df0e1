package handlers

import (
	"context"

	"github.com/friendgraph/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// FriendshipService is the friendship request state machine.
type FriendshipService interface {
	Send(ctx context.Context, requesterID, targetUserID string) error
	Accept(ctx context.Context, accepterID, requesterUserID string) error
	Decline(ctx context.Context, declinerID, requesterUserID string) error
	List(ctx context.Context, userID string) ([]models.Friendship, error)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
