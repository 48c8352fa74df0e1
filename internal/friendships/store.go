package friendships

import (
	"context"

	"github.com/friendgraph/backend/internal/models"
)

// Directory resolves whether a user identifier refers to a known account.
type Directory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Tx exposes the statements a friendship mutation may run inside a single
// transaction. Implementations must lock rows returned by Find until the
// transaction ends.
type Tx interface {
	// Find returns the directed record (userID -> friendUserID) if present.
	Find(ctx context.Context, userID, friendUserID string) (models.Friendship, bool, error)
	// Insert creates a new directed record.
	Insert(ctx context.Context, friendship models.Friendship) error
	// Transition moves the directed record from one status to another and
	// reports how many rows matched. A record not currently in from is left
	// untouched and yields zero.
	Transition(ctx context.Context, userID, friendUserID string, from, to models.FriendshipStatus) (int64, error)
}

// Store persists friendship records.
type Store interface {
	// InTx runs fn inside one transaction. The transaction commits only when
	// fn returns nil and is rolled back on every other exit path.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// ListForUser returns every directed record where userID is either side.
	ListForUser(ctx context.Context, userID string) ([]models.Friendship, error)
}

// Guard is a precondition evaluated before a mutation body runs. It receives
// the authenticated caller and the counterpart named in the request.
type Guard func(ctx context.Context, tx Tx, callerID, friendUserID string) error

// InboundRequested requires a pending request sent by friendUserID to callerID.
func InboundRequested(ctx context.Context, tx Tx, callerID, friendUserID string) error {
	inbound, ok, err := tx.Find(ctx, friendUserID, callerID)
	if err != nil {
		return err
	}
	if !ok || inbound.Status != models.StatusRequested {
		return ErrNotRequested
	}
	return nil
}
