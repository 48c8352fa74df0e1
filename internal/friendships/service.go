package friendships

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
)

// Service implements the friendship request state machine on top of a Store.
type Service struct {
	store Store
	users Directory

	NowFunc func() time.Time
	NewID   func() string
}

// NewService constructs a Service. Both collaborators are required.
func NewService(store Store, users Directory) *Service {
	if store == nil || users == nil {
		panic("friendships: store and user directory must not be nil")
	}
	return &Service{store: store, users: users}
}

// Send records a friendship request from requesterID to targetUserID. A
// previously declined request is re-opened instead of inserting a new record.
func (s *Service) Send(ctx context.Context, requesterID, targetUserID string) error {
	ctx, span := logging.StartSpan(ctx, "friendships.send")
	defer span.End()

	requesterID, targetUserID, err := normalizePair(requesterID, targetUserID)
	if err != nil {
		return err
	}
	if requesterID == targetUserID {
		return ErrSelfRequest
	}

	exists, err := s.users.Exists(ctx, targetUserID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidTarget
	}

	return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, ok, err := tx.Find(ctx, requesterID, targetUserID)
		if err != nil {
			return err
		}
		if !ok {
			return tx.Insert(ctx, s.newRecord(requesterID, targetUserID, models.StatusRequested))
		}

		switch existing.Status {
		case models.StatusDeclined:
			n, err := tx.Transition(ctx, requesterID, targetUserID, models.StatusDeclined, models.StatusRequested)
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("reopen declined friendship %s: %d rows updated", existing.ID, n)
			}
			return nil
		case models.StatusRequested:
			return ErrAlreadyRequested
		case models.StatusAccepted:
			return ErrAlreadyFriends
		default:
			return fmt.Errorf("friendship %s has invalid status %s", existing.ID, existing.Status)
		}
	})
}

// Accept confirms the pending request requesterUserID sent to accepterID and
// makes the relationship mutual.
func (s *Service) Accept(ctx context.Context, accepterID, requesterUserID string) error {
	ctx, span := logging.StartSpan(ctx, "friendships.accept")
	defer span.End()

	return s.guarded(ctx, InboundRequested, accepterID, requesterUserID, func(ctx context.Context, tx Tx, accepterID, requesterUserID string) error {
		n, err := tx.Transition(ctx, requesterUserID, accepterID, models.StatusRequested, models.StatusAccepted)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotRequested
		}

		reverse, ok, err := tx.Find(ctx, accepterID, requesterUserID)
		if err != nil {
			return err
		}
		if !ok {
			return tx.Insert(ctx, s.newRecord(accepterID, requesterUserID, models.StatusAccepted))
		}
		if reverse.Status == models.StatusAccepted {
			return nil
		}

		_, err = tx.Transition(ctx, accepterID, requesterUserID, reverse.Status, models.StatusAccepted)
		return err
	})
}

// Decline rejects the pending request requesterUserID sent to declinerID.
// Records in the opposite direction are not touched.
func (s *Service) Decline(ctx context.Context, declinerID, requesterUserID string) error {
	ctx, span := logging.StartSpan(ctx, "friendships.decline")
	defer span.End()

	return s.guarded(ctx, InboundRequested, declinerID, requesterUserID, func(ctx context.Context, tx Tx, declinerID, requesterUserID string) error {
		_, err := tx.Transition(ctx, requesterUserID, declinerID, models.StatusRequested, models.StatusDeclined)
		return err
	})
}

// List returns the directed records involving userID.
func (s *Service) List(ctx context.Context, userID string) ([]models.Friendship, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.store.ListForUser(ctx, userID)
}

// guarded runs guard and then body inside the same transaction, so the rows
// the guard inspected stay locked while the body mutates them.
func (s *Service) guarded(ctx context.Context, guard Guard, callerID, friendUserID string, body func(ctx context.Context, tx Tx, callerID, friendUserID string) error) error {
	callerID, friendUserID, err := normalizePair(callerID, friendUserID)
	if err != nil {
		return err
	}

	return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := guard(ctx, tx, callerID, friendUserID); err != nil {
			return err
		}
		return body(ctx, tx, callerID, friendUserID)
	})
}

func (s *Service) newRecord(userID, friendUserID string, status models.FriendshipStatus) models.Friendship {
	now := s.now()
	return models.Friendship{
		ID:           s.newID(),
		UserID:       userID,
		FriendUserID: friendUserID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func normalizePair(callerID, friendUserID string) (string, string, error) {
	callerID = strings.TrimSpace(callerID)
	friendUserID = strings.TrimSpace(friendUserID)
	if callerID == "" || friendUserID == "" {
		return "", "", ErrInvalidInput
	}
	return callerID, friendUserID, nil
}
