package friendships

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/friendgraph/backend/internal/models"
)

type pairKey struct {
	userID       string
	friendUserID string
}

// MemoryStore implements Store with an in-memory map. Transactions are
// serialized by a single mutex and applied to a copy that is swapped in on
// commit, which gives the same all-or-nothing behaviour as the SQL store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[pairKey]models.Friendship
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[pairKey]models.Friendship),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// InTx runs fn against a private copy of the records and publishes the copy
// only if fn succeeds.
func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := make(map[pairKey]models.Friendship, len(s.records))
	for k, v := range s.records {
		working[k] = v
	}

	tx := &memoryTx{records: working, now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.records = working
	return nil
}

// ListForUser returns records where userID is either side, newest first.
func (s *MemoryStore) ListForUser(_ context.Context, userID string) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Friendship
	for _, record := range s.records {
		if record.UserID == userID || record.FriendUserID == userID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Snapshot returns every stored record. Useful for tests.
func (s *MemoryStore) Snapshot() []models.Friendship {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Friendship, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out
}

type memoryTx struct {
	records map[pairKey]models.Friendship
	now     func() time.Time
}

func (t *memoryTx) Find(_ context.Context, userID, friendUserID string) (models.Friendship, bool, error) {
	record, ok := t.records[pairKey{userID, friendUserID}]
	return record, ok, nil
}

func (t *memoryTx) Insert(_ context.Context, friendship models.Friendship) error {
	key := pairKey{friendship.UserID, friendship.FriendUserID}
	if _, exists := t.records[key]; exists {
		return fmt.Errorf("insert friendship %s -> %s: duplicate directed pair", friendship.UserID, friendship.FriendUserID)
	}
	t.records[key] = friendship
	return nil
}

func (t *memoryTx) Transition(_ context.Context, userID, friendUserID string, from, to models.FriendshipStatus) (int64, error) {
	key := pairKey{userID, friendUserID}
	record, ok := t.records[key]
	if !ok || record.Status != from {
		return 0, nil
	}
	record.Status = to
	record.UpdatedAt = t.now()
	t.records[key] = record
	return 1, nil
}

var _ Store = (*MemoryStore)(nil)
