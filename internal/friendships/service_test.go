package friendships

import (
	"context"
	"errors"
	"testing"

	"github.com/friendgraph/backend/internal/models"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
	carol = "33333333-3333-4333-8333-333333333333"
)

type staticDirectory struct {
	users map[string]bool
	err   error
}

func (d staticDirectory) Exists(_ context.Context, userID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.users[userID], nil
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	dir := staticDirectory{users: map[string]bool{alice: true, bob: true, carol: true}}
	return NewService(store, dir), store
}

// failingStore injects an error into Insert while delegating everything else.
type failingStore struct {
	*MemoryStore
	insertErr error
}

func (s failingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.MemoryStore.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return fn(ctx, failingTx{Tx: tx, insertErr: s.insertErr})
	})
}

type failingTx struct {
	Tx
	insertErr error
}

func (t failingTx) Insert(ctx context.Context, friendship models.Friendship) error {
	if t.insertErr != nil {
		return t.insertErr
	}
	return t.Tx.Insert(ctx, friendship)
}

// staleStore simulates a row that changed under the transaction: every
// Transition matches zero rows.
type staleStore struct {
	*MemoryStore
}

func (s staleStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.MemoryStore.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return fn(ctx, staleTx{Tx: tx})
	})
}

type staleTx struct {
	Tx
}

func (staleTx) Transition(context.Context, string, string, models.FriendshipStatus, models.FriendshipStatus) (int64, error) {
	return 0, nil
}

func mustFind(t *testing.T, store *MemoryStore, userID, friendUserID string) models.Friendship {
	t.Helper()
	for _, record := range store.Snapshot() {
		if record.UserID == userID && record.FriendUserID == friendUserID {
			return record
		}
	}
	t.Fatalf("expected record %s -> %s", userID, friendUserID)
	return models.Friendship{}
}

func assertAbsent(t *testing.T, store *MemoryStore, userID, friendUserID string) {
	t.Helper()
	for _, record := range store.Snapshot() {
		if record.UserID == userID && record.FriendUserID == friendUserID {
			t.Fatalf("unexpected record %s -> %s with status %s", userID, friendUserID, record.Status)
		}
	}
}

func TestServiceSendCreatesRequest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}

	record := mustFind(t, store, alice, bob)
	if record.Status != models.StatusRequested {
		t.Fatalf("expected requested got %s", record.Status)
	}
	if record.ID == "" {
		t.Fatal("expected record id to be generated")
	}
	if len(store.Snapshot()) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(store.Snapshot()))
	}
}

func TestServiceResendAfterDecline(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	original := mustFind(t, store, alice, bob)

	if err := svc.Decline(ctx, bob, alice); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("resend: %v", err)
	}

	records := store.Snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one record after resend, got %d", len(records))
	}
	if records[0].Status != models.StatusRequested {
		t.Fatalf("expected requested got %s", records[0].Status)
	}
	if records[0].ID != original.ID {
		t.Fatalf("expected resend to reuse record %s, got %s", original.ID, records[0].ID)
	}
}

func TestServiceAcceptOneSidedRequest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if n := len(store.Snapshot()); n != 2 {
		t.Fatalf("expected two records, got %d", n)
	}
	if got := mustFind(t, store, alice, bob).Status; got != models.StatusAccepted {
		t.Fatalf("expected alice->bob accepted got %s", got)
	}
	if got := mustFind(t, store, bob, alice).Status; got != models.StatusAccepted {
		t.Fatalf("expected bob->alice accepted got %s", got)
	}
}

func TestServiceAcceptCrossRequests(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send alice->bob: %v", err)
	}
	if err := svc.Send(ctx, bob, alice); err != nil {
		t.Fatalf("send bob->alice: %v", err)
	}
	reverse := mustFind(t, store, bob, alice)

	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}

	records := store.Snapshot()
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	for _, record := range records {
		if record.Status != models.StatusAccepted {
			t.Fatalf("expected all records accepted, got %+v", record)
		}
	}
	if got := mustFind(t, store, bob, alice).ID; got != reverse.ID {
		t.Fatalf("expected reverse record to be updated in place")
	}
}

func TestServiceAcceptReopensDeclinedReverse(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// bob asked first and alice declined; later alice asks and bob accepts.
	if err := svc.Send(ctx, bob, alice); err != nil {
		t.Fatalf("send bob->alice: %v", err)
	}
	if err := svc.Decline(ctx, alice, bob); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send alice->bob: %v", err)
	}
	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if n := len(store.Snapshot()); n != 2 {
		t.Fatalf("expected two records, got %d", n)
	}
	if got := mustFind(t, store, bob, alice).Status; got != models.StatusAccepted {
		t.Fatalf("expected bob->alice accepted got %s", got)
	}
}

func TestServiceDeclineIsOneDirectional(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Decline(ctx, bob, alice); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if got := mustFind(t, store, alice, bob).Status; got != models.StatusDeclined {
		t.Fatalf("expected declined got %s", got)
	}
	assertAbsent(t, store, bob, alice)
}

func TestServiceGuardRejectsWithoutPendingRequest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Accept(ctx, bob, alice); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("expected ErrNotRequested from accept, got %v", err)
	}
	if err := svc.Decline(ctx, bob, alice); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("expected ErrNotRequested from decline, got %v", err)
	}

	// An outbound request does not authorize the sender to accept it.
	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Accept(ctx, alice, bob); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("expected ErrNotRequested accepting own request, got %v", err)
	}

	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Accept(ctx, bob, alice); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("expected ErrNotRequested accepting twice, got %v", err)
	}
	if n := len(store.Snapshot()); n != 2 {
		t.Fatalf("expected two records, got %d", n)
	}
}

func TestServiceSendInvalidTarget(t *testing.T) {
	svc, store := newTestService(t)

	err := svc.Send(context.Background(), alice, "44444444-4444-4444-8444-444444444444")
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget got %v", err)
	}
	if n := len(store.Snapshot()); n != 0 {
		t.Fatalf("expected no records, got %d", n)
	}
}

func TestServiceSendRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, alice); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest got %v", err)
	}
	if err := svc.Send(ctx, "", bob); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput got %v", err)
	}

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Send(ctx, alice, bob); !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected ErrAlreadyRequested got %v", err)
	}

	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Send(ctx, alice, bob); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends got %v", err)
	}
	if err := svc.Send(ctx, bob, alice); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends for reverse direction got %v", err)
	}
}

func TestServiceDirectoryFailurePropagates(t *testing.T) {
	boom := errors.New("directory down")
	svc := NewService(NewMemoryStore(), staticDirectory{err: boom})

	if err := svc.Send(context.Background(), alice, bob); !errors.Is(err, boom) {
		t.Fatalf("expected directory error got %v", err)
	}
}

func TestServiceAcceptRollsBackOnFailure(t *testing.T) {
	store := NewMemoryStore()
	dir := staticDirectory{users: map[string]bool{alice: true, bob: true}}

	if err := NewService(store, dir).Send(context.Background(), alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}

	boom := errors.New("insert failed")
	svc := NewService(failingStore{MemoryStore: store, insertErr: boom}, dir)
	if err := svc.Accept(context.Background(), bob, alice); !errors.Is(err, boom) {
		t.Fatalf("expected insert error got %v", err)
	}

	if got := mustFind(t, store, alice, bob).Status; got != models.StatusRequested {
		t.Fatalf("expected inbound request to remain requested, got %s", got)
	}
	assertAbsent(t, store, bob, alice)
}

func TestTransitionOnAcceptedRecordIsNoop(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("accept: %v", err)
	}
	before := mustFind(t, store, alice, bob)

	err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.Transition(ctx, alice, bob, models.StatusRequested, models.StatusAccepted)
		if err != nil {
			return err
		}
		if n != 0 {
			t.Fatalf("expected zero rows affected, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected transaction to commit cleanly: %v", err)
	}

	after := mustFind(t, store, alice, bob)
	if after != before {
		t.Fatalf("expected record unchanged, before %+v after %+v", before, after)
	}
}

func TestServiceList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Send(ctx, carol, alice); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Send(ctx, bob, carol); err != nil {
		t.Fatalf("send: %v", err)
	}

	records, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", len(records))
	}

	if _, err := svc.List(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput got %v", err)
	}
}

func TestServiceAcceptStopsWhenInboundTransitionMisses(t *testing.T) {
	store := NewMemoryStore()
	dir := staticDirectory{users: map[string]bool{alice: true, bob: true}}

	if err := NewService(store, dir).Send(context.Background(), alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}

	svc := NewService(staleStore{MemoryStore: store}, dir)
	if err := svc.Accept(context.Background(), bob, alice); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("expected ErrNotRequested got %v", err)
	}

	if got := mustFind(t, store, alice, bob).Status; got != models.StatusRequested {
		t.Fatalf("expected inbound request untouched, got %s", got)
	}
	assertAbsent(t, store, bob, alice)
}

func TestServiceResendFailsWhenReopenMisses(t *testing.T) {
	store := NewMemoryStore()
	dir := staticDirectory{users: map[string]bool{alice: true, bob: true}}
	ctx := context.Background()

	svc := NewService(store, dir)
	if err := svc.Send(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Decline(ctx, bob, alice); err != nil {
		t.Fatalf("decline: %v", err)
	}

	err := NewService(staleStore{MemoryStore: store}, dir).Send(ctx, alice, bob)
	if err == nil {
		t.Fatal("expected resend to fail when the declined record was not reopened")
	}
	if IsClientError(err) {
		t.Fatalf("expected a store error, got client error %v", err)
	}

	if got := mustFind(t, store, alice, bob).Status; got != models.StatusDeclined {
		t.Fatalf("expected record to stay declined, got %s", got)
	}
	if n := len(store.Snapshot()); n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}
}
