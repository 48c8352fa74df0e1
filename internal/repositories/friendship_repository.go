package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/friendgraph/backend/internal/db"
	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/models"
)

const friendshipColumns = `id, user_id, friend_user_id, status, created_at, updated_at`

// PostgresFriendshipRepository stores directed friendship records.
type PostgresFriendshipRepository struct {
	pool db.Pool
}

// NewPostgresFriendshipRepository constructs a friendship repository backed by PostgreSQL.
func NewPostgresFriendshipRepository(pool db.Pool) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{pool: pool}
}

// InTx runs fn inside a serializable transaction. Rows read through the
// transaction handle are locked until commit or rollback.
func (r *PostgresFriendshipRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx friendships.Tx) error) error {
	return db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &postgresFriendshipTx{tx: tx})
	})
}

// ListForUser returns directed records where userID is either side, newest first.
func (r *PostgresFriendshipRepository) ListForUser(ctx context.Context, userID string) ([]models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+friendshipColumns+`
        FROM friendships
        WHERE user_id = $1 OR friend_user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var out []models.Friendship
	for rows.Next() {
		friendship, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, friendship)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return out, nil
}

type postgresFriendshipTx struct {
	tx pgx.Tx
}

func (t *postgresFriendshipTx) Find(ctx context.Context, userID, friendUserID string) (models.Friendship, bool, error) {
	row := t.tx.QueryRow(ctx, `
        SELECT `+friendshipColumns+`
        FROM friendships
        WHERE user_id = $1 AND friend_user_id = $2
        FOR UPDATE
    `, userID, friendUserID)

	friendship, err := scanFriendship(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friendship{}, false, nil
		}
		return models.Friendship{}, false, err
	}
	return friendship, true, nil
}

func (t *postgresFriendshipTx) Insert(ctx context.Context, friendship models.Friendship) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO friendships (id, user_id, friend_user_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, friendship.ID, friendship.UserID, friendship.FriendUserID, friendship.Status.String(), friendship.CreatedAt, friendship.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "insert friendship")
	}
	return nil
}

func (t *postgresFriendshipTx) Transition(ctx context.Context, userID, friendUserID string, from, to models.FriendshipStatus) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
        UPDATE friendships
        SET status = $4, updated_at = $5
        WHERE user_id = $1 AND friend_user_id = $2 AND status = $3
    `, userID, friendUserID, from.String(), to.String(), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update friendship status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanFriendship(row pgx.Row) (models.Friendship, error) {
	var (
		friendship models.Friendship
		status     string
	)
	if err := row.Scan(&friendship.ID, &friendship.UserID, &friendship.FriendUserID, &status, &friendship.CreatedAt, &friendship.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friendship{}, err
		}
		return models.Friendship{}, fmt.Errorf("scan friendship: %w", err)
	}

	parsed, err := models.ParseFriendshipStatus(status)
	if err != nil {
		return models.Friendship{}, err
	}
	friendship.Status = parsed
	friendship.CreatedAt = friendship.CreatedAt.UTC()
	friendship.UpdatedAt = friendship.UpdatedAt.UTC()

	return friendship, nil
}

var _ friendships.Store = (*PostgresFriendshipRepository)(nil)
