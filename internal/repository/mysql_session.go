package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// MySQLSessionStore is the durable SessionStore backend. One row per
// account (user_id is the primary key), matching the
// one-live-record-per-account policy.
type MySQLSessionStore struct{ DB *sql.DB }

func NewMySQLSessionStore(db *sql.DB) *MySQLSessionStore { return &MySQLSessionStore{DB: db} }

func (s *MySQLSessionStore) Store(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO refresh_sessions (user_id, token_hash, revoked, created_at, updated_at)
		 VALUES (?,?,0,UTC_TIMESTAMP(),UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE token_hash=VALUES(token_hash), revoked=0, updated_at=UTC_TIMESTAMP()`,
		userID.String(), tokenHash)
	return err
}

func (s *MySQLSessionStore) Get(ctx context.Context, userID uuid.UUID) (*model.RefreshSession, error) {
	var sess model.RefreshSession
	var id string
	err := s.DB.QueryRowContext(ctx,
		"SELECT user_id, token_hash, revoked, created_at, updated_at FROM refresh_sessions WHERE user_id=? LIMIT 1",
		userID.String()).Scan(&id, &sess.TokenHash, &sess.Revoked, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sess.UserID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Replace rotates in a single conditional UPDATE; of two concurrent
// rotations against the same stored hash only one can match the WHERE
// clause, the other reads the row again to report revoked vs mismatch.
func (s *MySQLSessionStore) Replace(ctx context.Context, userID uuid.UUID, oldHash, newHash string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE refresh_sessions SET token_hash=?, updated_at=UTC_TIMESTAMP() WHERE user_id=? AND token_hash=? AND revoked=0",
		newHash, userID.String(), oldHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	sess, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return ErrSessionRevoked
	}
	if err != nil {
		return err
	}
	if sess.Revoked {
		return ErrSessionRevoked
	}
	return ErrSessionMismatch
}

func (s *MySQLSessionStore) Revoke(ctx context.Context, userID uuid.UUID) error {
	_, err := s.DB.ExecContext(ctx,
		"DELETE FROM refresh_sessions WHERE user_id=?", userID.String())
	return err
}
