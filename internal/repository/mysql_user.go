package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/social-feed-api/internal/model"
)

// MySQLUserStore is the durable UserStore backend. Account ids are
// stored as CHAR(36) uuid strings; the follower graph lives in a
// `follows` table with (follower_id, followee_id) as primary key, so
// duplicate edges are impossible at the schema level.
type MySQLUserStore struct{ DB *sql.DB }

func NewMySQLUserStore(db *sql.DB) *MySQLUserStore { return &MySQLUserStore{DB: db} }

const userColumns = "id,handle,email,password_hash,role,is_active,email_verified,email_verified_at,display_name,bio,avatar_url,created_at,updated_at"

func (s *MySQLUserStore) Create(ctx context.Context, u *model.User) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
		u.ID.String(), u.Handle, u.Email, u.PasswordHash, u.Role, u.IsActive,
		u.EmailVerified, u.EmailVerifiedAt, u.DisplayName, u.Bio, u.AvatarURL,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		// 1062 = duplicate entry on the unique handle/email indexes.
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *MySQLUserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.getWhere(ctx, "id=?", id.String())
}

func (s *MySQLUserStore) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	return s.getWhere(ctx, "handle=?", handle)
}

func (s *MySQLUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getWhere(ctx, "email=?", email)
}

func (s *MySQLUserStore) GetByHandleOrEmail(ctx context.Context, v string) (*model.User, error) {
	return s.getWhere(ctx, "handle=? OR email=?", v, v)
}

func (s *MySQLUserStore) getWhere(ctx context.Context, where string, args ...any) (*model.User, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u          model.User
		id         string
		verifiedAt sql.NullTime
	)
	err := row.Scan(&id, &u.Handle, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.EmailVerified, &verifiedAt, &u.DisplayName, &u.Bio, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		at := verifiedAt.Time
		u.EmailVerifiedAt = &at
	}
	u.Followers = make(map[uuid.UUID]struct{})
	u.Following = make(map[uuid.UUID]struct{})
	return &u, nil
}

// loadEdges fills both follower sets from the follows table.
func (s *MySQLUserStore) loadEdges(ctx context.Context, u *model.User) error {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT follower_id, followee_id FROM follows WHERE follower_id=? OR followee_id=?",
		u.ID.String(), u.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var follower, followee string
		if err := rows.Scan(&follower, &followee); err != nil {
			return err
		}
		fr, err := uuid.Parse(follower)
		if err != nil {
			return err
		}
		fe, err := uuid.Parse(followee)
		if err != nil {
			return err
		}
		if fr == u.ID {
			u.Following[fe] = struct{}{}
		}
		if fe == u.ID {
			u.Followers[fr] = struct{}{}
		}
	}
	return rows.Err()
}

func (s *MySQLUserStore) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET display_name=?, bio=?, avatar_url=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		u.DisplayName, u.Bio, u.AvatarURL, u.ID.String())
	return oneRowOrNotFound(res, err)
}

func (s *MySQLUserStore) SetEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=1, email_verified_at=?, updated_at=? WHERE id=?",
		at, at, id.String())
	return oneRowOrNotFound(res, err)
}

func (s *MySQLUserStore) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		hash, id.String())
	return oneRowOrNotFound(res, err)
}

// oneRowOrNotFound maps a zero affected-row count to ErrNotFound. The
// callers always change at least one column value (timestamps or fresh
// hashes), so a no-op update cannot be mistaken for a missing row.
func oneRowOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLUserStore) Follow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range []uuid.UUID{actorID, targetID} {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id.String()).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	// INSERT IGNORE keeps re-follow idempotent against the PK.
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?,?,UTC_TIMESTAMP())",
		actorID.String(), targetID.String()); err != nil {
		return err
	}
	if err := touchUsers(ctx, tx, actorID, targetID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *MySQLUserStore) Unfollow(ctx context.Context, actorID, targetID uuid.UUID) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id=? AND followee_id=?",
		actorID.String(), targetID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFollowing
	}
	if err := touchUsers(ctx, tx, actorID, targetID); err != nil {
		return err
	}
	return tx.Commit()
}

func touchUsers(ctx context.Context, tx *sql.Tx, a, b uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET updated_at=UTC_TIMESTAMP() WHERE id IN (?,?)",
		a.String(), b.String())
	return err
}

func (s *MySQLUserStore) IsFollower(ctx context.Context, ownerID, viewerID uuid.UUID) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx,
		"SELECT 1 FROM follows WHERE followee_id=? AND follower_id=? LIMIT 1",
		ownerID.String(), viewerID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MySQLUserStore) ListFollowers(ctx context.Context, id uuid.UUID) ([]*model.User, error) {
	return s.listEdge(ctx, id,
		"SELECT "+prefixed(userColumns)+" FROM users u JOIN follows f ON f.follower_id=u.id WHERE f.followee_id=?")
}

func (s *MySQLUserStore) ListFollowing(ctx context.Context, id uuid.UUID) ([]*model.User, error) {
	return s.listEdge(ctx, id,
		"SELECT "+prefixed(userColumns)+" FROM users u JOIN follows f ON f.followee_id=u.id WHERE f.follower_id=?")
}

func (s *MySQLUserStore) listEdge(ctx context.Context, id uuid.UUID, query string) ([]*model.User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// prefixed qualifies the shared column list with the users alias.
func prefixed(cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = "u." + p
	}
	return strings.Join(parts, ",")
}
