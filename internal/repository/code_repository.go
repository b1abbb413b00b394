package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
)

// CodeRepo stores the pending MFA code of each user.  mfa_codes is keyed
// by user_id so at most one code exists per user.
type CodeRepo struct{ db *sql.DB }

func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{db: db} }

// Upsert replaces any previous code of the user.
func (r *CodeRepo) Upsert(ctx context.Context, c model.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_codes (user_id, code, created_at, expires_at) VALUES (?,?,?,?)
         ON DUPLICATE KEY UPDATE code=VALUES(code), created_at=VALUES(created_at), expires_at=VALUES(expires_at)`,
		c.UserID, c.Code, c.CreatedAt.UTC(), c.ExpiresAt.UTC())
	return err
}

// Consume deletes the user's code if it matches and has not expired.  The
// single conditional DELETE makes the code single use under concurrent
// verification: only one caller observes an affected row.
func (r *CodeRepo) Consume(ctx context.Context, userID uint64, code string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM mfa_codes WHERE user_id=? AND code=? AND expires_at > ?",
		userID, code, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Pending returns the user's unexpired code or ErrNotFound.
func (r *CodeRepo) Pending(ctx context.Context, userID uint64, now time.Time) (model.OneTimeCode, error) {
	var c model.OneTimeCode
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, code, created_at, expires_at FROM mfa_codes WHERE user_id=? AND expires_at > ? LIMIT 1",
		userID, now.UTC()).Scan(&c.UserID, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OneTimeCode{}, ErrNotFound
	}
	return c, err
}

// Delete drops the user's code, if any.
func (r *CodeRepo) Delete(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM mfa_codes WHERE user_id=?", userID)
	return err
}

// PurgeExpired removes codes that expired before now.
func (r *CodeRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM mfa_codes WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
