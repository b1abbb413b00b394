package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
)

// ResetRepo persists password reset tokens (one per user, keyed by user_id).
type ResetRepo struct{ db *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{db: db} }

// Upsert stores a new token for the user, replacing the previous one.
func (r *ResetRepo) Upsert(ctx context.Context, t model.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (user_id, token, expires_at) VALUES (?,?,?)
         ON DUPLICATE KEY UPDATE token=VALUES(token), expires_at=VALUES(expires_at)`,
		t.UserID, t.Token, t.ExpiresAt.UTC())
	return err
}

// ResetPassword verifies token, stores the new hash and deletes the token
// in one transaction.  Unknown or expired tokens yield ErrInvalidToken.
func (r *ResetRepo) ResetPassword(ctx context.Context, token, newHash string, now time.Time) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM password_resets WHERE token=? AND expires_at > ? FOR UPDATE",
		token, now.UTC()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", newHash, userID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_resets WHERE user_id=?", userID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return userID, nil
}

// PurgeExpired removes tokens that expired before now.
func (r *ResetRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM password_resets WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
