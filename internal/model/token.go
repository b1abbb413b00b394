package model

import "time"

// OneTimeCode is the pending MFA code of a user (table `mfa_codes`).  The
// user id is the primary key, so issuing a new code replaces the old one.
type OneTimeCode struct {
    UserID    uint64    // mfa_codes.user_id
    Code      string    // mfa_codes.code, six digits
    CreatedAt time.Time // mfa_codes.created_at
    ExpiresAt time.Time // mfa_codes.expires_at
}

// Valid reports whether code matches and now is before the expiry.
func (c OneTimeCode) Valid(code string, now time.Time) bool {
    return c.Code == code && now.Before(c.ExpiresAt)
}

// PasswordReset is the pending reset token of a user (table `password_resets`).
type PasswordReset struct {
    UserID    uint64    // password_resets.user_id
    Token     string    // password_resets.token
    ExpiresAt time.Time // password_resets.expires_at
}
