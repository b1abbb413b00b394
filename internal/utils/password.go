package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword returns a salted bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a candidate password.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordVerifier checks passwords and, for accounts that do not exist,
// compares against a dummy hash of the same cost as stored hashes so both
// paths take the same time.
type PasswordVerifier struct {
	dummy []byte
}

// NewPasswordVerifier builds the dummy hash at cost.  Costs bcrypt
// rejects fall back to bcrypt.DefaultCost, as HashPassword does for costs
// below bcrypt.MinCost.
func NewPasswordVerifier(cost int) *PasswordVerifier {
	dummy, err := bcrypt.GenerateFromPassword([]byte("portal-dummy-password"), cost)
	if err != nil {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("portal-dummy-password"), bcrypt.DefaultCost)
	}
	return &PasswordVerifier{dummy: dummy}
}

// Verify reports whether plain matches hash.  An empty hash (unknown
// account) costs one dummy comparison and returns false.
func (v *PasswordVerifier) Verify(hash, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(plain))
		return false
	}
	return VerifyPassword(hash, plain)
}

// Cost returns the cost of the dummy hash.
func (v *PasswordVerifier) Cost() int {
	c, _ := bcrypt.Cost(v.dummy)
	return c
}
