package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"  // sentinel errors for claim validation
    "strconv" // string subjects from other issuers
    "time"    // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp.  Access tokens are presented in the Authorization header (or
// the access_token cookie for page loads) on protected requests.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded content of a valid access token.
type Claims struct {
    UserID uint64
    Email  string
    Role   string
    Exp    time.Time
}

// ErrInvalidClaims is returned when a token verifies but lacks the
// expected claims.
var ErrInvalidClaims = errors.New("invalid claims")

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries the subject (sub), email, role, expiration (exp) and issued at
// (iat) claims.  now is passed in so callers can control the clock.
func NewAccessToken(secret string, userID uint64, email, role string, ttl time.Duration, now time.Time) (AccessToken, error) {
    now = now.UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":   userID,
        "email": email,
        "role":  role,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and returns
// its claims.  Only HMAC signing methods are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, jwt.ErrSignatureInvalid
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil {
        return Claims{}, err
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return Claims{}, ErrInvalidClaims
    }
    var out Claims
    switch sub := mc["sub"].(type) {
    case float64: // JSON numbers decode as float64
        out.UserID = uint64(sub)
    case string:
        if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
            out.UserID = n
        }
    }
    if out.UserID == 0 {
        return Claims{}, ErrInvalidClaims
    }
    out.Email, _ = mc["email"].(string)
    out.Role, _ = mc["role"].(string)
    if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
        out.Exp = exp.Time
    }
    return out, nil
}
