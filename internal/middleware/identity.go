package middleware

// identity.go reads the authenticated caller back out of the Echo context.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Identity is the authenticated caller of a request.
type Identity struct {
    UserID uint64 `json:"userId"`
    Email  string `json:"email"`
    Role   string `json:"role"`
}

// CurrentIdentity returns the caller stored by JWTAuth or PageAuth.  ok is
// false for anonymous requests.
func CurrentIdentity(c echo.Context) (Identity, bool) {
    id, ok := c.Get(CtxUserID).(uint64)
    if !ok || id == 0 {
        return Identity{}, false
    }
    email, _ := c.Get(CtxEmail).(string)
    role, _ := c.Get(CtxRole).(string)
    return Identity{UserID: id, Email: email, Role: role}, true
}

// userID returns the caller id as a string, or "anon".
func userID(c echo.Context) string {
    if id, ok := CurrentIdentity(c); ok {
        return strconv.FormatUint(id.UserID, 10)
    }
    return "anon"
}
