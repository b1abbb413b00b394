package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "net/url"  // query escaping for the post-sign-in target
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/corvexa/it-services-portal/internal/utils" // token verification
)

// AccessTokenCookie is the cookie verify-mfa sets so page navigations, which
// cannot carry an Authorization header, are authenticated too.
const AccessTokenCookie = "access_token"

// Context keys set by JWTAuth and PageAuth.
const (
    CtxUserID = "user_id" // uint64
    CtxEmail  = "email"   // string
    CtxRole   = "role"    // string
)

// JWTAuth protects API routes.  A missing bearer token answers 401, an
// invalid or expired one 403.  On success the token's claims are stored in
// the context under CtxUserID, CtxEmail and CtxRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request())
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid or expired token"})
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

// PageAuth protects HTML pages.  The token is read from the Authorization
// header or the access_token cookie; any failure, including a role outside
// roles, redirects to signInPath.  An empty roles list admits every role.
func PageAuth(secret, signInPath string, roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request())
            if raw == "" {
                if ck, err := c.Cookie(AccessTokenCookie); err == nil {
                    raw = ck.Value
                }
            }
            target := signInPath + "?next=" + url.QueryEscape(c.Request().URL.Path)
            if raw == "" {
                return c.Redirect(http.StatusFound, target)
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil || (len(allowed) > 0 && !allowed[claims.Role]) {
                return c.Redirect(http.StatusFound, target)
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

func bearerToken(r *http.Request) string {
    auth := r.Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return ""
    }
    return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func setClaims(c echo.Context, claims utils.Claims) {
    c.Set(CtxUserID, claims.UserID)
    c.Set(CtxEmail, claims.Email)
    c.Set(CtxRole, claims.Role)
}
