package handler

import (
    "net/http" // HTTP status codes and cookies

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/corvexa/it-services-portal/internal/middleware" // caller identity and cookie name
    "github.com/corvexa/it-services-portal/internal/service"    // sign-in state machine
)

// AuthHandler serves the sign-in, verification and password reset flow.
type AuthHandler struct {
    Auth         *service.AuthService
    SecureCookie bool // set the Secure flag on the access_token cookie
}

func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
    return &AuthHandler{Auth: auth, SecureCookie: secureCookie}
}

// ----- DTOs -----

type signInReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type verifyReq struct {
    Email string `json:"email" validate:"required"`
    Code  string `json:"code" validate:"required,otp"`
}

type emailReq struct {
    Email string `json:"email" validate:"required"`
}

type resetReq struct {
    Token       string `json:"token" validate:"required"`
    NewPassword string `json:"newPassword" validate:"required"`
}

// SignIn checks the password and emails a verification code.
func (h *AuthHandler) SignIn(c echo.Context) error {
    var req signInReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Auth.SignIn(ctx, req.Email, req.Password); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "A verification code has been sent to your email",
    })
}

// VerifyMFA exchanges the emailed code for an access token.  The token is
// returned in the body and also set as the access_token cookie.
func (h *AuthHandler) VerifyMFA(c echo.Context) error {
    var req verifyReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Auth.VerifyMFA(ctx, req.Email, req.Code)
    if err != nil {
        return writeError(c, err)
    }
    c.SetCookie(&http.Cookie{
        Name:     middleware.AccessTokenCookie,
        Value:    res.Token.Token,
        Path:     "/",
        Expires:  res.Token.Exp,
        HttpOnly: true,
        Secure:   h.SecureCookie,
        SameSite: http.SameSiteLaxMode,
    })
    return c.JSON(http.StatusOK, echo.Map{
        "success":     true,
        "accessToken": res.Token.Token,
        "expiresAt":   res.Token.Exp,
        "redirect":    res.Redirect,
    })
}

// ResendMFA issues a new code for a pending sign-in.
func (h *AuthHandler) ResendMFA(c echo.Context) error {
    var req emailReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Auth.ResendCode(ctx, req.Email); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "A new code has been sent"})
}

// ForgotPassword always answers with the same message.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req emailReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Auth.ForgotPassword(ctx, req.Email); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "If an account exists for this email, a reset link has been sent",
    })
}

// ResetPassword sets a new password using an emailed token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Your password has been reset"})
}

// Me returns the claims of the access token.
func (h *AuthHandler) Me(c echo.Context) error {
    id, ok := middleware.CurrentIdentity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }
    return c.JSON(http.StatusOK, id)
}
