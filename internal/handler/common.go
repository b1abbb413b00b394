package handler // handler defines http handlers

import (
    "context"  // per-request deadlines for store calls
    "errors"   // errors.Is / errors.As to map sentinel errors
    "log/slog" // server errors are logged, never returned
    "net/http" // status codes
    "time"     // request timeout

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/corvexa/it-services-portal/internal/repository" // storage sentinel errors
    "github.com/corvexa/it-services-portal/internal/service"    // business sentinel errors
    "github.com/corvexa/it-services-portal/internal/utils"      // validator field errors
)

// requestTimeout bounds the store calls of one request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindAndValidate decodes the body into req and runs the struct validator.
// On failure the 400 response has already been written and ok is false.
func bindAndValidate(c echo.Context, req interface{}) (ok bool, err error) {
    if err := c.Bind(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{
            "error":  "Missing or invalid fields",
            "fields": utils.FieldErrors(err),
        })
    }
    return true, nil
}

// writeError maps service and repository errors to responses.  Anything
// unrecognised is logged and answered with a generic 500.
func writeError(c echo.Context, err error) error {
    var verr *service.ValidationError
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing or invalid fields", "fields": verr.Fields})
    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid email or password"})
    case errors.Is(err, service.ErrInvalidCode):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code"})
    case errors.Is(err, service.ErrNoPendingCode):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "No pending sign-in, please sign in again"})
    case errors.Is(err, service.ErrUserNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
    case errors.Is(err, service.ErrTooManyAttempts):
        return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many attempts, please sign in again"})
    case errors.Is(err, service.ErrSlotUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "This time slot is no longer available"})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "A user with this email already exists"})
    case errors.Is(err, repository.ErrInvalidToken):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired token"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
    }
    slog.Error("request failed",
        "method", c.Request().Method,
        "path", c.Path(),
        "request_id", c.Response().Header().Get(echo.HeaderXRequestID),
        "error", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}
