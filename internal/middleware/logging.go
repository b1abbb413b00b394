package middleware

import (
    "log/slog"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/corvexa/it-services-portal/internal/metrics"
)

// RequestLogger logs one line per request with the request id set by
// echo's RequestID middleware.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req := c.Request()
            res := c.Response()
            level := slog.LevelInfo
            if res.Status >= 500 {
                level = slog.LevelError
            }
            log.LogAttrs(req.Context(), level, "http request",
                slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
                slog.String("method", req.Method),
                slog.String("path", req.URL.Path),
                slog.Int("status", res.Status),
                slog.Duration("latency", time.Since(start)),
                slog.String("remote_ip", c.RealIP()),
            )
            return nil
        }
    }
}

// Metrics records request counts and latency by route template.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                } else {
                    status = 500
                }
            }
            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            method := c.Request().Method
            metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
            metrics.HTTPRequestDurationSeconds.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
