package handler

import (
    "path/filepath"

    "github.com/labstack/echo/v4"
)

// Page serves one HTML file from dir.  Guarding is left to the route's
// middleware.
func Page(dir, name string) echo.HandlerFunc {
    path := filepath.Join(dir, name)
    return func(c echo.Context) error {
        c.Response().Header().Set("Cache-Control", "no-store")
        return c.File(path)
    }
}
