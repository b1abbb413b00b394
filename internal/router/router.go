package router // package router defines how HTTP routes are registered for the API

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // metrics exposition

	"github.com/corvexa/it-services-portal/internal/handler"    // import the handlers that implement business logic
	"github.com/corvexa/it-services-portal/internal/middleware" // JWT authentication and role enforcement
	"github.com/corvexa/it-services-portal/internal/model"      // role names
)

// SignInPage is where unauthenticated page loads are redirected.
const SignInPage = "/signin.html"

// RegisterRoutes registers the operational endpoints: health check and
// Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the sign-in flow under /api/auth.  limiter guards
// the unauthenticated endpoints against credential and code guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/signin", a.SignIn, limiter)
	g.POST("/verify-mfa", a.VerifyMFA, limiter)
	g.POST("/resend-mfa", a.ResendMFA, limiter)
	g.POST("/forgot-password", a.ForgotPassword, limiter)
	g.POST("/reset-password", a.ResetPassword, limiter)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterBooking registers the public booking endpoints.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, limiter echo.MiddlewareFunc) {
	api := e.Group("/api")
	api.GET("/schedule", b.Schedule)
	api.POST("/book", b.Book, limiter)
	api.POST("/contact", b.Contact, limiter)
}

// RegisterAdmin registers the back office.  Everything except client
// registration requires an admin access token; registration is posted by
// the admin-facing form without one.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	e.POST("/api/admin/register-client", a.RegisterClient)

	g := e.Group("/api/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.GET("/bookings", a.ListBookings)
	g.POST("/availability", a.SetAvailability)
	g.GET("/clients", a.ListClients)
	g.GET("/clients/:id", a.GetClient)
}

// RegisterPages serves the guarded pages from pagesDir and everything in
// staticDir as public files.  pagesDir must not lie inside staticDir: the
// static handler cleans and unescapes paths, so only a separate directory
// keeps the guarded files off it.
func RegisterPages(e *echo.Echo, staticDir, pagesDir, jwtSecret string) {
	e.GET("/ClientPortal.html", handler.Page(pagesDir, "ClientPortal.html"),
		middleware.PageAuth(jwtSecret, SignInPage))
	e.GET("/AdminDashboard.html", handler.Page(pagesDir, "AdminDashboard.html"),
		middleware.PageAuth(jwtSecret, SignInPage, model.RoleAdmin))
	e.Static("/", staticDir)
}

// CheckPageDirs fails when pagesDir is staticDir or lies inside it, which
// would publish the guarded pages through the static handler.
func CheckPageDirs(staticDir, pagesDir string) error {
	static, err := filepath.Abs(staticDir)
	if err != nil {
		return fmt.Errorf("static dir: %w", err)
	}
	pages, err := filepath.Abs(pagesDir)
	if err != nil {
		return fmt.Errorf("pages dir: %w", err)
	}
	rel, err := filepath.Rel(static, pages)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("pages dir %q must not be inside static dir %q", pagesDir, staticDir)
	}
	return nil
}
