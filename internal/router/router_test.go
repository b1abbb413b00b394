package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/corvexa/it-services-portal/internal/handler"
	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/repository/memory"
	"github.com/corvexa/it-services-portal/internal/service"
	"github.com/corvexa/it-services-portal/internal/utils"
)

const secret = "router-secret"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type app struct {
	e     *echo.Echo
	users *memory.UserStore
	slots *memory.SlotStore
	mail  *notify.Recorder
	clock *clock
	svc   *service.BookingService
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{
		users: memory.NewUserStore(),
		slots: memory.NewSlotStore(),
		mail:  &notify.Recorder{},
		clock: &clock{t: time.Date(2030, 1, 3, 10, 0, 0, 0, time.UTC)}, // Thursday
	}
	auth := service.NewAuthService(a.users, memory.NewCodeStore(), memory.NewResetStore(a.users), memory.NewAttemptStore(),
		a.mail, service.AuthConfig{
			JWTSecret:   secret,
			AccessTTL:   time.Hour,
			CodeTTL:     10 * time.Minute,
			ResetTTL:    time.Hour,
			MaxAttempts: 5,
			BcryptCost:  bcrypt.MinCost,
		}, nil).WithClock(a.clock.Now)
	a.svc = service.NewBookingService(a.slots, a.mail, service.SeedPlan{
		Days:         30,
		Times:        []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"},
		SkipWeekends: true,
	}, []string{"ops@corvexa.test"}, nil).WithClock(a.clock.Now)
	clients := service.NewClientService(a.users, a.mail, bcrypt.MinCost, "", nil)

	static := t.TempDir()
	pages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "signin.html"), []byte("<h1>sign in</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pages, "ClientPortal.html"), []byte("<h1>portal</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pages, "AdminDashboard.html"), []byte("<h1>admin</h1>"), 0o644))

	e := echo.New()
	e.Validator = utils.NewRequestValidator()
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(auth, false), secret, pass)
	RegisterBooking(e, handler.NewBookingHandler(a.svc), pass)
	RegisterAdmin(e, handler.NewAdminHandler(a.svc, clients), secret)
	RegisterPages(e, static, pages, secret)
	a.e = e
	return a
}

func (a *app) addUser(t *testing.T, email, password, role string) {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	a.users.AddUser(model.User{FirstName: "T", LastName: "U", Email: email, PasswordHash: hash, Role: role})
}

func (a *app) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

var codeRe = regexp.MustCompile(`<strong>(\d{6})</strong>`)

func (a *app) lastCode(t *testing.T, email string) string {
	t.Helper()
	sent := a.mail.To(email)
	require.NotEmpty(t, sent)
	m := codeRe.FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(t, m, 2)
	return m[1]
}

// signIn runs the full flow and returns the access token.
func (a *app) signIn(t *testing.T, email, password string) (string, string) {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/signin", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"`+email+`","code":"`+a.lastCode(t, email)+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Success     bool   `json:"success"`
		AccessToken string `json:"accessToken"`
		Redirect    string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Success)
	return out.AccessToken, out.Redirect
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	s, _ := out["error"].(string)
	return s
}

func TestScenarioA_ScheduleAfterSeeding(t *testing.T) {
	a := newApp(t)
	_, err := a.svc.Seed(context.Background())
	require.NoError(t, err)

	rec := a.do(http.MethodGet, "/api/schedule?date=2030-01-07", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var times []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &times))
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}, times)

	rec = a.do(http.MethodGet, "/api/schedule?date=2030-01-05", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/schedule", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/schedule?date=tomorrow", "", "").Code)
}

func TestScenarioB_BookThenConflict(t *testing.T) {
	a := newApp(t)
	_, err := a.svc.Seed(context.Background())
	require.NoError(t, err)
	body := `{"date":"2030-01-07","time":"14:00","name":"Ada","email":"ada@example.com","service":"Cloud migration","message":"hello"}`

	rec := a.do(http.MethodPost, "/api/book", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Appointment booked successfully", rec.Body.String())

	rec = a.do(http.MethodPost, "/api/book", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/api/book", `{"date":"2030-01-07","time":"15:00","email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarioC_InvalidCredentialsSameMessage(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)

	wrong := a.do(http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"nope"}`, "")
	unknown := a.do(http.MethodPost, "/api/auth/signin", `{"email":"ghost@example.com","password":"nope"}`, "")

	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "Invalid email or password", errorOf(t, wrong))
	assert.Equal(t, errorOf(t, wrong), errorOf(t, unknown))
}

func TestScenarioD_ExpiredCode(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)
	rec := a.do(http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	code := a.lastCode(t, "ada@example.com")

	a.clock.Advance(11 * time.Minute)
	rec = a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+code+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired code", errorOf(t, rec))

	rec = a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ghost@example.com","code":"123456"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"correct-horse"}`, "").Code)

	for _, bad := range []string{"12345", "1234567", "12a456", " 123456"} {
		rec := a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+bad+`"}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, bad)
		var out struct {
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "otp", out.Fields["code"], bad)
	}

	rec := a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+a.lastCode(t, "ada@example.com")+`"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScenarioE_AdminAvailabilityAsymmetry(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "admin@corvexa.test", "admin-password", model.RoleAdmin)
	token, redirect := a.signIn(t, "admin@corvexa.test", "admin-password")
	assert.Equal(t, service.AdminRedirect, redirect)

	rec := a.do(http.MethodPost, "/api/admin/availability", `{"date":"2031-03-03","time":"10:00","isAvailable":false}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	n, _ := a.slots.Count(context.Background())
	assert.Zero(t, n)

	rec = a.do(http.MethodPost, "/api/admin/availability", `{"date":"2031-03-03","time":"10:00","isAvailable":true}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, "/api/schedule?date=2031-03-03", "", "")
	assert.JSONEq(t, `["10:00"]`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/admin/availability", `{"date":"2031-03-03","time":"10:00"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "isAvailable is required")
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "client@example.com", "client-password", model.RoleClient)
	token, redirect := a.signIn(t, "client@example.com", "client-password")
	assert.Equal(t, service.ClientRedirect, redirect)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/admin/bookings", "", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/admin/bookings", "", "garbage").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/admin/bookings", "", token).Code)

	rec := a.do(http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"client"`)
}

func TestAdminBookingsAndRelease(t *testing.T) {
	a := newApp(t)
	_, err := a.svc.Seed(context.Background())
	require.NoError(t, err)
	a.addUser(t, "admin@corvexa.test", "admin-password", model.RoleAdmin)
	token, _ := a.signIn(t, "admin@corvexa.test", "admin-password")

	body := `{"date":"2030-01-08","time":"09:00","name":"Ada","email":"ada@example.com","service":"Audit"}`
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/book", body, "").Code)

	rec := a.do(http.MethodGet, "/api/admin/bookings", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var booked []model.Slot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booked))
	require.Len(t, booked, 1)
	assert.Equal(t, "ada@example.com", *booked[0].Email)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/admin/availability", `{"date":"2030-01-08","time":"09:00","isAvailable":true}`, token).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/book", body, "").Code)
}

func TestRegisterClient(t *testing.T) {
	a := newApp(t)
	body := `{"companyName":"Acme","firstName":"Ada","lastName":"Lovelace","email":"ada@acme.test","password":"initial-pass"}`

	rec := a.do(http.MethodPost, "/api/admin/register-client", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"success":true`)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/admin/register-client", body, "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/admin/register-client", `{"email":"x@y.z"}`, "").Code)
	assert.Equal(t, 1, a.users.CompanyCount())

	_, redirect := a.signIn(t, "ada@acme.test", "initial-pass")
	assert.Equal(t, service.ClientRedirect, redirect)
}

func TestAdminGetClient(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "admin@corvexa.test", "admin-password", model.RoleAdmin)
	token, _ := a.signIn(t, "admin@corvexa.test", "admin-password")

	rec := a.do(http.MethodPost, "/api/admin/register-client",
		`{"companyName":"Acme","firstName":"Ada","lastName":"Lovelace","email":"ada@acme.test","password":"initial-pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reg struct {
		UserID uint64 `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	path := "/api/admin/clients/" + strconv.FormatUint(reg.UserID, 10)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, path, "", "").Code)

	rec = a.do(http.MethodGet, path, "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"ada@acme.test"`)
	assert.NotContains(t, rec.Body.String(), "Hash")

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/admin/clients/9999", "", token).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/admin/clients/abc", "", token).Code)
}

func TestResendAndAttemptLimit(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/auth/resend-mfa", `{"email":"ada@example.com"}`, "").Code)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"correct-horse"}`, "").Code)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/resend-mfa", `{"email":"ada@example.com"}`, "").Code)

	code := a.lastCode(t, "ada@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	var last int
	for i := 0; i < 5; i++ {
		last = a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+wrong+`"}`, "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	rec := a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+code+`"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestForgotPasswordIsUniform(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)

	known := a.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"ada@example.com"}`, "")
	unknown := a.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, "")
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	rec := a.do(http.MethodPost, "/api/auth/reset-password", `{"token":"bogus","newPassword":"long-enough"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", errorOf(t, rec))
}

func TestContact(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Call me"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, a.mail.To("ops@corvexa.test"), 1)
}

func TestGuardedPages(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "client@example.com", "client-password", model.RoleClient)
	token, _ := a.signIn(t, "client@example.com", "client-password")

	rec := a.do(http.MethodGet, "/ClientPortal.html", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), SignInPage))

	rec = a.do(http.MethodGet, "/ClientPortal.html", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal")

	rec = a.do(http.MethodGet, "/AdminDashboard.html", "", token)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = a.do(http.MethodGet, "/signin.html", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sign in")
}

func TestGuardedPagesNotServedUnderOtherSpellings(t *testing.T) {
	a := newApp(t)
	for _, path := range []string{
		"/%43lientPortal.html",
		"/x/../ClientPortal.html",
		"//ClientPortal.html",
		"/ClientPortal.html/",
		"/%41dminDashboard.html",
		"/AdminDashboard.html/",
		"/./AdminDashboard.html",
	} {
		rec := a.do(http.MethodGet, path, "", "")
		assert.NotEqual(t, http.StatusOK, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "<h1>portal</h1>", path)
		assert.NotContains(t, rec.Body.String(), "<h1>admin</h1>", path)
	}
}

func TestCheckPageDirs(t *testing.T) {
	assert.NoError(t, CheckPageDirs("public", "pages"))
	assert.NoError(t, CheckPageDirs("public", "../pages"))
	assert.NoError(t, CheckPageDirs("public", "public-pages"))
	assert.Error(t, CheckPageDirs("public", "public"))
	assert.Error(t, CheckPageDirs("public", "public/private"))
	assert.Error(t, CheckPageDirs("public", "./public/x/../private"))
	assert.Error(t, CheckPageDirs(".", "pages"))
}

func TestVerifySetsCookie(t *testing.T) {
	a := newApp(t)
	a.addUser(t, "ada@example.com", "correct-horse", model.RoleClient)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"correct-horse"}`, "").Code)

	rec := a.do(http.MethodPost, "/api/auth/verify-mfa", `{"email":"ada@example.com","code":"`+a.lastCode(t, "ada@example.com")+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
