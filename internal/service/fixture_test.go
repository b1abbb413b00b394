package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/repository/memory"
	"github.com/corvexa/it-services-portal/internal/utils"
)

const testSecret = "test-secret"

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type authFixture struct {
	svc      *AuthService
	users    *memory.UserStore
	codes    *memory.CodeStore
	resets   *memory.ResetStore
	attempts *memory.AttemptStore
	mail     *notify.Recorder
	clock    *fakeClock
}

func newAuthFixture(t *testing.T, maxAttempts int) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    memory.NewUserStore(),
		codes:    memory.NewCodeStore(),
		attempts: memory.NewAttemptStore(),
		mail:     &notify.Recorder{},
		clock:    newFakeClock(time.Date(2030, 1, 3, 10, 0, 0, 0, time.UTC)),
	}
	f.resets = memory.NewResetStore(f.users)
	f.svc = NewAuthService(f.users, f.codes, f.resets, f.attempts, f.mail, AuthConfig{
		JWTSecret:     testSecret,
		AccessTTL:     time.Hour,
		CodeTTL:       10 * time.Minute,
		ResetTTL:      time.Hour,
		MaxAttempts:   maxAttempts,
		BcryptCost:    bcrypt.MinCost,
		PublicBaseURL: "https://portal.test",
	}, nil).WithClock(f.clock.Now)
	return f
}

func (f *authFixture) addUser(t *testing.T, email, password, role string) uint64 {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return f.users.AddUser(model.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: hash, Role: role})
}

// pendingCode returns the code currently stored for userID.
func (f *authFixture) pendingCode(t *testing.T, userID uint64) string {
	t.Helper()
	c, err := f.codes.Pending(context.Background(), userID, f.clock.Now())
	require.NoError(t, err)
	return c.Code
}

// otherCode returns a six digit code different from code.
func otherCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}
