package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvexa/it-services-portal/internal/database"
	"github.com/corvexa/it-services-portal/internal/model"
)

// setupTestDB connects to TEST_MYSQL_DSN, applies the schema and empties
// the tables.  Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set, skipping MySQL tests")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	for _, stmt := range []string{
		"SET FOREIGN_KEY_CHECKS=0",
		"TRUNCATE TABLE mfa_codes",
		"TRUNCATE TABLE password_resets",
		"TRUNCATE TABLE users",
		"TRUNCATE TABLE companies",
		"TRUNCATE TABLE appointment",
		"SET FOREIGN_KEY_CHECKS=1",
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return db
}

func createClient(t *testing.T, repo *UserRepo, email string) uint64 {
	t.Helper()
	_, uid, err := repo.CreateCompanyAndUser(context.Background(),
		model.Company{Name: "Acme"},
		model.User{FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return uid
}

func TestUserRepo_CreateAndDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	uid := createClient(t, repo, " Ada@Example.com ")
	u, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, uid, u.ID)
	assert.Equal(t, model.RoleClient, u.Role)
	require.NotNil(t, u.CompanyID)

	_, _, err = repo.CreateCompanyAndUser(ctx, model.Company{Name: "Other"},
		model.User{FirstName: "A", LastName: "B", Email: "ada@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrEmailExists)

	var companies int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM companies").Scan(&companies))
	assert.Equal(t, 1, companies, "failed user insert must roll back its company")

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.NotNil(t, clients[0].CompanyName)
	assert.Equal(t, "Acme", *clients[0].CompanyName)
}

func TestCodeRepo_SingleUse(t *testing.T) {
	db := setupTestDB(t)
	uid := createClient(t, NewUserRepo(db), "otp@example.com")
	repo := NewCodeRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Upsert(ctx, model.OneTimeCode{UserID: uid, Code: "111111", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}))
	require.NoError(t, repo.Upsert(ctx, model.OneTimeCode{UserID: uid, Code: "222222", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}))

	ok, err := repo.Consume(ctx, uid, "111111", now)
	require.NoError(t, err)
	assert.False(t, ok, "replaced code must not verify")

	ok, err = repo.Consume(ctx, uid, "222222", now.Add(11*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not verify")

	ok, err = repo.Consume(ctx, uid, "222222", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, uid, "222222", now)
	require.NoError(t, err)
	assert.False(t, ok, "code is single use")

	_, err = repo.Pending(ctx, uid, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetRepo_ResetPassword(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	uid := createClient(t, users, "reset@example.com")
	repo := NewResetRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, model.PasswordReset{UserID: uid, Token: "tok", ExpiresAt: now.Add(time.Hour)}))
	got, err := repo.ResetPassword(ctx, "tok", "newhash", now)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	u, err := users.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "newhash", u.PasswordHash)

	_, err = repo.ResetPassword(ctx, "tok", "again", now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(sql.ErrNoRows))
}

func TestSlotRepo_InsertBulkDuplicateIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepo(db)
	ctx := context.Background()

	slot := model.Slot{Date: "2030-01-07", Time: "09:00", IsAvailable: true}
	require.NoError(t, repo.InsertBulk(ctx, []model.Slot{slot}))
	err := repo.InsertBulk(ctx, []model.Slot{{Date: "2030-01-07", Time: "10:00", IsAvailable: true}, slot})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSlotRepo_ClaimReleaseRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.InsertBulk(ctx, []model.Slot{
		{Date: "2030-01-07", Time: "10:00", IsAvailable: true},
		{Date: "2030-01-07", Time: "09:00", IsAvailable: true},
	}))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	times, err := repo.ListAvailable(ctx, "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)

	b := model.Booking{Date: "2030-01-07", Time: "09:00", Name: "Ada", Email: "ada@example.com", Service: "Audit"}
	ok, err := repo.Claim(ctx, b)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Claim(ctx, b)
	require.NoError(t, err)
	assert.False(t, ok)

	booked, err := repo.ListBooked(ctx)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "Ada", *booked[0].ClientName)

	require.NoError(t, repo.SetAvailability(ctx, "2030-01-07", "09:00", true))
	s, err := repo.Get(ctx, "2030-01-07", "09:00")
	require.NoError(t, err)
	assert.True(t, s.Bookable())
	assert.Nil(t, s.Email)
}

func TestSlotRepo_SetAvailabilityAsymmetry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetAvailability(ctx, "2031-02-03", "11:00", false))
	_, err := repo.Get(ctx, "2031-02-03", "11:00")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SetAvailability(ctx, "2031-02-03", "11:00", true))
	s, err := repo.Get(ctx, "2031-02-03", "11:00")
	require.NoError(t, err)
	assert.True(t, s.IsAvailable)
}

func TestSlotRepo_ConcurrentClaimsSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepo(db)
	ctx := context.Background()
	require.NoError(t, repo.InsertBulk(ctx, []model.Slot{{Date: "2030-01-08", Time: "13:00", IsAvailable: true}}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Claim(ctx, model.Booking{Date: "2030-01-08", Time: "13:00", Name: "n", Email: "e@x.io", Service: "s"})
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}
