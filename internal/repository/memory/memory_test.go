package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/repository"
)

func TestSlotStore_ConcurrentClaimSingleWinner(t *testing.T) {
	s := NewSlotStore()
	ctx := context.Background()
	require.NoError(t, s.InsertBulk(ctx, []model.Slot{{Date: "2030-01-07", Time: "09:00", IsAvailable: true}}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Claim(ctx, model.Booking{Date: "2030-01-07", Time: "09:00", Name: "n"}); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestUserStore_RollbackOnFailure(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	_, _, err := s.CreateCompanyAndUser(ctx, model.Company{Name: "A"}, model.User{Email: "a@x.io"})
	require.NoError(t, err)

	_, _, err = s.CreateCompanyAndUser(ctx, model.Company{Name: "B"}, model.User{Email: "A@X.io"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.Equal(t, 1, s.CompanyCount())
}

func TestCodeStore_ExpiryAndPurge(t *testing.T) {
	s := NewCodeStore()
	ctx := context.Background()
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(ctx, model.OneTimeCode{UserID: 1, Code: "123456", ExpiresAt: now.Add(time.Minute)}))

	_, err := s.Pending(ctx, 1, now.Add(time.Minute))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := s.PurgeExpired(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, s.Len())
}

func TestSlotStore_InsertBulkDuplicateIsConflict(t *testing.T) {
	s := NewSlotStore()
	ctx := context.Background()
	slot := model.Slot{Date: "2030-01-07", Time: "09:00", IsAvailable: true}
	require.NoError(t, s.InsertBulk(ctx, []model.Slot{slot}))

	err := s.InsertBulk(ctx, []model.Slot{{Date: "2030-01-07", Time: "10:00", IsAvailable: true}, slot})
	assert.ErrorIs(t, err, repository.ErrConflict)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
