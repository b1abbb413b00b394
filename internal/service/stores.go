package service

import (
	"context"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
)

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	CreateCompanyAndUser(ctx context.Context, c model.Company, u model.User) (uint64, uint64, error)
	ListClients(ctx context.Context) ([]model.ClientSummary, error)
}

// CodeStore is implemented by repository.CodeRepo.
type CodeStore interface {
	Upsert(ctx context.Context, c model.OneTimeCode) error
	Consume(ctx context.Context, userID uint64, code string, now time.Time) (bool, error)
	Pending(ctx context.Context, userID uint64, now time.Time) (model.OneTimeCode, error)
	Delete(ctx context.Context, userID uint64) error
}

// ResetStore is implemented by repository.ResetRepo.
type ResetStore interface {
	Upsert(ctx context.Context, t model.PasswordReset) error
	ResetPassword(ctx context.Context, token, newHash string, now time.Time) (uint64, error)
}

// AttemptCounter is implemented by repository.AttemptRepo.
type AttemptCounter interface {
	Incr(ctx context.Context, userID uint64, window time.Duration) (int64, error)
	Reset(ctx context.Context, userID uint64) error
}

// SlotStore is implemented by repository.SlotRepo.
type SlotStore interface {
	Count(ctx context.Context) (int, error)
	InsertBulk(ctx context.Context, slots []model.Slot) error
	ListAvailable(ctx context.Context, date string) ([]string, error)
	Claim(ctx context.Context, b model.Booking) (bool, error)
	SetAvailability(ctx context.Context, date, tm string, available bool) error
	ListBooked(ctx context.Context) ([]model.Slot, error)
}
