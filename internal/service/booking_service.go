package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corvexa/it-services-portal/internal/metrics"
	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/utils"
)

// SeedPlan describes the calendar created on an empty appointment table.
type SeedPlan struct {
	Days         int
	Times        []string // HH:MM
	SkipWeekends bool
}

// BookingService owns the appointment ledger.
type BookingService struct {
	slots       SlotStore
	notifier    notify.Notifier
	plan        SeedPlan
	adminEmails []string
	loc         *time.Location
	log         *slog.Logger
	now         func() time.Time
}

func NewBookingService(slots SlotStore, notifier notify.Notifier, plan SeedPlan, adminEmails []string, log *slog.Logger) *BookingService {
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{
		slots:       slots,
		notifier:    notifier,
		plan:        plan,
		adminEmails: adminEmails,
		loc:         time.Local,
		log:         log,
		now:         time.Now,
	}
}

// WithClock replaces the time source; dates are taken in the clock's
// location.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	s.loc = now().Location()
	return s
}

// Seed fills an empty appointment table with Days calendar days starting
// today.  A table with any row is left untouched.  It returns the number
// of slots inserted.
func (s *BookingService) Seed(ctx context.Context) (int, error) {
	n, err := s.slots.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	if n > 0 {
		s.log.Debug("slot table not empty, seeding skipped", "rows", n)
		return 0, nil
	}

	today := s.now().In(s.loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)
	var slots []model.Slot
	for i := 0; i < s.plan.Days; i++ {
		day := start.AddDate(0, 0, i)
		if s.plan.SkipWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			continue
		}
		for _, t := range s.plan.Times {
			slots = append(slots, model.Slot{Date: day.Format(model.DateLayout), Time: t, IsAvailable: true})
		}
	}
	if err := s.slots.InsertBulk(ctx, slots); err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}
	metrics.SlotsSeededTotal.Add(float64(len(slots)))
	s.log.Info("slot calendar seeded", "slots", len(slots), "days", s.plan.Days)
	return len(slots), nil
}

// Schedule lists the bookable times of date.
func (s *BookingService) Schedule(ctx context.Context, date string) ([]string, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "want YYYY-MM-DD"}}
	}
	return s.slots.ListAvailable(ctx, date)
}

// Book claims the slot for the client and emails the client and staff.
func (s *BookingService) Book(ctx context.Context, b model.Booking) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Email = strings.TrimSpace(b.Email)
	b.Service = strings.TrimSpace(b.Service)
	fe := fieldErrors{}
	if _, err := time.Parse(model.DateLayout, b.Date); err != nil {
		fe["date"] = "want YYYY-MM-DD"
	}
	if t, ok := utils.NormalizeTime(b.Time); ok {
		b.Time = t
	} else {
		fe["time"] = "want HH:MM"
	}
	fe.required("name", b.Name)
	fe.required("email", b.Email)
	fe.required("service", b.Service)
	if err := fe.err(); err != nil {
		return err
	}

	ok, err := s.slots.Claim(ctx, b)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("claim slot: %w", err)
	}
	if !ok {
		metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		return ErrSlotUnavailable
	}
	metrics.BookingsTotal.WithLabelValues("ok").Inc()
	s.log.Info("slot booked", "date", b.Date, "time", b.Time)

	s.notifier.Send(ctx, notify.BookingConfirmation(b))
	for _, to := range s.adminEmails {
		s.notifier.Send(ctx, notify.BookingAdminCopy(to, b))
	}
	return nil
}

// SetAvailability opens or blocks a slot.  Opening clears any booking and
// creates a missing slot; blocking a missing slot does nothing.
func (s *BookingService) SetAvailability(ctx context.Context, date, tm string, available bool) error {
	fe := fieldErrors{}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		fe["date"] = "want YYYY-MM-DD"
	}
	t, ok := utils.NormalizeTime(tm)
	if !ok {
		fe["time"] = "want HH:MM"
	}
	if err := fe.err(); err != nil {
		return err
	}
	if err := s.slots.SetAvailability(ctx, date, t, available); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	s.log.Info("slot availability changed", "date", date, "time", t, "available", available)
	return nil
}

// Bookings lists every booked slot.
func (s *BookingService) Bookings(ctx context.Context) ([]model.Slot, error) {
	return s.slots.ListBooked(ctx)
}

// ContactInput is a contact form submission.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// Contact forwards a contact form submission to staff.
func (s *BookingService) Contact(ctx context.Context, in ContactInput) error {
	fe := fieldErrors{}
	fe.required("name", in.Name)
	fe.required("email", in.Email)
	fe.required("message", in.Message)
	if err := fe.err(); err != nil {
		return err
	}
	if len(s.adminEmails) == 0 {
		s.log.Warn("contact form received but no admin recipients configured")
	}
	for _, to := range s.adminEmails {
		s.notifier.Send(ctx, notify.ContactForward(to, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), in.Message))
	}
	return nil
}
