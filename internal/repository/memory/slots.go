package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/repository"
)

type slotKey struct{ date, time string }

// SlotStore is an in-memory appointment table.
type SlotStore struct {
	mu    sync.Mutex
	slots map[slotKey]model.Slot
}

func NewSlotStore() *SlotStore {
	return &SlotStore{slots: make(map[slotKey]model.Slot)}
}

func (s *SlotStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots), nil
}

func (s *SlotStore) InsertBulk(_ context.Context, slots []model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range slots {
		k := slotKey{sl.Date, sl.Time}
		if _, dup := s.slots[k]; dup {
			return repository.ErrConflict
		}
	}
	for _, sl := range slots {
		s.slots[slotKey{sl.Date, sl.Time}] = model.Slot{Date: sl.Date, Time: sl.Time, IsAvailable: sl.IsAvailable}
	}
	return nil
}

func (s *SlotStore) ListAvailable(_ context.Context, date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for k, sl := range s.slots {
		if k.date == date && sl.Bookable() {
			out = append(out, k.time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *SlotStore) Claim(_ context.Context, b model.Booking) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := slotKey{b.Date, b.Time}
	sl, ok := s.slots[k]
	if !ok || !sl.Bookable() {
		return false, nil
	}
	sl.IsAvailable = false
	sl.ClientName, sl.Email, sl.Service, sl.Message = strPtr(b.Name), strPtr(b.Email), strPtr(b.Service), strPtr(b.Message)
	s.slots[k] = sl
	return true, nil
}

func (s *SlotStore) SetAvailability(_ context.Context, date, tm string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := slotKey{date, tm}
	sl, ok := s.slots[k]
	if available {
		s.slots[k] = model.Slot{Date: date, Time: tm, IsAvailable: true}
		return nil
	}
	if ok {
		sl.IsAvailable = false
		s.slots[k] = sl
	}
	return nil
}

func (s *SlotStore) Get(_ context.Context, date, tm string) (model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[slotKey{date, tm}]
	if !ok {
		return model.Slot{}, repository.ErrNotFound
	}
	return sl, nil
}

func (s *SlotStore) ListBooked(_ context.Context) ([]model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Slot{}
	for _, sl := range s.slots {
		if sl.Booked() {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func strPtr(s string) *string { return &s }
