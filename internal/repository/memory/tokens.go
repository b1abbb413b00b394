package memory

import (
	"context"
	"sync"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/repository"
)

// CodeStore keeps one OneTimeCode per user.
type CodeStore struct {
	mu    sync.Mutex
	codes map[uint64]model.OneTimeCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[uint64]model.OneTimeCode)}
}

func (s *CodeStore) Upsert(_ context.Context, c model.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[c.UserID] = c
	return nil
}

func (s *CodeStore) Consume(_ context.Context, userID uint64, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[userID]
	if !ok || !c.Valid(code, now) {
		return false, nil
	}
	delete(s.codes, userID)
	return true, nil
}

func (s *CodeStore) Pending(_ context.Context, userID uint64, now time.Time) (model.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[userID]
	if !ok || !now.Before(c.ExpiresAt) {
		return model.OneTimeCode{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *CodeStore) Delete(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, userID)
	return nil
}

func (s *CodeStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.codes {
		if !now.Before(c.ExpiresAt) {
			delete(s.codes, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many codes are stored, expired or not.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

// ResetStore keeps one PasswordReset per user and writes new hashes into
// the linked UserStore.
type ResetStore struct {
	mu     sync.Mutex
	users  *UserStore
	tokens map[uint64]model.PasswordReset
}

func NewResetStore(users *UserStore) *ResetStore {
	return &ResetStore{users: users, tokens: make(map[uint64]model.PasswordReset)}
}

func (s *ResetStore) Upsert(_ context.Context, t model.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.UserID] = t
	return nil
}

func (s *ResetStore) ResetPassword(_ context.Context, token, newHash string, now time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tokens {
		if t.Token != token {
			continue
		}
		if !now.Before(t.ExpiresAt) {
			return 0, repository.ErrInvalidToken
		}
		s.users.setPasswordHash(id, newHash)
		delete(s.tokens, id)
		return id, nil
	}
	return 0, repository.ErrInvalidToken
}

func (s *ResetStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// Token returns the stored token of a user, if any.
func (s *ResetStore) Token(userID uint64) (model.PasswordReset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[userID]
	return t, ok
}

// AttemptStore counts failures per user.  Windows are not enforced; tests
// reset explicitly.
type AttemptStore struct {
	mu     sync.Mutex
	counts map[uint64]int64
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{counts: make(map[uint64]int64)}
}

func (s *AttemptStore) Incr(_ context.Context, userID uint64, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID]++
	return s.counts[userID], nil
}

func (s *AttemptStore) Reset(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, userID)
	return nil
}
