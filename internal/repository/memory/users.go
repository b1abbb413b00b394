// Package memory implements the portal stores in process memory.  They
// follow the MySQL repositories' semantics closely enough for service and
// handler tests, including the single-winner slot claim.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/repository"
)

type UserStore struct {
	mu        sync.Mutex
	nextID    uint64
	users     map[uint64]model.User
	byEmail   map[string]uint64
	companies map[uint64]model.Company

	// FailUserInsert makes the next CreateCompanyAndUser fail after the
	// company insert, to exercise rollback.
	FailUserInsert error
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:     make(map[uint64]model.User),
		byEmail:   make(map[string]uint64),
		companies: make(map[uint64]model.Company),
	}
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return s.users[id], nil
}

func (s *UserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) CreateCompanyAndUser(_ context.Context, c model.Company, u model.User) (uint64, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = time.Now().UTC()
	s.companies[c.ID] = c
	rollback := func() { delete(s.companies, c.ID) }

	if s.FailUserInsert != nil {
		err := s.FailUserInsert
		s.FailUserInsert = nil
		rollback()
		return 0, 0, err
	}
	email := repository.NormalizeEmail(u.Email)
	if _, dup := s.byEmail[email]; dup {
		rollback()
		return 0, 0, repository.ErrEmailExists
	}
	cid := c.ID
	u.CompanyID = &cid
	if u.Role == "" {
		u.Role = model.RoleClient
	}
	id := s.insertLocked(u)
	return c.ID, id, nil
}

// AddUser stores u directly and returns its id.  Used to seed staff accounts.
func (s *UserStore) AddUser(u model.User) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(u)
}

func (s *UserStore) insertLocked(u model.User) uint64 {
	s.nextID++
	now := time.Now().UTC()
	u.ID = s.nextID
	u.Email = repository.NormalizeEmail(u.Email)
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u.ID
}

func (s *UserStore) setPasswordHash(id uint64, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
}

// CompanyCount reports how many companies exist.
func (s *UserStore) CompanyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.companies)
}

func (s *UserStore) ListClients(_ context.Context) ([]model.ClientSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ClientSummary{}
	for _, u := range s.users {
		if u.Role != model.RoleClient {
			continue
		}
		cs := model.ClientSummary{UserID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, IsActive: u.IsActive, CompanyID: u.CompanyID}
		if u.CompanyID != nil {
			if c, ok := s.companies[*u.CompanyID]; ok {
				name := c.Name
				cs.CompanyName = &name
			}
		}
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID > out[j].UserID })
	return out, nil
}
