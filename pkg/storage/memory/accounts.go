package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
)

// AccountStore is an in-memory auth.AccountStore. Email lookups are
// case-insensitive.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[string]*auth.Account
	byEmail map[string]string
}

// NewAccountStore creates an empty account store
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]*auth.Account),
		byEmail: make(map[string]string),
	}
}

func (s *AccountStore) GetByID(_ context.Context, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *AccountStore) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(account.Email)
	if _, exists := s.byEmail[key]; exists {
		return auth.ErrConflict
	}
	if _, exists := s.byID[account.ID]; exists {
		return auth.ErrConflict
	}
	cp := *account
	s.byID[account.ID] = &cp
	s.byEmail[key] = account.ID
	return nil
}

// AdminStore is an in-memory auth.AdminStore
type AdminStore struct {
	mu      sync.RWMutex
	byID    map[string]*auth.AdminAccount
	byEmail map[string]string
}

// NewAdminStore creates an empty admin store
func NewAdminStore() *AdminStore {
	return &AdminStore{
		byID:    make(map[string]*auth.AdminAccount),
		byEmail: make(map[string]string),
	}
}

func (s *AdminStore) GetByID(_ context.Context, id string) (*auth.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *AdminStore) GetByEmail(_ context.Context, email string) (*auth.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *AdminStore) Create(_ context.Context, admin *auth.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(admin.Email)
	if _, exists := s.byEmail[key]; exists {
		return auth.ErrConflict
	}
	if _, exists := s.byID[admin.ID]; exists {
		return auth.ErrConflict
	}
	cp := *admin
	s.byID[admin.ID] = &cp
	s.byEmail[key] = admin.ID
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
