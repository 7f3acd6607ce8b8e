package users

import (
	"context"
	"sync"
	"time"

	"github.com/aegis-auth/aegis/internal/shared"
)

// MemStore is an in-memory Store used by tests and local development runs
// without PostgreSQL. It honors the same sentinel contract as PGStore.
type MemStore struct {
	mu      sync.RWMutex
	byID    map[int64]*User
	byEmail map[string]int64
	nextID  int64
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]int64),
		nextID:  1,
	}
}

// Create inserts a new credential record.
func (s *MemStore) Create(ctx context.Context, params CreateParams) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[params.Email]; exists {
		return nil, shared.ErrEmailTaken
	}

	now := time.Now().UTC()
	user := &User{
		ID:                 s.nextID,
		Email:              params.Email,
		PasswordHash:       params.PasswordHash,
		BiometricKeyHashes: append([]string{}, params.BiometricKeyHashes...),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.nextID++
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return cloneUser(user), nil
}

// FindByID fetches a record by id.
func (s *MemStore) FindByID(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneUser(user), nil
}

// FindByEmail fetches a record by exact email.
func (s *MemStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

// FindAll returns every record ordered by id.
func (s *MemStore) FindAll(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.byID))
	for id := int64(1); id < s.nextID; id++ {
		if user, ok := s.byID[id]; ok {
			users = append(users, *cloneUser(user))
		}
	}
	return users, nil
}

// AppendBiometricKeyHash appends one hash to the record's biometric set.
func (s *MemStore) AppendBiometricKeyHash(ctx context.Context, id int64, hash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	user.BiometricKeyHashes = append(user.BiometricKeyHashes, hash)
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

// cloneUser copies the record so callers cannot mutate stored state.
func cloneUser(u *User) *User {
	cp := *u
	cp.BiometricKeyHashes = append([]string{}, u.BiometricKeyHashes...)
	return &cp
}

var _ Store = (*MemStore)(nil)
