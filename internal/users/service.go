package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-auth/aegis/internal/shared"
)

// Service owns credential management: hashing, uniqueness and lookup for
// both password and biometric credentials. Plaintext secrets exist only as
// arguments; everything persisted is a salted bcrypt hash.
type Service struct {
	store Store
	cost  int
}

// NewService builds a Service hashing with the given bcrypt cost. A
// non-positive cost falls back to bcrypt.DefaultCost.
func NewService(store Store, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: bcryptCost}
}

// CreateUser registers a new account. The store's unique constraint is the
// authority on email duplicates; a taken email surfaces as ErrEmailTaken.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	return s.store.Create(ctx, CreateParams{
		Email:              email,
		PasswordHash:       string(hash),
		BiometricKeyHashes: []string{},
	})
}

// AddBiometricKey enrolls a biometric key for an existing account. The key
// must not verify against any stored hash anywhere in the store; a match on
// the target account itself is rejected the same way as one on another
// account. The uniqueness scan and the append are not serialized, so two
// concurrent enrollments of the same key can both pass the scan.
func (s *Service) AddBiometricKey(ctx context.Context, userID int64, key string) (*User, error) {
	if _, err := s.store.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	taken, err := s.biometricKeyInUse(ctx, key)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.ErrBiometricKeyTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), s.cost)
	if err != nil {
		return nil, fmt.Errorf("users: hash biometric key: %w", err)
	}
	return s.store.AppendBiometricKeyHash(ctx, userID, string(hash))
}

// FindByEmail fetches a single account by its exact email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.FindByEmail(ctx, email)
}

// FindAll returns every account.
func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	return s.store.FindAll(ctx)
}

// FindUserByBiometricKey returns the account the plaintext key verifies
// against. Hashes are salted, so there is no lookup shortcut: the key is
// bcrypt-compared against every stored hash until one verifies.
func (s *Service) FindUserByBiometricKey(ctx context.Context, key string) (*User, error) {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		for _, hash := range all[i].BiometricKeyHashes {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
				return &all[i], nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

// BiometricKeyExists reports whether the key verifies against one of the
// given account's own hashes.
func (s *Service) BiometricKeyExists(ctx context.Context, userID int64, key string) (bool, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, hash := range user.BiometricKeyHashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) biometricKeyInUse(ctx context.Context, key string) (bool, error) {
	_, err := s.FindUserByBiometricKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
