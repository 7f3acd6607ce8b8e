package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-auth/aegis/internal/shared"
	"github.com/aegis-auth/aegis/internal/users"
)

// CredentialReader is the slice of the credential service consulted during
// login flows.
type CredentialReader interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindUserByBiometricKey(ctx context.Context, key string) (*users.User, error)
}

// TokenResponse carries a signed bearer token to the client.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Service wraps authentication business rules.
type Service struct {
	creds  CredentialReader
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(creds CredentialReader, tokens *TokenIssuer) *Service {
	return &Service{creds: creds, tokens: tokens}
}

// ValidateUser checks email/password credentials. A missing account and a
// wrong password collapse into the same error so callers cannot probe which
// emails are registered.
func (s *Service) ValidateUser(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login mints a bearer token for an already-authenticated account.
func (s *Service) Login(ctx context.Context, user *users.User) (*TokenResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token}, nil
}

// BiometricLogin authenticates by biometric key and mints a bearer token.
// An unknown key reports the same error as a failed password login.
func (s *Service) BiometricLogin(ctx context.Context, key string) (*TokenResponse, error) {
	user, err := s.creds.FindUserByBiometricKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.Login(ctx, user)
}
