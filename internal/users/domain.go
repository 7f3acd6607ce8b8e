package users

import "time"

// User represents a credential record: one account holding a password hash
// and any number of enrolled biometric key hashes.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	BiometricKeyHashes []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateParams carries the fields persisted for a new account.
type CreateParams struct {
	Email              string
	PasswordHash       string
	BiometricKeyHashes []string
}

// Profile is the API projection of an account. Password and biometric
// hashes never leave the service boundary.
type Profile struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	BiometricKeyCount int       `json:"biometric_key_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Profile projects the record into its API shape.
func (u *User) Profile() Profile {
	return Profile{
		ID:                u.ID,
		Email:             u.Email,
		BiometricKeyCount: len(u.BiometricKeyHashes),
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
