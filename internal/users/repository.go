package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-auth/aegis/internal/shared"
)

// Store defines persistence operations for credential records. Records are
// created once and grow only by appended biometric key hashes; there is no
// update or delete path.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	AppendBiometricKeyHash(ctx context.Context, id int64, hash string) (*User, error)
}

const userColumns = `id, email, password_hash, biometric_key_hashes, created_at, updated_at`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts a new credential record. The email unique constraint is the
// single authority on duplicates; violations surface as shared.ErrEmailTaken.
func (s *PGStore) Create(ctx context.Context, params CreateParams) (*User, error) {
	hashes := params.BiometricKeyHashes
	if hashes == nil {
		hashes = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, biometric_key_hashes)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		params.Email, params.PasswordHash, hashes,
	)
	user, err := scanUser(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// FindByID fetches a record by primary key.
func (s *PGStore) FindByID(ctx context.Context, id int64) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail fetches a record by its exact email. Matching is byte-wise;
// addresses differing only in case are distinct records.
func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// FindAll returns every credential record ordered by id.
func (s *PGStore) FindAll(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// AppendBiometricKeyHash appends one hash to the record's biometric set and
// returns the updated record.
func (s *PGStore) AppendBiometricKeyHash(ctx context.Context, id int64, hash string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET biometric_key_hashes = array_append(biometric_key_hashes, $2), updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, hash,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.BiometricKeyHashes, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ Store = (*PGStore)(nil)
