package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// User is an account record, limited to what login and role administration
// need. Dictionary-facing profile data is out of scope here.
type User struct {
	ID             uuid.UUID
	Username       string
	DisplayName    string
	HashedPassword string
	JoinedAt       time.Time
}

// UserStore reads user accounts.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over the given database.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetByUsername looks a user up by their unique username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.get(ctx,
		`SELECT id, username, display_name, hashed_password, joined_at
		   FROM users WHERE username = $1`,
		username,
	)
}

// GetByID looks a user up by id.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.get(ctx,
		`SELECT id, username, display_name, hashed_password, joined_at
		   FROM users WHERE id = $1`,
		id,
	)
}

func (s *UserStore) get(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.HashedPassword,
		&user.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
