package store

import (
	"context"
	"database/sql"

	"marketplace/internal/models"
)

// CreateUser inserts a new user and fills in the DB-assigned fields.
// A duplicate email surfaces as the driver's unique-violation error.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, is_admin, balance`

	return s.db.GetContext(ctx, user, query,
		user.Email, user.PasswordHash, user.FullName)
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
// such user exists so callers can answer without leaking which part of
// the credentials was wrong.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, email, password_hash, full_name, is_admin, balance FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
