package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"example.com/twitterfeed/internal/models"
)

// --- User operations ---

// GetUserByUsername returns the user with the given username, or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT user_id, name, username, password, gender FROM "user" WHERE username = ?`),
		username,
	).Scan(&u.ID, &u.Name, &u.Username, &u.Password, &u.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logg.Error("store", "Failed to query user by username", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user whose Password is already hashed and returns the
// new user_id. A taken username yields ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO "user" (name, username, password, gender)
		VALUES (?, ?, ?, ?)
		RETURNING user_id`),
		user.Name, user.Username, user.Password, user.Gender,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		logg.Error("store", "Failed to create user", err)
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	logg.Info("store", "User created successfully (username anonymized)")
	return id, nil
}
