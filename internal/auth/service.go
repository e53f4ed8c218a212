package auth

import (
	"context"
	"errors"
	"unicode/utf16"

	"example.com/twitterfeed/internal/models"
	"example.com/twitterfeed/internal/store"
)

const MinPasswordLength = 6

const (
	MsgUserExists       = "User already exists"
	MsgPasswordTooShort = "Password is too short"
	MsgPasswordTooLong  = "Password is too long"
	MsgInvalidUser      = "Invalid user"
	MsgInvalidPassword  = "Invalid password"
)

// UserStore is the part of the store registration and login need.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (int64, error)
}

// Service implements registration and login.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenService
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenService) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
}

// Register creates a user. The existence check runs before the password
// length check.
func (s *Service) Register(ctx context.Context, r Registration) error {
	_, err := s.users.GetUserByUsername(ctx, r.Username)
	switch {
	case err == nil:
		return models.Conflict(MsgUserExists)
	case !errors.Is(err, store.ErrNotFound):
		return models.Internal(err)
	}

	if passwordLength(r.Password) < MinPasswordLength {
		return models.InvalidInput(MsgPasswordTooShort)
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return models.InvalidInput(MsgPasswordTooLong)
		}
		return models.Internal(err)
	}

	_, err = s.users.CreateUser(ctx, models.User{
		Name:     r.Name,
		Username: r.Username,
		Password: hash,
		Gender:   r.Gender,
	})
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return models.Conflict(MsgUserExists)
		}
		return models.Internal(err)
	}
	return nil
}

// passwordLength counts UTF-16 code units, so a character outside the
// Basic Multilingual Plane counts twice.
func passwordLength(p string) int {
	return len(utf16.Encode([]rune(p)))
}

// Login checks credentials and returns a bearer token bound to the user id.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", models.InvalidCredentials(MsgInvalidUser)
		}
		return "", models.Internal(err)
	}

	ok, err := s.hasher.Verify(password, u.Password)
	if err != nil {
		return "", models.Internal(err)
	}
	if !ok {
		return "", models.InvalidCredentials(MsgInvalidPassword)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", models.Internal(err)
	}
	return token, nil
}
