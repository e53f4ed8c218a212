package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers every way a bearer token can fail verification.
var ErrTokenInvalid = errors.New("invalid token")

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	Issue(userID int64) (string, error)
	Verify(token string) (int64, error)
}

// Claims is the token payload. No expiry is set.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService signs HS256 tokens carrying a user_id claim.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTService{secret: []byte(secret)}, nil
}

func (s *JWTService) Issue(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: userID})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Verify(tokenStr string) (int64, error) {
	if tokenStr == "" {
		return 0, ErrTokenInvalid
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, ErrTokenInvalid
	}
	if claims.UserID == 0 {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}
