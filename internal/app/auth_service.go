package app

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"datacopilot/internal/pkg/jwtutil"
)

var ErrInvalidCredential = errors.New("invalid password")

// AuthService issues operator tokens. The service has a single operator
// identity whose password hash lives in configuration.
type AuthService struct {
	passwordHash  string
	jwtSecret     string
	jwtExpiration time.Duration
}

type AuthResult struct {
	Token     string
	ExpiresIn int
}

func NewAuthService(passwordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		passwordHash:  passwordHash,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Login(password string) (*AuthResult, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, "operator", s.jwtExpiration)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresIn: int(s.jwtExpiration.Seconds()),
	}, nil
}
