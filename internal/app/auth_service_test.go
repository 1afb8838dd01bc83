package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"datacopilot/internal/pkg/jwtutil"
)

func newAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(string(hash), "test-secret", time.Hour)
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthService(t, "letmein")

	result, err := svc.Login("letmein")
	require.NoError(t, err)
	assert.Equal(t, 3600, result.ExpiresIn)

	claims, err := jwtutil.ParseToken("test-secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthService(t, "letmein")

	_, err := svc.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_EmptyPassword(t *testing.T) {
	svc := newAuthService(t, "letmein")

	_, err := svc.Login("   ")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
