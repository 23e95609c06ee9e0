package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lp2808/retail-pos/internal/core/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-1",
		Email: "seller@example.com",
		Role:  domain.RoleSeller,
	}
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	svc := NewTokenService("secret", 15*time.Minute)

	token, expiresAt, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "seller@example.com", claims.Email)
	assert.Equal(t, "seller", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", 15*time.Minute)
	verifier := NewTokenService("secret-b", 15*time.Minute)

	token, _, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewTokenService("secret", -time.Minute)

	token, _, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := NewTokenService("secret", 15*time.Minute)

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
