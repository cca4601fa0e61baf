package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("alice")
	req.NoError(err)

	username, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("alice", username)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "test-secret")

	refresh, err := GenerateRefreshToken("alice")
	req.NoError(err)

	_, err = ValidateToken(refresh)
	req.Error(err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "test-secret")

	refresh, err := GenerateRefreshToken("bob")
	req.NoError(err)

	username, err := ValidateRefreshToken(refresh)
	req.NoError(err)
	req.Equal("bob", username)

	// An access token is not a refresh token
	access, err := GenerateJWT("bob")
	req.NoError(err)
	_, err = ValidateRefreshToken(access)
	req.Error(err)
}

func TestValidateToken_Garbage(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := ValidateToken("not-a-token")
	req.Error(err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	req := require.New(t)

	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateJWT("alice")
	req.NoError(err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ValidateToken(token)
	req.Error(err)
}
