package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	secret := []byte("test-secret")
	a := NewAuthenticator(string(secret))

	token, err := GenerateAccessToken(42, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	userID, err := a.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)

	userID, err = a.Authenticate("bearer   " + token)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)
}

func TestAuthenticate_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	a := NewAuthenticator(string(secret))

	expired, err := GenerateAccessToken(1, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)
	otherSecret, err := GenerateAccessToken(1, time.Now().Add(time.Hour), []byte("other"))
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "kim"},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"empty":        "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"no token":     "Bearer ",
		"garbage":      "Bearer not.a.jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + otherSecret,
		"bad subject":  "Bearer " + badSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authenticate(header)
			assert.True(t, errors.Is(err, ErrUnauthenticated), "got %v", err)
		})
	}
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, GetUserID(ctx))
	assert.Equal(t, int32(7), GetUserID(WithUserID(ctx, 7)))
}
