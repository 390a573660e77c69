package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)
	userID := uuid.New().String()

	token, err := mgr.Generate(userID)
	require.NoError(t, err)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.Subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)
	token, err := mgr.Generate(uuid.New().String())
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("secret", -time.Minute)
	token, err := mgr.Generate(uuid.New().String())
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	require.Error(t, err)
}

func TestExpiry(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)
	token, err := mgr.Generate(uuid.New().String())
	require.NoError(t, err)

	exp, err := mgr.Expiry(token)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestExtractTokenFromHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)

	_, err = ExtractTokenFromHeader(req)
	require.Error(t, err)

	req.Header.Set("Authorization", "Basic abc")
	_, err = ExtractTokenFromHeader(req)
	require.Error(t, err)

	req.Header.Set("Authorization", "Bearer my-token")
	token, err := ExtractTokenFromHeader(req)
	require.NoError(t, err)
	require.Equal(t, "my-token", token)
}
