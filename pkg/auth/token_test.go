package auth_test

import (
	"testing"
	"time"

	"github.com/campusfreestore/freestore-backend/pkg/auth"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "freestore",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Role:   models.RoleManager,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestMintAccessTokenRejectsUnknownRole(t *testing.T) {
	_, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   "superuser",
	})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	issued := time.Now().Add(-2 * time.Hour)

	token, err := auth.MintAccessToken(cfg, issued, auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   models.RoleEmployee,
	})
	require.NoError(t, err)

	_, err = auth.ParseAccessToken(cfg, token)
	require.Error(t, err)

	claims, err := auth.ParseAccessTokenAllowExpired(cfg, token)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   models.RoleEmployee,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = auth.ParseAccessToken(other, token)
	require.Error(t, err)
}
