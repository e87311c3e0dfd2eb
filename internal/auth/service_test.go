package auth

import (
	"context"
	"testing"

	"github.com/campusfreestore/freestore-backend/internal/users"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/campusfreestore/freestore-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeSessions struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, _ string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	return "rotated-" + oldAccessID, "refresh-rotated", nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email, password, role string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: hash, Role: role, IsActive: active}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func newTestService(t *testing.T, conn *gorm.DB, sessions *fakeSessions) Service {
	t.Helper()
	svc, err := NewService(users.NewRepository(conn), sessions, config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "freestore",
		ExpirationMinutes: 15,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	conn := setupAuthTestDB(t)
	sessions := &fakeSessions{}
	svc := newTestService(t, conn, sessions)
	seedUser(t, conn, "manager@rowan.edu", "correct horse", models.RoleManager, true)

	pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "Manager@Rowan.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, models.RoleManager, pair.Role)
	require.Len(t, sessions.generated, 1)

	var stored models.User
	require.NoError(t, conn.Where("email = ?", "manager@rowan.edu").First(&stored).Error)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newTestService(t, conn, &fakeSessions{})
	seedUser(t, conn, "staff@rowan.edu", "correct horse", models.RoleEmployee, true)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "staff@rowan.edu",
		Password: "wrong horse",
	})
	require.Error(t, err)
}

func TestLoginInactiveUser(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newTestService(t, conn, &fakeSessions{})
	seedUser(t, conn, "gone@rowan.edu", "correct horse", models.RoleEmployee, false)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "gone@rowan.edu",
		Password: "correct horse",
	})
	require.Error(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newTestService(t, conn, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@rowan.edu",
		Password: "anything",
	})
	require.Error(t, err)
}

func TestRefreshRotatesSession(t *testing.T) {
	conn := setupAuthTestDB(t)
	sessions := &fakeSessions{}
	svc := newTestService(t, conn, sessions)
	seedUser(t, conn, "staff@rowan.edu", "correct horse", models.RoleEmployee, true)

	pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "staff@rowan.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, "refresh-rotated", refreshed.RefreshToken)
}

func TestLogoutRevokesSession(t *testing.T) {
	conn := setupAuthTestDB(t)
	sessions := &fakeSessions{}
	svc := newTestService(t, conn, sessions)

	require.NoError(t, svc.Logout(context.Background(), "jti-1"))
	require.Equal(t, []string{"jti-1"}, sessions.revoked)
}
