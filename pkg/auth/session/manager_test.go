package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string {
	return "fs:auth_session:" + accessID
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateAndHasSession(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	token, err := mgr.Generate(ctx, "jti-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := mgr.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mgr.HasSession(ctx, "jti-unknown")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	token, err := mgr.Generate(ctx, "jti-1")
	require.NoError(t, err)

	newID, newToken, err := mgr.Rotate(ctx, "jti-1", token)
	require.NoError(t, err)
	require.NotEmpty(t, newID)
	require.NotEmpty(t, newToken)
	require.NotEqual(t, token, newToken)

	ok, err := mgr.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = mgr.HasSession(ctx, newID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRotateRejectsMismatchedToken(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	_, err := mgr.Generate(ctx, "jti-1")
	require.NoError(t, err)

	_, _, err = mgr.Rotate(ctx, "jti-1", "wrong-token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevoke(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	_, err := mgr.Generate(ctx, "jti-1")
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(ctx, "jti-1"))

	ok, err := mgr.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}
