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

func (fakeKeyer) SessionStateKey(sessionID, bucket string) string {
	return "fs:session:" + sessionID + ":" + bucket
}

func newTestStore() *Store {
	return &Store{
		store: &fakeStore{values: map[string]string{}},
		keyer: fakeKeyer{},
		ttl:   time.Hour,
	}
}

type cartState struct {
	Items map[string]int `json:"items"`
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	in := cartState{Items: map[string]int{"inv-1": 3}}
	require.NoError(t, store.Put(ctx, "sid", "cart", in))

	var out cartState
	found, err := store.Get(ctx, "sid", "cart", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, in, out)
}

func TestGetMissingBucket(t *testing.T) {
	store := newTestStore()

	var out cartState
	found, err := store.Get(context.Background(), "sid", "cart", &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestDelRemovesBucket(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", "enroll", cartState{}))
	require.NoError(t, store.Del(ctx, "sid", "enroll"))

	var out cartState
	found, err := store.Get(ctx, "sid", "enroll", &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBucketsAreIndependent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", "cart", cartState{Items: map[string]int{"a": 1}}))
	require.NoError(t, store.Del(ctx, "sid", "enroll"))

	var out cartState
	found, err := store.Get(ctx, "sid", "cart", &out)
	require.NoError(t, err)
	require.True(t, found)
}
