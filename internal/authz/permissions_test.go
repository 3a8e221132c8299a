package authz_test

import (
	"context"
	"testing"
	"time"

	"blog-api/internal/authz"
	"blog-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	permissions map[uuid.UUID][]string
	roleUsers   map[uint][]uuid.UUID
	lookups     int
}

func (f *fakeSource) PermissionsForUser(_ context.Context, userID uuid.UUID) ([]string, error) {
	f.lookups++
	return f.permissions[userID], nil
}

func (f *fakeSource) UserIDsWithRole(_ context.Context, roleID uint) ([]uuid.UUID, error) {
	return f.roleUsers[roleID], nil
}

func TestClosureForComputesAndCaches(t *testing.T) {
	_, client := testutil.OpenTestRedis(t)
	userID := uuid.New()
	source := &fakeSource{permissions: map[uuid.UUID][]string{
		userID: {"create posts", "edit posts"},
	}}
	cache := authz.NewPermissionCache(client, source, time.Minute)

	closure, err := cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Contains(t, closure, "create posts")
	assert.Contains(t, closure, "edit posts")
	assert.Equal(t, 1, source.lookups)

	// Second read is served from the cache.
	closure, err = cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Contains(t, closure, "create posts")
	assert.Equal(t, 1, source.lookups)
}

func TestInvalidateDropsCachedClosure(t *testing.T) {
	_, client := testutil.OpenTestRedis(t)
	userID := uuid.New()
	source := &fakeSource{permissions: map[uuid.UUID][]string{
		userID: {"create posts"},
	}}
	cache := authz.NewPermissionCache(client, source, time.Minute)

	_, err := cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)

	source.permissions[userID] = []string{"create posts", "delete posts"}
	require.NoError(t, cache.Invalidate(context.Background(), userID))

	closure, err := cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Contains(t, closure, "delete posts")
	assert.Equal(t, 2, source.lookups)
}

func TestInvalidateRoleDropsEveryHolder(t *testing.T) {
	_, client := testutil.OpenTestRedis(t)
	first, second := uuid.New(), uuid.New()
	source := &fakeSource{
		permissions: map[uuid.UUID][]string{
			first:  {"view reports"},
			second: {"view reports"},
		},
		roleUsers: map[uint][]uuid.UUID{7: {first, second}},
	}
	cache := authz.NewPermissionCache(client, source, time.Minute)

	_, err := cache.ClosureFor(context.Background(), first)
	require.NoError(t, err)
	_, err = cache.ClosureFor(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 2, source.lookups)

	require.NoError(t, cache.InvalidateRole(context.Background(), 7))

	_, err = cache.ClosureFor(context.Background(), first)
	require.NoError(t, err)
	_, err = cache.ClosureFor(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 4, source.lookups)
}

func TestClosureForDegradesWhenCacheIsDown(t *testing.T) {
	server, client := testutil.OpenTestRedis(t)
	userID := uuid.New()
	source := &fakeSource{permissions: map[uuid.UUID][]string{
		userID: {"create posts"},
	}}
	cache := authz.NewPermissionCache(client, source, time.Minute)

	server.Close()

	closure, err := cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Contains(t, closure, "create posts")
}

func TestClosureForExpiresWithTTL(t *testing.T) {
	server, client := testutil.OpenTestRedis(t)
	userID := uuid.New()
	source := &fakeSource{permissions: map[uuid.UUID][]string{
		userID: {"create posts"},
	}}
	cache := authz.NewPermissionCache(client, source, time.Minute)

	_, err := cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)

	server.FastForward(2 * time.Minute)

	_, err = cache.ClosureFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.lookups)
}
