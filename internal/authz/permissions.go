package authz

import (
	"context"
	"encoding/json"
	"time"

	"blog-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "authz:permissions:"

// PermissionSource resolves permission closures from the backing store.
type PermissionSource interface {
	// PermissionsForUser returns every permission name reachable through
	// the user's assigned roles.
	PermissionsForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	// UserIDsWithRole returns the users a role is assigned to.
	UserIDsWithRole(ctx context.Context, roleID uint) ([]uuid.UUID, error)
}

// PermissionCache caches per-user permission closures in redis with a TTL.
// Assignment changes must call Invalidate/InvalidateRole; until then stale
// reads are served for at most the configured TTL.
type PermissionCache struct {
	client *redis.Client
	source PermissionSource
	ttl    time.Duration
}

func NewPermissionCache(client *redis.Client, source PermissionSource, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, source: source, ttl: ttl}
}

// ClosureFor returns the caller's permission closure, from cache when fresh.
// Cache failures degrade to a direct store lookup rather than failing the
// request.
func (c *PermissionCache) ClosureFor(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	key := cacheKeyPrefix + userID.String()

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var names []string
			if unmarshalErr := json.Unmarshal([]byte(raw), &names); unmarshalErr == nil {
				return toSet(names), nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("permission cache read failed", zap.Error(err))
		}
	}

	names, err := c.source.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if data, err := json.Marshal(names); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				logger.Log.Warn("permission cache write failed", zap.Error(err))
			}
		}
	}

	return toSet(names), nil
}

// Invalidate drops the cached closure for the given users. Called whenever
// role assignments change.
func (c *PermissionCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if c.client == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cacheKeyPrefix+id.String())
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateRole drops cached closures for every user holding the role.
// Called whenever a role's permission set changes.
func (c *PermissionCache) InvalidateRole(ctx context.Context, roleID uint) error {
	if c.client == nil {
		return nil
	}
	userIDs, err := c.source.UserIDsWithRole(ctx, roleID)
	if err != nil {
		return err
	}
	return c.Invalidate(ctx, userIDs...)
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
