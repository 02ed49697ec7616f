// README: Driver online presence backed by a Redis set.
package driver

import (
	"context"

	"github.com/redis/go-redis/v9"

	"campusride/internal/types"
)

const onlineSetKey = "presence:drivers:online"

// PresenceStore holds the fast-path online set. Presence is ephemeral by
// nature; the drivers table keeps the durable mirror.
type PresenceStore struct {
	redis *redis.Client
}

func NewPresenceStore(r *redis.Client) *PresenceStore {
	return &PresenceStore{redis: r}
}

var _ Presence = (*PresenceStore)(nil)

func (p *PresenceStore) SetOnline(ctx context.Context, id types.ID, online bool) error {
	if online {
		return p.redis.SAdd(ctx, onlineSetKey, string(id)).Err()
	}
	return p.redis.SRem(ctx, onlineSetKey, string(id)).Err()
}

func (p *PresenceStore) OnlineIDs(ctx context.Context) ([]types.ID, error) {
	members, err := p.redis.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

func (p *PresenceStore) IsOnline(ctx context.Context, id types.ID) (bool, error) {
	return p.redis.SIsMember(ctx, onlineSetKey, string(id)).Result()
}
