package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:"

// Presence caches client liveness in redis so online checks don't hit the
// database on every dashboard poll. A heartbeat refreshes the key with the
// online-window TTL; key expiry is the offline signal.
type Presence struct {
	rdb *redis.Client
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

// Touch marks the client as seen now.
func (p *Presence) Touch(ctx context.Context, clientID string) error {
	key := presenceKeyPrefix + clientID
	if err := p.rdb.Set(ctx, key, "1", OnlineWindow).Err(); err != nil {
		return fmt.Errorf("set presence key: %w", err)
	}
	return nil
}

// Online reports whether the client's presence key is still alive. A missing
// key means offline; a transport error is returned so the caller can fall
// back to the persisted last-seen timestamp.
func (p *Presence) Online(ctx context.Context, clientID string) (bool, error) {
	key := presenceKeyPrefix + clientID
	if err := p.rdb.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get presence key: %w", err)
	}
	return true, nil
}

// Forget drops the presence key, used when a client is deleted.
func (p *Presence) Forget(ctx context.Context, clientID string) error {
	if err := p.rdb.Del(ctx, presenceKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("delete presence key: %w", err)
	}
	return nil
}
