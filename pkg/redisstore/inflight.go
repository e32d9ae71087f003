package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/google/uuid"
)

// InflightGuard is a lease per check id shared by every engine pointed at
// the same redis. The TTL bounds how long a crashed engine can hold a check.
type InflightGuard struct {
	client *Client
	ttl    time.Duration
}

func NewInflightGuard(client *Client, ttl time.Duration) *InflightGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InflightGuard{client: client, ttl: ttl}
}

func inflightKey(checkID string) string {
	return fmt.Sprintf("inflight:%s", checkID)
}

// Acquire takes the lease for checkID. acquired is false when another
// execution still holds it. release is nil unless acquired is true.
func (g *InflightGuard) Acquire(ctx context.Context, checkID string) (release func(), acquired bool, err error) {
	const op = "store.redis.inflight_acquire"

	key := inflightKey(checkID)
	token := uuid.NewString()

	ok, err := g.client.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, false, apperror.New(apperror.Dependency, op, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		// the run context may already be cancelled on shutdown
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseInflightScript.Run(relCtx, g.client.rdb, []string{key}, token).Err()
	}

	return release, true, nil
}
