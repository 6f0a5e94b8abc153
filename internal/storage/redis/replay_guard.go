package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const signatureKeyPrefix = "sig:"

// ReplayGuard remembers login signatures for a window so each one is
// accepted only once.
type ReplayGuard struct {
	client *redis.Client
	window time.Duration
}

func NewReplayGuard(client *redis.Client, window time.Duration) *ReplayGuard {
	return &ReplayGuard{client: client, window: window}
}

// FirstSeen records signature and reports whether it had not been seen
// within the window.
func (g *ReplayGuard) FirstSeen(ctx context.Context, signature string) (bool, error) {
	ok, err := g.client.SetNX(ctx, signatureKeyPrefix+signature, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}
