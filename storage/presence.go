package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence is a best-effort cache of who is reachable, keyed per user with
// a TTL. The in-process session directory stays authoritative; this exists
// so other services can answer "is this user online" without asking the
// gateway, and it is the seam a future multi-instance deployment would
// extend.
type Presence struct {
	rdb *redis.Client
	ttl time.Duration
}

type PresenceConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewPresence(ctx context.Context, c PresenceConfig) (*Presence, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	if c.TTL <= 0 {
		c.TTL = 90 * time.Second
	}
	return &Presence{rdb: rdb, ttl: c.TTL}, nil
}

func (p *Presence) Close() error { return p.rdb.Close() }

// presence key: im:presence:<user>, value: gateway node id
func presenceKey(user string) string { return "im:presence:" + user }

// Online marks the user reachable and renews the TTL.
func (p *Presence) Online(ctx context.Context, user, nodeID string) error {
	return p.rdb.Set(ctx, presenceKey(user), nodeID, p.ttl).Err()
}

// Offline deletes the presence key.
func (p *Presence) Offline(ctx context.Context, user string) error {
	return p.rdb.Del(ctx, presenceKey(user)).Err()
}

// Lookup reports whether the user is marked online and on which node.
func (p *Presence) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
