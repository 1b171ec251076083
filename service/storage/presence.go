package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence key: cm:presence:<user>, a hash with the online flag and the
// last-seen timestamp. The TTL bounds how long a crashed gateway can leave
// a user looking online.
func presenceKey(user string) string { return "cm:presence:" + user }

type PresenceRecord struct {
	UserID     string
	Online     bool
	LastSeenMS int64
}

type PresenceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresenceStore(rdb *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{rdb: rdb, ttl: ttl}
}

// SetOnline upserts the record and renews the TTL.
func (p *PresenceStore) SetOnline(ctx context.Context, user string, online bool, at time.Time) error {
	key := presenceKey(user)
	flag := "0"
	if online {
		flag = "1"
	}
	pipe := p.rdb.TxPipeline()
	pipe.HSet(ctx, key, "online", flag, "last_seen_ms", at.UnixMilli())
	pipe.Expire(ctx, key, p.ttl)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "presence upsert")
}

// Lookup returns the record, or Online=false when the key has expired.
func (p *PresenceStore) Lookup(ctx context.Context, user string) (*PresenceRecord, error) {
	vals, err := p.rdb.HGetAll(ctx, presenceKey(user)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "presence lookup")
	}
	rec := &PresenceRecord{UserID: user}
	if len(vals) == 0 {
		return rec, nil
	}
	rec.Online = vals["online"] == "1"
	rec.LastSeenMS, _ = strconv.ParseInt(vals["last_seen_ms"], 10, 64)
	return rec, nil
}
