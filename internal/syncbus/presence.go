package syncbus

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "sync:online:"
	presenceTTL       = 90 * time.Second
)

// Presence tracks which users hold a live sync connection, shared across
// instances through Redis TTL keys. With Redis down it degrades to
// reporting everyone offline, which only affects diagnostics.
type Presence struct {
	rdb *redis.Client
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

func presenceKey(userID uint) string {
	return presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Mark records userID as online. Called on connect and on each heartbeat.
func (p *Presence) Mark(ctx context.Context, userID uint) {
	if p == nil || p.rdb == nil {
		return
	}
	p.rdb.Set(ctx, presenceKey(userID), "1", presenceTTL)
}

// Clear removes userID's presence on disconnect.
func (p *Presence) Clear(ctx context.Context, userID uint) {
	if p == nil || p.rdb == nil {
		return
	}
	p.rdb.Del(ctx, presenceKey(userID))
}

// IsOnline reports whether userID has a live connection anywhere.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	if p == nil || p.rdb == nil {
		return false
	}
	n, err := p.rdb.Exists(ctx, presenceKey(userID)).Result()
	return err == nil && n > 0
}
