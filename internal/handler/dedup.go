package handler

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Dedup remembers recently handled message ids so gateway replays are
// not processed twice. A nil Dedup remembers nothing.
type Dedup struct {
	cache *cache.Cache
}

func NewDedup(ttl time.Duration) *Dedup {
	if ttl <= 0 {
		return nil
	}
	return &Dedup{cache: cache.New(ttl, 2*ttl)}
}

// Seen records id and reports whether it was already recorded.
func (d *Dedup) Seen(id string) bool {
	if d == nil || id == "" {
		return false
	}
	return d.cache.Add(id, struct{}{}, cache.DefaultExpiration) != nil
}
