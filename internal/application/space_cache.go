package application

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultSpaceCacheSize = 256
	defaultSpaceCacheTTL  = 30 * time.Second
)

// SpaceReader is the read path reservations take to load spaces and their rules.
type SpaceReader interface {
	GetSpace(ctx context.Context, id string) (Space, error)
	ListSpaces(ctx context.Context) ([]Space, error)
}

// SpaceCache keeps recently read spaces so reservation traffic does not reload
// settings on every request. SpaceService invalidates entries on every write.
type SpaceCache struct {
	source  SpaceReader
	entries *expirable.LRU[string, Space]
}

// NewSpaceCache wraps source with a bounded, expiring cache.
func NewSpaceCache(source SpaceReader, size int, ttl time.Duration) *SpaceCache {
	if size <= 0 {
		size = defaultSpaceCacheSize
	}
	if ttl <= 0 {
		ttl = defaultSpaceCacheTTL
	}
	return &SpaceCache{
		source:  source,
		entries: expirable.NewLRU[string, Space](size, nil, ttl),
	}
}

// GetSpace returns the cached space or loads it from the source.
func (c *SpaceCache) GetSpace(ctx context.Context, id string) (Space, error) {
	if space, ok := c.entries.Get(id); ok {
		return cloneSpace(space), nil
	}
	space, err := c.source.GetSpace(ctx, id)
	if err != nil {
		return Space{}, err
	}
	c.entries.Add(id, cloneSpace(space))
	return cloneSpace(space), nil
}

// ListSpaces reads every space from the source. Listings are not cached.
func (c *SpaceCache) ListSpaces(ctx context.Context) ([]Space, error) {
	return c.source.ListSpaces(ctx)
}

// Invalidate drops the entry for id.
func (c *SpaceCache) Invalidate(id string) {
	if c == nil {
		return
	}
	c.entries.Remove(id)
}

// Len returns the number of live entries.
func (c *SpaceCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneSpace(space Space) Space {
	if len(space.Settings) > 0 {
		space.Settings = append(space.Settings[:0:0], space.Settings...)
	}
	return space
}
