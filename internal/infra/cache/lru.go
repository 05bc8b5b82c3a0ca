package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"bazaar/internal/errors"
)

const defaultLRUSize = 4096

type lruEntry struct {
	accountID string
	expiresAt time.Time
}

// LRUCodeCache bounds memory by entry count; expiry is checked on read.
type LRUCodeCache struct {
	entries *lru.Cache[string, lruEntry]
	now     func() time.Time
}

func NewLRUCodeCache(size int) (*LRUCodeCache, error) {
	return newLRUCodeCache(size, time.Now)
}

func newLRUCodeCache(size int, now func() time.Time) (*LRUCodeCache, error) {
	if size <= 0 {
		size = defaultLRUSize
	}

	entries, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lru cache")
	}

	return &LRUCodeCache{entries: entries, now: now}, nil
}

func (c *LRUCodeCache) Get(_ context.Context, code string) (string, bool, error) {
	entry, ok := c.entries.Get(code)
	if !ok {
		return "", false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(code)

		return "", false, nil
	}

	return entry.accountID, true, nil
}

func (c *LRUCodeCache) Set(_ context.Context, code, providerAccountID string, ttl time.Duration) error {
	c.entries.Add(code, lruEntry{accountID: providerAccountID, expiresAt: c.now().Add(ttl)})

	return nil
}
