// Package cache keeps draft responses keyed by the sanitized input so a
// repeated request skips the LLM round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"

	appLog "ducktape/internal/log"
)

// DefaultSize is the number of drafts kept when no size is configured.
const DefaultSize = 100

// ResponseCache is a bounded LRU of draft strings. It is safe for
// concurrent use; the last Put for a key wins.
type ResponseCache struct {
	entries *lru.Cache[string, string]
}

// New returns a cache holding up to size drafts (DefaultSize if size <= 0).
func New(size int) (*ResponseCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &ResponseCache{entries: entries}, nil
}

// Key is the hex sha256 of the sanitized input.
func Key(sanitized string) string {
	sum := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached draft for a sanitized input.
func (c *ResponseCache) Get(sanitized string) (string, bool) {
	v, ok := c.entries.Get(Key(sanitized))
	if ok {
		appLog.Debug("cache hit", "key", Key(sanitized)[:12])
	}
	return v, ok
}

// Put stores the draft for a sanitized input.
func (c *ResponseCache) Put(sanitized, draft string) {
	if evicted := c.entries.Add(Key(sanitized), draft); evicted {
		appLog.Debug("cache evicted oldest entry", "size", c.entries.Len())
	}
}

// Len is the number of cached drafts.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *ResponseCache) Purge() {
	n := c.entries.Len()
	c.entries.Purge()
	appLog.Info("cache purged", "entries", n)
}

// SchedulePurge purges the cache on a standard five-field cron schedule.
// The returned stop function halts the scheduler.
func (c *ResponseCache) SchedulePurge(spec string) (stop func(), err error) {
	sched := cron.New()
	if _, err := sched.AddFunc(spec, c.Purge); err != nil {
		return nil, fmt.Errorf("cache: purge schedule %q: %w", spec, err)
	}
	sched.Start()
	return func() { <-sched.Stop().Done() }, nil
}
