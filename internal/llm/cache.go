package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	expiry time.Time
	answer string
}

// answerCache remembers answers per rendered prompt. Expired entries are
// dropped lazily on access and when the cache grows past maxEntries.
type answerCache struct {
	entries    map[string]cacheEntry
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	mu         sync.Mutex
}

func newAnswerCache(ttl time.Duration) *answerCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &answerCache{
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
		ttl:        ttl,
		maxEntries: 256,
	}
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (c *answerCache) get(prompt string) (string, bool) {
	if c.ttl < 0 {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(prompt)
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiry) {
		delete(c.entries, key)
		return "", false
	}
	return entry.answer, true
}

func (c *answerCache) set(prompt, answer string) {
	if c.ttl < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= c.maxEntries {
		for k, e := range c.entries {
			if now.After(e.expiry) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.maxEntries {
			clear(c.entries)
		}
	}

	c.entries[cacheKey(prompt)] = cacheEntry{answer: answer, expiry: now.Add(c.ttl)}
}
