package identity

import (
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/opchan/core/replica"
)

// cache holds resolved identities for up to freshnessWindow, after which
// an entry's absence means "stale, needs refresh" — the TTL eviction IS
// the freshness window, not a separate timestamp we track ourselves.
type cache struct {
	lru *expirable.LRU[string, *replica.UserIdentity]
}

// cacheCapacity bounds memory use; an evicted-for-space (as opposed to
// evicted-for-age) entry just triggers one extra refresh on next Get.
const cacheCapacity = 4096

func newCache() *cache {
	return &cache{lru: expirable.NewLRU[string, *replica.UserIdentity](cacheCapacity, nil, freshnessWindow)}
}

func (c *cache) get(address string) (*replica.UserIdentity, bool) {
	return c.lru.Get(address)
}

func (c *cache) put(address string, id *replica.UserIdentity) {
	c.lru.Add(address, id)
}

func (c *cache) purge(address string) {
	c.lru.Remove(address)
}
