// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cachemgr

import (
	"sync"
	"sync/atomic"

	"github.com/jellydator/ttlcache/v3"
)

// NamedCache is one registered cache. Entries live in a ttlcache with
// expire-after-write semantics. The entry cap is enforced here rather than
// by ttlcache, whose capacity eviction follows read order: when a new key
// would exceed MaxEntries, the least recently written entry is dropped.
//
// Every mutation (clear, evict, put) takes mu and bumps generation, so a
// memoized fill that started before the mutation can detect it and drop
// its value instead of resurrecting stale data.
type NamedCache struct {
	name   string
	policy Policy

	mu         sync.Mutex
	generation atomic.Uint64
	items      *ttlcache.Cache[string, any]
}

func newNamedCache(name string, policy Policy) *NamedCache {
	items := ttlcache.New(
		ttlcache.WithTTL[string, any](policy.TTL),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	go items.Start()
	return &NamedCache{
		name:   name,
		policy: policy,
		items:  items,
	}
}

func (c *NamedCache) Name() string {
	return c.name
}

func (c *NamedCache) Policy() Policy {
	return c.policy
}

// Len includes entries that have expired but not yet been collected.
func (c *NamedCache) Len() int {
	return c.items.Len()
}

func (c *NamedCache) get(key string) (any, bool) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *NamedCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation.Add(1)
	c.items.DeleteAll()
}

func (c *NamedCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation.Add(1)
	c.items.Delete(key)
}

func (c *NamedCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation.Add(1)
	c.set(key, value)
}

// fill stores a loaded value only if nothing mutated the cache since gen
// was observed.
func (c *NamedCache) fill(key string, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation.Load() != gen {
		return false
	}
	c.set(key, value)
	return true
}

// set writes one entry, making room first when key is new and the cache is
// full. Callers hold mu.
func (c *NamedCache) set(key string, value any) {
	if !c.items.Has(key) {
		c.items.DeleteExpired()
		for c.items.Len() >= c.policy.MaxEntries {
			if !c.dropOldestWrite() {
				break
			}
		}
	}
	c.items.Set(key, value, ttlcache.DefaultTTL)
}

// dropOldestWrite deletes the entry written longest ago. Every entry of a
// cache shares one TTL, so the earliest expiry is the earliest write.
func (c *NamedCache) dropOldestWrite() bool {
	var oldest *ttlcache.Item[string, any]
	for _, item := range c.items.Items() {
		if oldest == nil || item.ExpiresAt().Before(oldest.ExpiresAt()) {
			oldest = item
		}
	}
	if oldest == nil {
		return false
	}
	c.items.Delete(oldest.Key())
	return true
}

func (c *NamedCache) stop() {
	c.items.Stop()
}
