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
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"
)

// Service is the only component that mutates cache contents outside of
// memoized reads. None of its operations fail: a missing cache or key is a
// silent no-op.
type Service struct {
	registry *Registry
	flights  singleflight.Group
}

func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// EvictAll removes every entry of the named cache.
func (s *Service) EvictAll(cacheName string) {
	c, ok := s.registry.Get(cacheName)
	if !ok {
		slog.Debug("EvictAll on unknown cache ignored", slog.String("cache", cacheName))
		return
	}
	c.clear()
	s.registry.metrics.invalidated(cacheName, "clear")
}

// EvictKey removes one entry from the named cache.
func (s *Service) EvictKey(cacheName, key string) {
	c, ok := s.registry.Get(cacheName)
	if !ok {
		slog.Debug("EvictKey on unknown cache ignored", slog.String("cache", cacheName), slog.String("key", key))
		return
	}
	c.evict(key)
	s.registry.metrics.invalidated(cacheName, "evict")
}

// EvictEverything clears every registered cache. A failure on one cache is
// logged and does not stop the others from being cleared.
func (s *Service) EvictEverything() {
	var errs *multierror.Error
	for _, name := range s.registry.Names() {
		if err := s.clearRecovering(name); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		slog.Error("Some caches could not be cleared", slog.Any("error", err))
	}
}

func (s *Service) clearRecovering(name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clear cache %q: %v", name, r)
		}
	}()
	s.EvictAll(name)
	return nil
}

// Put inserts or overwrites one entry and resets its write time.
func (s *Service) Put(cacheName, key string, value any) {
	c, ok := s.registry.Get(cacheName)
	if !ok {
		slog.Debug("Put on unknown cache ignored", slog.String("cache", cacheName), slog.String("key", key))
		return
	}
	c.put(key, value)
	s.registry.metrics.invalidated(cacheName, "put")
}

// Get looks up one entry.
func (s *Service) Get(cacheName, key string) (any, bool) {
	c, ok := s.registry.Get(cacheName)
	if !ok {
		return nil, false
	}
	return c.get(key)
}

// Memoize returns the cached value for key, calling load on a miss and
// writing its result back. Load errors are returned and never cached.
//
// The write-back is skipped when the cache was evicted, cleared or written
// while load ran, so an invalidation issued after an authoritative write
// can never be undone by a reader that loaded the old value. Concurrent
// misses for the same key within one generation share a single load.
func (s *Service) Memoize(cacheName, key string, load func() (any, error)) (any, error) {
	c, ok := s.registry.Get(cacheName)
	if !ok {
		return load()
	}
	if v, ok := c.get(key); ok {
		return v, nil
	}

	gen := c.generation.Load()
	flight := cacheName + "\x00" + key + "\x00" + strconv.FormatUint(gen, 10)
	v, err, _ := s.flights.Do(flight, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if !c.fill(key, v, gen) {
			slog.Debug("Discarded value loaded before invalidation",
				slog.String("cache", cacheName), slog.String("key", key))
		}
		return v, nil
	})
	return v, err
}

// Memoized is the typed form of Service.Memoize. A cached value of another
// type is treated as a miss.
func Memoized[T any](s *Service, cacheName, key string, load func() (T, error)) (T, error) {
	v, err := s.Memoize(cacheName, key, func() (any, error) {
		t, err := load()
		return t, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	s.EvictKey(cacheName, key)
	return load()
}
