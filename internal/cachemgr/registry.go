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
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrConflictingPolicy is returned when a name is registered twice with
	// different policies. Treat it as a fatal configuration error.
	ErrConflictingPolicy = errors.New("cache already registered with a different policy")
	ErrInvalidCacheName  = errors.New("cache name must not be blank")
)

// Registry owns every named cache for the lifetime of the process.
// Create one at startup, hand it to the services that need it and Close
// it on shutdown.
type Registry struct {
	tiers Tiers

	mu     sync.RWMutex
	caches map[string]*NamedCache
	closed bool

	metrics *registryMetrics
}

// NewRegistry creates an empty registry using tiers for RegisterDefault.
func NewRegistry(tiers Tiers) (*Registry, error) {
	if err := tiers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache tiers: %w", err)
	}
	r := &Registry{
		tiers:  tiers,
		caches: make(map[string]*NamedCache),
	}
	r.metrics = newRegistryMetrics(r)
	return r, nil
}

// NewStandardRegistry creates a registry holding the day and week caches.
func NewStandardRegistry(tiers Tiers) (*Registry, error) {
	r, err := NewRegistry(tiers)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		r.Register(OneDayLiveCache, tiers.Medium),
		r.Register(OneWeekLiveCache, tiers.Long),
	); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) Tiers() Tiers {
	return r.tiers
}

// Register declares a cache. Registering the same name with an identical
// policy is a no-op.
func (r *Registry) Register(name string, policy Policy) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidCacheName
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("cache %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("cache %q: registry is closed", name)
	}
	if existing, ok := r.caches[name]; ok {
		if existing.policy == policy {
			return nil
		}
		return fmt.Errorf("%w: %q has %s, requested %s", ErrConflictingPolicy, name, existing.policy, policy)
	}

	r.caches[name] = newNamedCache(name, policy)
	slog.Debug("Registered cache", slog.String("cache", name), slog.Duration("ttl", policy.TTL), slog.Int("maxEntries", policy.MaxEntries))
	return nil
}

// RegisterDefault declares a cache with the short tier policy.
func (r *Registry) RegisterDefault(name string) error {
	return r.Register(name, r.tiers.Short)
}

// Get returns the named cache. A missing cache is a normal outcome and
// callers treat it as "nothing to do".
func (r *Registry) Get(name string) (*NamedCache, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caches[name]
	return c, ok
}

// Names returns the registered cache names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Close stops the expiration loops of every cache. Safe to call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	caches := make([]*NamedCache, 0, len(r.caches))
	for _, c := range r.caches {
		caches = append(caches, c)
	}
	r.mu.Unlock()

	r.metrics.unregister()
	for _, c := range caches {
		c.stop()
	}
}
