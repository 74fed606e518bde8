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
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var meter = otel.Meter("github.com/cardinalhq/settingsd/internal/cachemgr")

type registryMetrics struct {
	invalidations metric.Int64Counter
	registration  metric.Registration
}

// newRegistryMetrics exports the ttlcache counters of every cache in r.
// Instrument failures are logged and never stop the registry from working.
func newRegistryMetrics(r *Registry) *registryMetrics {
	m := &registryMetrics{invalidations: noop.Int64Counter{}}

	inv, err := meter.Int64Counter(
		"settingsd.cache.invalidations",
		metric.WithDescription("Explicit cache invalidations (evict, clear, put)"),
	)
	if err != nil {
		slog.Warn("Failed to create cache invalidation counter", slog.Any("error", err))
	} else {
		m.invalidations = inv
	}

	hits, hitsErr := meter.Int64ObservableCounter("settingsd.cache.hits",
		metric.WithDescription("Cache lookups that found a live entry"))
	misses, missesErr := meter.Int64ObservableCounter("settingsd.cache.misses",
		metric.WithDescription("Cache lookups that found nothing"))
	insertions, insertionsErr := meter.Int64ObservableCounter("settingsd.cache.insertions",
		metric.WithDescription("Entries written into a cache"))
	evictions, evictionsErr := meter.Int64ObservableCounter("settingsd.cache.evictions",
		metric.WithDescription("Entries removed by expiration, capacity or invalidation"))
	if err := errors.Join(hitsErr, missesErr, insertionsErr, evictionsErr); err != nil {
		slog.Warn("Failed to create cache observable counters", slog.Any("error", err))
		return m
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, name := range r.Names() {
			c, ok := r.Get(name)
			if !ok {
				continue
			}
			stats := c.items.Metrics()
			attrs := metric.WithAttributes(attribute.String("cache", name))
			o.ObserveInt64(hits, int64(stats.Hits), attrs)
			o.ObserveInt64(misses, int64(stats.Misses), attrs)
			o.ObserveInt64(insertions, int64(stats.Insertions), attrs)
			o.ObserveInt64(evictions, int64(stats.Evictions), attrs)
		}
		return nil
	}, hits, misses, insertions, evictions)
	if err != nil {
		slog.Warn("Failed to register cache metrics callback", slog.Any("error", err))
		return m
	}
	m.registration = reg
	return m
}

func (m *registryMetrics) invalidated(cache, op string) {
	m.invalidations.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("op", op),
	))
}

func (m *registryMetrics) unregister() {
	if m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		slog.Warn("Failed to unregister cache metrics callback", slog.Any("error", err))
	}
}
