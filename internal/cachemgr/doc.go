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

// Package cachemgr provides named, tiered in-memory caches.
//
// # Registry
//
// A Registry owns every NamedCache for the lifetime of the process. Each
// cache has its own Policy: entries expire a fixed time after they were
// written and the cache holds at most MaxEntries items. Three tiers are
// predefined (1 hour, 1 day, 7 days); the short tier is used for caches
// registered without an explicit policy.
//
// # Service
//
// Service is the mutation API: evict one key, clear one cache, clear every
// cache, or write one entry through. Operations against a cache that was
// never registered do nothing.
//
// # Memoization
//
// Service.Memoize replaces annotation style caching with explicit control
// flow: lookup, load on miss, write back. Write-back is guarded by a per
// cache generation counter so that an eviction issued after an authoritative
// write always wins over a reader that loaded the previous value.
package cachemgr
