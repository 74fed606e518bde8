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

// Package idgen hands out process-unique, roughly time ordered ids.
package idgen

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/sony/sonyflake"
)

// epoch is the zero point of every id; changing it reorders existing ids.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var DefaultFlakeGenerator = defaultFlakeGenerator(NewFlakeGenerator)

// defaultFlakeGenerator falls back to random ids when no sonyflake can be
// built, typically on hosts without a private IPv4 address.
func defaultFlakeGenerator(build func() (*FlakeGenerator, error)) *FlakeGenerator {
	g, err := build()
	if err != nil {
		slog.Warn("Sonyflake unavailable, using random ids", slog.Any("error", err))
		return &FlakeGenerator{}
	}
	return g
}

// FlakeGenerator wraps a sonyflake. The zero value hands out random ids.
type FlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewFlakeGenerator derives the machine id from the host's private IPv4
// address.
func NewFlakeGenerator() (*FlakeGenerator, error) {
	return newFlakeGenerator(sonyflake.Settings{StartTime: epoch})
}

func newFlakeGenerator(st sonyflake.Settings) (*FlakeGenerator, error) {
	sf, err := sonyflake.New(st)
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("sonyflake: no generator created")
	}
	return &FlakeGenerator{sf: sf}, nil
}

// NextID returns a positive id that grows with time. If the generator is
// exhausted a random positive id is returned instead.
func (g *FlakeGenerator) NextID() int64 {
	if g.sf == nil {
		return randomID()
	}
	v, err := g.sf.NextID()
	if err != nil {
		return randomID()
	}
	return int64(v)
}

// InstanceID is NextID formatted for logs and metric attributes.
func (g *FlakeGenerator) InstanceID() string {
	return strconv.FormatInt(g.NextID(), 36)
}

func randomID() int64 {
	return rand.Int64N(1<<63-1) + 1
}
