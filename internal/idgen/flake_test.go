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

package idgen

import (
	"errors"
	"strconv"
	"testing"

	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerator(t *testing.T) *FlakeGenerator {
	t.Helper()
	gen, err := newFlakeGenerator(sonyflake.Settings{
		StartTime: epoch,
		MachineID: func() (uint16, error) { return 7, nil },
	})
	require.NoError(t, err)
	return gen
}

func TestFlakeGenerator_NextID(t *testing.T) {
	gen := testGenerator(t)

	id := gen.NextID()
	id2 := gen.NextID()
	assert.Positive(t, id)
	assert.Greater(t, id2, id)
}

func TestFlakeGenerator_InstanceID(t *testing.T) {
	gen := testGenerator(t)
	id := gen.InstanceID()
	require.NotEmpty(t, id)

	n, err := strconv.ParseInt(id, 36, 64)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.NotEqual(t, id, gen.InstanceID())
}

func TestDefaultFlakeGeneratorFallsBackToRandom(t *testing.T) {
	gen := defaultFlakeGenerator(func() (*FlakeGenerator, error) {
		return nil, errors.New("no private ip address")
	})
	require.NotNil(t, gen)

	seen := make(map[int64]bool)
	for range 100 {
		id := gen.NextID()
		assert.Positive(t, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90)

	n, err := strconv.ParseInt(gen.InstanceID(), 36, 64)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestDefaultFlakeGeneratorIsUsable(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Positive(t, DefaultFlakeGenerator.NextID())
	})
}
