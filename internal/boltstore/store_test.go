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

package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/configdb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func upsert(t *testing.T, s *Store, key, value string) configdb.Setting {
	t.Helper()
	out, err := s.UpsertSetting(context.Background(), configdb.UpsertSettingParams{Key: key, Value: value})
	require.NoError(t, err)
	return out
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.GetSettingByKey(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	n, err := s.CountSettingsByKey(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertKeepsSingleRecord(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first := upsert(t, s, "MAINTENANCE_STATUS", "true")
	assert.Equal(t, int64(1), first.ID)

	clock = clock.Add(time.Minute)
	second := upsert(t, s, "MAINTENANCE_STATUS", "false")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, clock, second.UpdatedAt)
	assert.Equal(t, "false", second.Value)

	got, err := s.GetSettingByKey(ctx, "MAINTENANCE_STATUS")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	n, err := s.CountSettingsByKey(ctx, "MAINTENANCE_STATUS")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestListOrderedByKey(t *testing.T) {
	s := openTestStore(t)
	for _, k := range []string{"c", "a", "b"} {
		upsert(t, s, k, k+"-value")
	}

	all, err := s.ListSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Key, all[1].Key, all[2].Key})
	assert.Equal(t, int64(2), all[0].ID)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := Open(path)
	require.NoError(t, err)
	upsert(t, s, "k", "v")
	s.Close()

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSettingByKey(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Value)
}

func TestCloseNil(t *testing.T) {
	var s *Store
	assert.NotPanics(t, s.Close)
}
