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

//go:build integration
// +build integration

package configdb

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/configdb/migrations"
	"github.com/cardinalhq/settingsd/testhelpers"
)

var testServer *testhelpers.PostgresServer

func TestMain(m *testing.M) {
	server, err := testhelpers.StartPostgres()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	testServer = server

	code := m.Run()

	server.Stop()
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(testServer.SetupTestConfigDB(t))
}

func TestConnectToConfigDB(t *testing.T) {
	pool := testServer.SetupTestConfigDB(t)
	dbName := pool.Config().ConnConfig.Database
	t.Setenv("CONFIGDB_URL", testServer.URL(dbName))

	store, err := ConfigDBStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.UpsertSetting(context.Background(), UpsertSettingParams{Key: "K", Value: "v"})
	require.NoError(t, err)
	got, err := store.GetSettingByKey(context.Background(), "K")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Value)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("missing key", func(t *testing.T) {
		_, err := store.GetSettingByKey(ctx, "MAINTENANCE_STATUS")
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("upsert keeps one row per key", func(t *testing.T) {
		first, err := store.UpsertSetting(ctx, UpsertSettingParams{Key: "MAINTENANCE_STATUS", Value: "true"})
		require.NoError(t, err)
		second, err := store.UpsertSetting(ctx, UpsertSettingParams{Key: "MAINTENANCE_STATUS", Value: "false"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "false", second.Value)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

		count, err := store.CountSettingsByKey(ctx, "MAINTENANCE_STATUS")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		got, err := store.GetSettingByKey(ctx, "MAINTENANCE_STATUS")
		require.NoError(t, err)
		assert.Equal(t, "false", got.Value)
	})

	t.Run("list is ordered by key", func(t *testing.T) {
		_, err := store.UpsertSetting(ctx, UpsertSettingParams{Key: "A_KEY", Value: "1"})
		require.NoError(t, err)

		all, err := store.ListSettings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "A_KEY", all[0].Key)
		assert.Equal(t, "MAINTENANCE_STATUS", all[1].Key)
	})
}

func TestCheckVersionAfterMigrate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := migrations.CheckVersion(ctx, store.Pool(),
		migrations.WithCheckMode(migrations.CheckModeWait),
		migrations.WithTimeout(0),
	)
	assert.NoError(t, err)
}
