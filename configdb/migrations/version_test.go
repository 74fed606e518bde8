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

package migrations

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMigrationVersionEmbedded(t *testing.T) {
	got, err := latestMigrationVersion(migrationFiles)
	require.NoError(t, err)
	assert.Equal(t, uint(1760000000), got)
}

func TestLatestMigrationVersion(t *testing.T) {
	files := fstest.MapFS{
		"1_first.up.sql":    {Data: []byte("SELECT 1")},
		"1_first.down.sql":  {Data: []byte("SELECT 1")},
		"20_second.up.sql":  {Data: []byte("SELECT 1")},
		"99_third.down.sql": {Data: []byte("SELECT 1")},
		"notes.txt":         {Data: []byte("ignored")},
		"abc_bad.up.sql":    {Data: []byte("ignored")},
	}
	got, err := latestMigrationVersion(files)
	require.NoError(t, err)
	assert.Equal(t, uint(20), got)

	_, err = latestMigrationVersion(fstest.MapFS{})
	assert.Error(t, err)
}

func TestOptionsFromEnv(t *testing.T) {
	base := CheckOptions{Mode: CheckModeWait, Timeout: time.Minute, RetryInterval: 5 * time.Second}

	t.Run("defaults untouched", func(t *testing.T) {
		t.Setenv("CONFIGDB_MIGRATION_CHECK_ENABLED", "")
		t.Setenv("MIGRATION_CHECK_TIMEOUT", "")
		t.Setenv("MIGRATION_CHECK_RETRY_INTERVAL", "")
		t.Setenv("MIGRATION_CHECK_ALLOW_DIRTY", "")
		assert.Equal(t, base, optionsFromEnv(base))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CONFIGDB_MIGRATION_CHECK_ENABLED", "false")
		t.Setenv("MIGRATION_CHECK_TIMEOUT", "30s")
		t.Setenv("MIGRATION_CHECK_RETRY_INTERVAL", "2s")
		t.Setenv("MIGRATION_CHECK_ALLOW_DIRTY", "true")

		got := optionsFromEnv(base)
		assert.Equal(t, CheckModeSkip, got.Mode)
		assert.Equal(t, 30*time.Second, got.Timeout)
		assert.Equal(t, 2*time.Second, got.RetryInterval)
		assert.True(t, got.AllowDirty)
	})

	t.Run("bad durations ignored", func(t *testing.T) {
		t.Setenv("MIGRATION_CHECK_TIMEOUT", "soon")
		assert.Equal(t, time.Minute, optionsFromEnv(base).Timeout)
	})
}

func TestCheckOptions(t *testing.T) {
	opts := CheckOptions{}
	for _, o := range []CheckOption{
		WithCheckMode(CheckModeWarn),
		WithTimeout(time.Second),
		WithRetryInterval(10 * time.Millisecond),
		WithAllowDirty(true),
	} {
		o(&opts)
	}
	assert.Equal(t, CheckOptions{Mode: CheckModeWarn, Timeout: time.Second, RetryInterval: 10 * time.Millisecond, AllowDirty: true}, opts)
	assert.Equal(t, "warn", opts.Mode.String())
}
