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

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/internal/settings/settingstest"
	"github.com/cardinalhq/settingsd/internal/status"
)

func TestPrintCaches(t *testing.T) {
	registry, err := startupRegistry(cachemgr.DefaultTiers())
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	var buf bytes.Buffer
	require.NoError(t, printCaches(&buf, registry))
	out := buf.String()

	for _, want := range []string{"short", "medium", "long", "1h0m0s", "168h0m0s",
		status.CacheName, cachemgr.OneDayLiveCache, cachemgr.OneWeekLiveCache} {
		assert.Contains(t, out, want)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 9)
}

func TestStartupRegistryRejectsBadTiers(t *testing.T) {
	tiers := cachemgr.DefaultTiers()
	tiers.Short.TTL = 0
	_, err := startupRegistry(tiers)
	assert.Error(t, err)
}

func TestMaintenanceProbe(t *testing.T) {
	probe := &maintenanceProbe{}
	ctx := context.Background()
	assert.False(t, probe.IsMaintenanceMode(ctx))

	registry, err := startupRegistry(cachemgr.DefaultTiers())
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	q := settingstest.New()
	svc := status.New(settings.New(q), cachemgr.NewService(registry))
	require.NoError(t, svc.SetMaintenanceMode(ctx, true))
	probe.svc.Store(svc)

	assert.True(t, probe.IsMaintenanceMode(ctx))
}
