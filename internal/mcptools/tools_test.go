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

package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/internal/settings/settingstest"
	"github.com/cardinalhq/settingsd/internal/status"
)

type fixture struct {
	store  *settingstest.Querier
	caches *cachemgr.Service
	status *status.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := cachemgr.NewStandardRegistry(cachemgr.DefaultTiers())
	require.NoError(t, err)
	t.Cleanup(reg.Close)
	require.NoError(t, status.RegisterCaches(reg))

	store := settingstest.New()
	caches := cachemgr.NewService(reg)
	return &fixture{
		store:  store,
		caches: caches,
		status: status.New(settings.New(store), caches),
	}
}

func call(t *testing.T, h ToolHandler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestMaintenanceTools(t *testing.T) {
	f := newFixture(t)

	text, isErr := call(t, GetStatusHandler(f.status), nil)
	assert.False(t, isErr)
	assert.Equal(t, "OK", text)

	_, isErr = call(t, SetMaintenanceModeHandler(f.status), map[string]any{"enabled": true})
	assert.False(t, isErr)
	assert.True(t, f.status.IsMaintenanceMode(context.Background()))

	text, _ = call(t, GetStatusHandler(f.status), nil)
	assert.Equal(t, "MAINTENANCE: Service is in maintenance mode", text)

	_, isErr = call(t, SetMaintenanceModeHandler(f.status), map[string]any{"enabled": false})
	assert.False(t, isErr)
	assert.False(t, f.status.IsMaintenanceMode(context.Background()))
}

func TestSetMaintenanceModeErrors(t *testing.T) {
	f := newFixture(t)

	_, isErr := call(t, SetMaintenanceModeHandler(f.status), map[string]any{})
	assert.True(t, isErr)

	f.store.FailSets(errors.New("db down"))
	text, isErr := call(t, SetMaintenanceModeHandler(f.status), map[string]any{"enabled": true})
	assert.True(t, isErr)
	assert.Contains(t, text, "db down")
}

func TestCacheTools(t *testing.T) {
	f := newFixture(t)
	f.caches.Put(cachemgr.OneDayLiveCache, "a", 1)
	f.caches.Put(cachemgr.OneDayLiveCache, "b", 2)
	f.caches.Put(cachemgr.OneWeekLiveCache, "a", 3)

	text, isErr := call(t, ListCachesHandler(f.caches), nil)
	require.False(t, isErr)
	var listed []cacheSummary
	require.NoError(t, json.Unmarshal([]byte(text), &listed))
	require.Len(t, listed, 3)
	assert.Equal(t, cachemgr.OneDayLiveCache, listed[1].Name)
	assert.Equal(t, 2, listed[1].Size)

	_, isErr = call(t, EvictCacheHandler(f.caches), map[string]any{"name": cachemgr.OneDayLiveCache, "key": "a"})
	require.False(t, isErr)
	_, ok := f.caches.Get(cachemgr.OneDayLiveCache, "a")
	assert.False(t, ok)
	_, ok = f.caches.Get(cachemgr.OneDayLiveCache, "b")
	assert.True(t, ok)

	_, isErr = call(t, EvictCacheHandler(f.caches), map[string]any{"name": cachemgr.OneDayLiveCache})
	require.False(t, isErr)
	_, ok = f.caches.Get(cachemgr.OneDayLiveCache, "b")
	assert.False(t, ok)

	_, isErr = call(t, EvictCacheHandler(f.caches), map[string]any{"name": "nonexistent-cache"})
	assert.False(t, isErr)

	_, isErr = call(t, EvictCacheHandler(f.caches), map[string]any{})
	assert.True(t, isErr)

	_, isErr = call(t, EvictAllCachesHandler(f.caches), nil)
	require.False(t, isErr)
	_, ok = f.caches.Get(cachemgr.OneWeekLiveCache, "a")
	assert.False(t, ok)
}

func TestNewServer(t *testing.T) {
	f := newFixture(t)
	s := NewServer("test", f.status, f.caches)
	require.NotNil(t, s)
	assert.NotNil(t, NewHTTPHandler(s))
}
