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

package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintenance struct {
	on atomic.Bool
}

func (f *fakeMaintenance) IsMaintenanceMode(context.Context) bool {
	return f.on.Load()
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusStarting, "starting"},
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
		{Status(999), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestNewServerDefaultPort(t *testing.T) {
	assert.Equal(t, 8090, NewServer(Config{}, nil).port)
	assert.Equal(t, 9090, NewServer(Config{Port: 9090}, nil).port)
}

func probe(t *testing.T, s *Server, path string) (int, Response) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	return rr.Code, resp
}

func TestHealthAndLiveness(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		endpoint string
		wantCode int
	}{
		{"healthz starting", StatusStarting, "/healthz", http.StatusServiceUnavailable},
		{"healthz healthy", StatusHealthy, "/healthz", http.StatusOK},
		{"healthz unhealthy", StatusUnhealthy, "/healthz", http.StatusServiceUnavailable},
		{"livez starting", StatusStarting, "/livez", http.StatusOK},
		{"livez healthy", StatusHealthy, "/livez", http.StatusOK},
		{"livez unhealthy", StatusUnhealthy, "/livez", http.StatusServiceUnavailable},
	}
	s := NewServer(Config{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetStatus(tt.status)
			code, resp := probe(t, s, tt.endpoint)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode == http.StatusOK, resp.Healthy)
			assert.Equal(t, tt.status.String(), resp.Status)
		})
	}
}

func TestReadiness(t *testing.T) {
	m := &fakeMaintenance{}
	s := NewServer(Config{}, m)
	s.SetStatus(StatusHealthy)

	code, _ := probe(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code, "not ready before SetReady")

	s.SetReady(true)
	code, resp := probe(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Healthy)

	m.on.Store(true)
	code, resp = probe(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, resp.Maintenance)

	m.on.Store(false)
	s.SetReadyCondition("settings_store", false)
	code, _ = probe(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s.ClearReadyCondition("settings_store")
	assert.True(t, s.IsReady(context.Background()))
}

func TestStartStopsOnCancel(t *testing.T) {
	s := NewServer(Config{Port: 0}, nil)
	s.port = 0
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
