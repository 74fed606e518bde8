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

// Package healthcheck serves the liveness, health and readiness probes on a
// port separate from the API.
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Status int32

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MaintenanceChecker reports whether the service is refusing traffic.
type MaintenanceChecker interface {
	IsMaintenanceMode(ctx context.Context) bool
}

type Response struct {
	Healthy     bool   `json:"healthy"`
	Status      string `json:"status"`
	Maintenance bool   `json:"maintenance,omitempty"`
}

type Config struct {
	Port int
}

type Server struct {
	port        int
	status      atomic.Int32
	ready       atomic.Bool
	conditions  sync.Map // condition name -> bool
	maintenance MaintenanceChecker
	server      *http.Server
}

func NewServer(config Config, maintenance MaintenanceChecker) *Server {
	if config.Port == 0 {
		config.Port = 8090
	}
	return &Server{
		port:        config.Port,
		maintenance: maintenance,
	}
}

func (s *Server) SetStatus(status Status) {
	s.status.Store(int32(status))
	slog.Debug("Health check status updated", slog.String("status", status.String()))
}

func (s *Server) GetStatus() Status {
	return Status(s.status.Load())
}

func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	slog.Debug("Ready status updated", slog.Bool("ready", ready))
}

// SetReadyCondition sets a named readiness condition. Every condition must
// be true, together with SetReady(true), for the server to be ready.
func (s *Server) SetReadyCondition(name string, ready bool) {
	s.conditions.Store(name, ready)
	slog.Debug("Ready condition updated", slog.String("condition", name), slog.Bool("ready", ready))
}

func (s *Server) ClearReadyCondition(name string) {
	s.conditions.Delete(name)
}

func (s *Server) inMaintenance(ctx context.Context) bool {
	return s.maintenance != nil && s.maintenance.IsMaintenanceMode(ctx)
}

// IsReady is false while starting, while any condition is false and while
// maintenance mode is on.
func (s *Server) IsReady(ctx context.Context) bool {
	if !s.ready.Load() {
		return false
	}
	ready := true
	s.conditions.Range(func(_, value any) bool {
		if !value.(bool) {
			ready = false
			return false
		}
		return true
	})
	return ready && !s.inMaintenance(ctx)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthzHandler)
	mux.HandleFunc("GET /readyz", s.readyzHandler)
	mux.HandleFunc("GET /livez", s.livezHandler)
	return mux
}

// Start serves the probes until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("Starting health check server", slog.Int("port", s.port))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return fmt.Errorf("health check server: %w", err)
	}
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	slog.Info("Stopping health check server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func writeProbe(w http.ResponseWriter, ok bool, resp Response) {
	resp.Healthy = ok
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode health check response", slog.Any("error", err))
	}
}

func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	status := s.GetStatus()
	writeProbe(w, status == StatusHealthy, Response{Status: status.String()})
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	maintenance := s.inMaintenance(r.Context())
	writeProbe(w, s.IsReady(r.Context()), Response{
		Status:      s.GetStatus().String(),
		Maintenance: maintenance,
	})
}

func (s *Server) livezHandler(w http.ResponseWriter, _ *http.Request) {
	status := s.GetStatus()
	writeProbe(w, status != StatusUnhealthy, Response{Status: status.String()})
}
