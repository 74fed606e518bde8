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

// Package httpapi serves the status, settings and cache administration
// endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cardinalhq/settingsd/internal/adminconfig"
	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/internal/status"
)

const (
	maintenanceTogglePath = "/status/maintainable"
	adminKeyHeader        = "x-settingsd-admin-key"
	requestIDHeader       = "X-Request-Id"
)

type Config struct {
	Port int
	// ContextPath prefixes every route, e.g. "/api".
	ContextPath string
	AppName     string
}

// Deps are the services behind the routes. MCP is optional.
type Deps struct {
	Settings *settings.Service
	Status   *status.Service
	Caches   *cachemgr.Service
	Admin    adminconfig.Provider
	MCP      http.Handler
}

type Server struct {
	cfg      Config
	settings *settings.Service
	status   *status.Service
	caches   *cachemgr.Service
	admin    adminconfig.Provider
	mcp      http.Handler
	metrics  *httpMetrics
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.AppName == "" {
		cfg.AppName = "settingsd"
	}
	cfg.ContextPath = strings.TrimRight(cfg.ContextPath, "/")
	return &Server{
		cfg:      cfg,
		settings: deps.Settings,
		status:   deps.Status,
		caches:   deps.Caches,
		admin:    deps.Admin,
		mcp:      deps.MCP,
		metrics:  newHTTPMetrics(),
	}
}

// Handler returns the routes wrapped in request logging, security headers
// and the maintenance gate, in that order.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.handleGetStatus)
	mux.HandleFunc("POST /status/maintainable/{status}", s.requireAdmin(adminconfig.ScopeMaintenance, s.handleSetMaintenance))

	mux.HandleFunc("GET /api/v1/settings", s.handleListSettings)
	mux.HandleFunc("GET /api/v1/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/v1/settings/{key}", s.requireAdmin(adminconfig.ScopeSettings, s.handlePutSetting))
	mux.HandleFunc("GET /api/v1/setting/{key}", deprecated("v1.1", "</api/v1/settings/{key}>; rel=\"successor-version\"", s.handleGetSetting))

	mux.HandleFunc("GET /api/v1/caches", s.handleListCaches)
	mux.HandleFunc("DELETE /api/v1/caches", s.requireAdmin(adminconfig.ScopeCaches, s.handleEvictEverything))
	mux.HandleFunc("DELETE /api/v1/caches/{name}", s.requireAdmin(adminconfig.ScopeCaches, s.handleEvictCache))
	mux.HandleFunc("DELETE /api/v1/caches/{name}/{key}", s.requireAdmin(adminconfig.ScopeCaches, s.handleEvictKey))

	if s.mcp != nil {
		mux.Handle("/mcp", s.requireAdmin(adminconfig.ScopeMaintenance,
			s.requireAdmin(adminconfig.ScopeCaches, s.mcp.ServeHTTP)))
	}

	var h http.Handler = mux
	if s.cfg.ContextPath != "" {
		root := http.NewServeMux()
		root.Handle(s.cfg.ContextPath+"/", http.StripPrefix(s.cfg.ContextPath, mux))
		h = root
	}

	return s.logRequests(securityHeaders(s.maintenanceGate(h)))
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s.Handler(), s.cfg.AppName),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting settings API", slog.String("addr", addr), slog.String("contextPath", s.cfg.ContextPath))

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
