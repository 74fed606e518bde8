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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/configdb"
	"github.com/cardinalhq/settingsd/internal/adminconfig"
	"github.com/cardinalhq/settingsd/internal/boltstore"
	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/debugging"
	"github.com/cardinalhq/settingsd/internal/healthcheck"
	"github.com/cardinalhq/settingsd/internal/httpapi"
	"github.com/cardinalhq/settingsd/internal/mcptools"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/internal/status"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the settings API server",
		RunE:  serve,
	}
	rootCmd.AddCommand(cmd)
}

func serve(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addlAttrs := attribute.NewSet(attribute.String("store", cfg.Store.Backend))
	doneCtx, doneFx, err := setupTelemetry(cfg.Server.AppName, &addlAttrs)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := doneFx(); err != nil {
			slog.Error("Error shutting down telemetry", slog.Any("error", err))
		}
	}()

	registry, err := startupRegistry(cfg.Cache.Tiers)
	if err != nil {
		return err
	}
	defer registry.Close()
	caches := cachemgr.NewService(registry)

	debugging.RunPprof(doneCtx, cfg.Debug.PprofPort)

	// The health server runs with maintenance checks from the start; readiness
	// stays false until the store is open.
	probe := &maintenanceProbe{}
	healthServer := healthcheck.NewServer(healthcheck.Config{Port: cfg.Health.Port}, probe)
	go func() {
		if err := healthServer.Start(doneCtx); err != nil {
			slog.Error("Health check server stopped", slog.Any("error", err))
		}
	}()

	store, err := openStore(doneCtx, cfg.Store)
	if err != nil {
		healthServer.SetStatus(healthcheck.StatusUnhealthy)
		slog.Error("Failed to open settings store", slog.String("backend", cfg.Store.Backend), slog.Any("error", err))
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer store.Close()

	settingsSvc := settings.New(store)
	statusSvc := status.New(settingsSvc, caches)
	probe.svc.Store(statusSvc)

	admin, err := adminconfig.Setup(cfg.Admin.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load admin keys: %w", err)
	}
	if !admin.Enabled() {
		slog.Warn("No admin keys configured; administrative endpoints are open")
	}

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcptools.NewHTTPHandler(mcptools.NewServer(version, statusSvc, caches))
		slog.Info("MCP tools enabled", slog.String("path", cfg.Server.ContextPath+"/mcp"))
	}

	api := httpapi.New(httpapi.Config{
		Port:        cfg.Server.Port,
		ContextPath: cfg.Server.ContextPath,
		AppName:     cfg.Server.AppName,
	}, httpapi.Deps{
		Settings: settingsSvc,
		Status:   statusSvc,
		Caches:   caches,
		Admin:    admin,
		MCP:      mcpHandler,
	})

	healthServer.SetStatus(healthcheck.StatusHealthy)
	healthServer.SetReady(true)

	return api.Run(doneCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (configdb.QuerierFull, error) {
	switch cfg.Backend {
	case config.StoreBackendBolt:
		slog.Info("Using bolt settings store", slog.String("path", cfg.BoltPath))
		return boltstore.Open(cfg.BoltPath)
	default:
		slog.Info("Using postgres settings store")
		return configdb.ConfigDBStore(ctx)
	}
}

// maintenanceProbe lets the health server start before the status service
// exists. Until then the service is never in maintenance.
type maintenanceProbe struct {
	svc atomic.Pointer[status.Service]
}

func (p *maintenanceProbe) IsMaintenanceMode(ctx context.Context) bool {
	svc := p.svc.Load()
	if svc == nil {
		return false
	}
	return svc.IsMaintenanceMode(ctx)
}
