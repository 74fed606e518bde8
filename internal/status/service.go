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

// Package status derives the service status from the persisted maintenance
// setting and keeps the cached maintenance flag in step with writes to it.
package status

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cardinalhq/settingsd/configdb"
	"github.com/cardinalhq/settingsd/internal/apperr"
	"github.com/cardinalhq/settingsd/internal/cachemgr"
)

var tracer = otel.Tracer("github.com/cardinalhq/settingsd/internal/status")

type State string

const (
	OK          State = "OK"
	Maintenance State = "MAINTENANCE"
)

const (
	// MaintenanceKey is the setting holding "true" or "false".
	MaintenanceKey = "MAINTENANCE_STATUS"
	// CacheName is the cache holding the derived maintenance flag.
	CacheName = "isMaintenanceCache"

	maintenanceCacheKey = "maintenanceStatus"
	maintenanceMessage  = "Service is in maintenance mode"

	// loadTimeout bounds the shared store read behind IsMaintenanceMode.
	loadTimeout = 5 * time.Second
)

type Response struct {
	Status  State  `json:"status"`
	Message string `json:"message"`
}

// SettingStore is the part of settings.Service the status service needs.
type SettingStore interface {
	GetSettingByKey(ctx context.Context, key string) (configdb.Setting, error)
	AddOrUpdate(ctx context.Context, key, value string) (configdb.Setting, error)
}

type Service struct {
	settings SettingStore
	caches   *cachemgr.Service
}

func New(settings SettingStore, caches *cachemgr.Service) *Service {
	return &Service{settings: settings, caches: caches}
}

// RegisterCaches adds the maintenance flag cache to r on the default tier.
func RegisterCaches(r *cachemgr.Registry) error {
	return r.RegisterDefault(CacheName)
}

// GetStatus reads the maintenance setting straight from the store. Only an
// exact case-insensitive "true" means maintenance; a missing setting, any
// other value, or a failed read reports OK.
func (s *Service) GetStatus(ctx context.Context) Response {
	ctx, span := tracer.Start(ctx, "status.get_status")
	defer span.End()

	resp, err := s.status(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Warn("Failed to read maintenance setting, reporting OK", slog.Any("error", err))
		return Response{Status: OK}
	}
	span.SetAttributes(attribute.String("status", string(resp.Status)))
	return resp
}

// status is GetStatus without the fallback for store failures.
func (s *Service) status(ctx context.Context) (Response, error) {
	setting, err := s.settings.GetSettingByKey(ctx, MaintenanceKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return Response{Status: OK}, nil
	}
	if err != nil {
		return Response{Status: OK}, err
	}
	if strings.EqualFold(setting.Value, "true") {
		return Response{Status: Maintenance, Message: maintenanceMessage}, nil
	}
	return Response{Status: OK}, nil
}

// IsMaintenanceMode answers from the cache when it can. A failed store read
// is not cached and reports false.
//
// Concurrent misses share one load, so the load runs detached from the
// cancellation of whichever caller started it.
func (s *Service) IsMaintenanceMode(ctx context.Context) bool {
	on, err := cachemgr.Memoized(s.caches, CacheName, maintenanceCacheKey, func() (bool, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		resp, err := s.status(loadCtx)
		if err != nil {
			return false, err
		}
		return resp.Status == Maintenance, nil
	})
	if err != nil {
		slog.Warn("Failed to compute maintenance mode, assuming off", slog.Any("error", err))
		return false
	}
	return on
}

// SetMaintenanceMode persists the flag and then drops the cached value. When
// the write fails the cache is left alone and the error is returned as is.
func (s *Service) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	ctx, span := tracer.Start(ctx, "status.set_maintenance_mode")
	defer span.End()
	span.SetAttributes(attribute.Bool("enabled", enabled))

	if _, err := s.settings.AddOrUpdate(ctx, MaintenanceKey, strconv.FormatBool(enabled)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return err
	}
	s.caches.EvictKey(CacheName, maintenanceCacheKey)
	span.AddEvent("cache evicted")
	slog.Info("Maintenance mode updated", slog.Bool("enabled", enabled))
	return nil
}
