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

// Package settings validates and serves key/value settings over either
// settings store backend.
package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/settingsd/configdb"
	"github.com/cardinalhq/settingsd/internal/apperr"
)

// Querier defines the minimal store interface required by the settings service.
type Querier interface {
	GetSettingByKey(ctx context.Context, key string) (configdb.Setting, error)
	UpsertSetting(ctx context.Context, arg configdb.UpsertSettingParams) (configdb.Setting, error)
	ListSettings(ctx context.Context) ([]configdb.Setting, error)
}

type Service struct {
	querier Querier
}

func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// GetSettingByKey returns the setting stored under key. A blank key is a bad
// request and never reaches the store; a missing row is not found.
func (s *Service) GetSettingByKey(ctx context.Context, key string) (configdb.Setting, error) {
	if strings.TrimSpace(key) == "" {
		return configdb.Setting{}, apperr.BadRequest("")
	}
	setting, err := s.querier.GetSettingByKey(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return configdb.Setting{}, apperr.NotFound("Setting")
	}
	if err != nil {
		return configdb.Setting{}, apperr.Unhandled(err)
	}
	return setting, nil
}

// AddOrUpdate creates the setting or replaces its value in place.
func (s *Service) AddOrUpdate(ctx context.Context, key, value string) (configdb.Setting, error) {
	if strings.TrimSpace(key) == "" {
		return configdb.Setting{}, apperr.BadRequest("")
	}
	setting, err := s.querier.UpsertSetting(ctx, configdb.UpsertSettingParams{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return configdb.Setting{}, apperr.Unhandled(err)
	}
	return setting, nil
}

// ListSettings returns every setting ordered by key.
func (s *Service) ListSettings(ctx context.Context) ([]configdb.Setting, error) {
	all, err := s.querier.ListSettings(ctx)
	if err != nil {
		return nil, apperr.Unhandled(err)
	}
	if all == nil {
		all = []configdb.Setting{}
	}
	return all, nil
}
