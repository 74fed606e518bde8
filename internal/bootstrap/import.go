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

// Package bootstrap seeds the settings store from a YAML file.
package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/settingsd/configdb"
	"github.com/cardinalhq/settingsd/internal/logctx"
	"github.com/cardinalhq/settingsd/internal/status"
)

const SupportedVersion = 1

// SettingWriter is the write side of settings.Service.
type SettingWriter interface {
	AddOrUpdate(ctx context.Context, key, value string) (configdb.Setting, error)
}

// ImportFromYAML upserts every setting in the file. The whole file is
// validated before the first write, so a bad entry leaves the store as it
// was. Running processes keep serving their cached maintenance flag until it
// expires.
func ImportFromYAML(ctx context.Context, filePath string, store SettingWriter) error {
	ll := logctx.FromContext(ctx)

	ll.Info("Starting bootstrap import from YAML", slog.String("file", filePath))

	config, err := loadConfig(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entries, err := config.entries()
	if err != nil {
		return err
	}

	ll.Info("Loaded bootstrap configuration", slog.Int("settings", len(entries)))

	for _, e := range entries {
		if _, err := store.AddOrUpdate(ctx, e.Key, e.Value); err != nil {
			return fmt.Errorf("failed to import setting %q: %w", e.Key, err)
		}
		ll.Debug("Imported setting", slog.String("key", e.Key))
	}

	ll.Info("Bootstrap import completed successfully", slog.Int("settings", len(entries)))
	return nil
}

func loadConfig(filePath string) (*BootstrapConfig, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var config BootstrapConfig
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(false) // Allow unknown fields for forward compatibility
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// entries validates c and returns the settings to write in file order, with
// the maintenance flag last.
func (c *BootstrapConfig) entries() ([]Setting, error) {
	if c.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported config version %d, expected %d", c.Version, SupportedVersion)
	}

	var errs []error
	seen := make(map[string]bool, len(c.Settings))
	out := make([]Setting, 0, len(c.Settings)+1)
	for i, s := range c.Settings {
		switch {
		case strings.TrimSpace(s.Key) == "":
			errs = append(errs, fmt.Errorf("settings[%d]: key is required", i))
			continue
		case seen[s.Key]:
			errs = append(errs, fmt.Errorf("settings[%d]: duplicate key %q", i, s.Key))
			continue
		}
		seen[s.Key] = true

		if s.Key == status.MaintenanceKey {
			if c.Maintenance != nil {
				errs = append(errs, fmt.Errorf("settings[%d]: %s is also set by maintenance", i, s.Key))
				continue
			}
			on, err := strconv.ParseBool(s.Value)
			if err != nil {
				errs = append(errs, fmt.Errorf("settings[%d]: %s must be true or false, got %q", i, s.Key, s.Value))
				continue
			}
			s.Value = strconv.FormatBool(on)
		}
		out = append(out, s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if c.Maintenance != nil {
		out = append(out, Setting{Key: status.MaintenanceKey, Value: strconv.FormatBool(*c.Maintenance)})
	}
	return out, nil
}
