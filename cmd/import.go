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
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/bootstrap"
	"github.com/cardinalhq/settingsd/internal/settings"
)

func init() {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Seed the settings store from a YAML file",
		Long: `Upsert every setting listed in a bootstrap YAML file.

Running servers keep their cached maintenance flag until it expires; use
POST /status/maintainable/{status} to change maintenance mode on a live system.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			_, doneFx, err := setupTelemetry(cfg.Server.AppName, nil)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() { _ = doneFx() }()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg.Store)
			if err != nil {
				return fmt.Errorf("failed to open settings store: %w", err)
			}
			defer store.Close()

			return bootstrap.ImportFromYAML(ctx, file, settings.New(store))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "bootstrap YAML file")
	_ = cmd.MarkFlagRequired("file")
	rootCmd.AddCommand(cmd)
}
