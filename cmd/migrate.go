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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/configdb"
	"github.com/cardinalhq/settingsd/configdb/migrations"
	"github.com/cardinalhq/settingsd/internal/dbopen"
)

func init() {
	rootCmd.AddCommand(MigrateCmd)
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  "Apply pending migrations to the settings database. The bolt backend needs none.",
	RunE:  migrate,
}

func migrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Backend == config.StoreBackendBolt {
		slog.Info("Bolt store selected, no migrations to run")
		return nil
	}

	slog.Info("Running configdb migrations")
	if err := migrateConfigDB(); err != nil {
		return fmt.Errorf("failed to migrate configdb: %w", err)
	}
	slog.Info("configdb migrations completed successfully")
	return nil
}

func migrateConfigDB() error {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(5*time.Minute))
	defer cancel()

	pool, err := configdb.ConnectToConfigDB(ctx, dbopen.SkipMigrationCheck())
	if err != nil {
		if errors.Is(err, dbopen.ErrDatabaseNotConfigured) {
			slog.Info("ConfigDB not configured, skipping migration")
			return nil
		}
		return err
	}
	defer pool.Close()
	return migrations.RunMigrationsUp(ctx, pool)
}
