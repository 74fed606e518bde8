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

package migrations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVersionMismatch is returned by CheckVersion in wait mode when the
// database never reaches the expected schema version.
var ErrVersionMismatch = errors.New("settings schema version mismatch")

// optionsFromEnv overlays CONFIGDB_MIGRATION_CHECK_ENABLED,
// MIGRATION_CHECK_TIMEOUT, MIGRATION_CHECK_RETRY_INTERVAL and
// MIGRATION_CHECK_ALLOW_DIRTY on top of base.
func optionsFromEnv(base CheckOptions) CheckOptions {
	opts := base
	if val := os.Getenv("CONFIGDB_MIGRATION_CHECK_ENABLED"); val != "" && strings.ToLower(val) != "true" {
		opts.Mode = CheckModeSkip
	}
	if val := os.Getenv("MIGRATION_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			opts.Timeout = d
		}
	}
	if val := os.Getenv("MIGRATION_CHECK_RETRY_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			opts.RetryInterval = d
		}
	}
	if val := os.Getenv("MIGRATION_CHECK_ALLOW_DIRTY"); val != "" {
		opts.AllowDirty = strings.ToLower(val) == "true"
	}
	return opts
}

// CheckVersion verifies that the settings schema is at the version embedded
// in this binary.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, options ...CheckOption) error {
	opts := DefaultCheckOptions()
	for _, o := range options {
		o(&opts)
	}
	if opts.Mode == CheckModeSkip {
		slog.Debug("Migration version checking disabled for configdb")
		return nil
	}

	expected, err := latestMigrationVersion(migrationFiles)
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version: %w", err)
	}

	slog.Info("Checking migration version",
		slog.String("database", "configdb"),
		slog.Uint64("expected_version", uint64(expected)),
		slog.String("mode", opts.Mode.String()),
		slog.Duration("timeout", opts.Timeout))

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		current, dirty, err := currentVersion(pool)
		if err != nil {
			return fmt.Errorf("failed to get current migration version: %w", err)
		}

		if dirty && !opts.AllowDirty {
			return errors.New("configdb migration is in dirty state, please fix before proceeding")
		}

		if current == expected {
			slog.Info("Migration version check passed", slog.Uint64("version", uint64(current)))
			return nil
		}

		if current > expected {
			return fmt.Errorf("%w: database version %d is newer than expected version %d, you may need to update the application",
				ErrVersionMismatch, current, expected)
		}

		if opts.Mode == CheckModeWarn {
			slog.Warn("Settings schema is behind, continuing anyway",
				slog.Uint64("current_version", uint64(current)),
				slog.Uint64("expected_version", uint64(expected)))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: timeout waiting for migrations, current version %d, expected %d",
				ErrVersionMismatch, current, expected)
		}

		slog.Info("Waiting for migrations to complete",
			slog.Uint64("current_version", uint64(current)),
			slog.Uint64("expected_version", uint64(expected)),
			slog.Duration("remaining_timeout", time.Until(deadline)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for configdb migrations: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// latestMigrationVersion returns the highest version prefix of the *.up.sql files.
func latestMigrationVersion(files fs.ReadDirFS) (uint, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		maxVersion = max(maxVersion, uint(version))
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}
	return maxVersion, nil
}

func currentVersion(pool *pgxpool.Pool) (uint, bool, error) {
	m, closeFn, err := newMigrate(pool)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
