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

// Package testhelpers starts throwaway postgres databases for integration
// tests.
package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orlangure/gnomock"
	pgpreset "github.com/orlangure/gnomock/preset/postgres"

	"github.com/cardinalhq/settingsd/configdb/migrations"
)

// ExternalDatabaseEnv names a postgres URL to use instead of a container.
// The database in the URL is only used to create and drop test databases.
const ExternalDatabaseEnv = "SETTINGSD_TEST_DATABASE_URL"

type PostgresServer struct {
	container *gnomock.Container
	baseURL   *url.URL
}

// StartPostgres connects to ExternalDatabaseEnv when set and otherwise
// starts a postgres container with gnomock.
func StartPostgres() (*PostgresServer, error) {
	if raw := os.Getenv(ExternalDatabaseEnv); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ExternalDatabaseEnv, err)
		}
		return &PostgresServer{baseURL: u}, nil
	}

	p := pgpreset.Preset(
		pgpreset.WithUser("settingsd", "settingsd"),
		pgpreset.WithDatabase("settingsd"),
	)
	container, err := gnomock.Start(p)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	return &PostgresServer{
		container: container,
		baseURL: &url.URL{
			Scheme:   "postgresql",
			User:     url.UserPassword("settingsd", "settingsd"),
			Host:     container.DefaultAddress(),
			Path:     "/settingsd",
			RawQuery: "sslmode=disable",
		},
	}, nil
}

// Stop removes the container, if one was started.
func (s *PostgresServer) Stop() {
	if s.container == nil {
		return
	}
	if err := gnomock.Stop(s.container); err != nil {
		slog.Error("Failed to stop postgres container", slog.Any("error", err))
	}
}

// URL returns the connection URL for dbName on this server.
func (s *PostgresServer) URL(dbName string) string {
	u := *s.baseURL
	u.Path = "/" + dbName
	return u.String()
}

// SetupTestConfigDB creates a clean settings database with migrations
// applied. The database is dropped by t.Cleanup.
func (s *PostgresServer) SetupTestConfigDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_configdb_%d_%d", time.Now().Unix(), rand.Intn(10000))

	basePool, err := pgxpool.New(ctx, s.baseURL.String())
	if err != nil {
		t.Fatalf("Failed to connect to base database: %v", err)
	}

	if _, err := basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		basePool.Close()
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	testPool, err := pgxpool.New(ctx, s.URL(dbName))
	if err != nil {
		basePool.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := migrations.RunMigrationsUp(ctx, testPool); err != nil {
		testPool.Close()
		basePool.Close()
		t.Fatalf("Failed to run configdb migrations: %v", err)
	}

	t.Cleanup(func() {
		testPool.Close()

		_, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
		if err != nil {
			slog.Error("Failed to drop test database", slog.String("dbName", dbName), slog.Any("error", err))
		}
		basePool.Close()
	})

	return testPool
}
