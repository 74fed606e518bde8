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

// Package boltstore keeps settings in a single bbolt file. It serves the
// same queries as configdb for deployments that run without PostgreSQL.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/cardinalhq/settingsd/configdb"
)

// ErrNotFound matches pgx.ErrNoRows so callers handle both backends alike.
var ErrNotFound = fmt.Errorf("boltstore: setting not found: %w", pgx.ErrNoRows)

var (
	settingsBucket = []byte("settings")
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open creates or opens the settings file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

var _ configdb.QuerierFull = (*Store)(nil)

func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close bolt store", slog.Any("error", err))
	}
}

// GetSettingByKey returns the setting stored under key, or ErrNotFound.
func (s *Store) GetSettingByKey(_ context.Context, key string) (configdb.Setting, error) {
	var out configdb.Setting
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(settingsBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

// UpsertSetting writes arg.Value under arg.Key. The row id and creation time
// survive overwrites so there is never more than one record per key.
func (s *Store) UpsertSetting(_ context.Context, arg configdb.UpsertSettingParams) (configdb.Setting, error) {
	key, value := arg.Key, arg.Value
	var out configdb.Setting
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(settingsBucket)
		now := s.now().UTC()

		if existing := b.Get([]byte(key)); existing != nil {
			if err := json.Unmarshal(existing, &out); err != nil {
				return fmt.Errorf("decode setting %q: %w", key, err)
			}
		} else {
			id, err := b.NextSequence()
			if err != nil {
				return err
			}
			out = configdb.Setting{ID: int64(id), Key: key, CreatedAt: now}
		}
		out.Value = value
		out.UpdatedAt = now

		buf, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), buf)
	})
	return out, err
}

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(_ context.Context) ([]configdb.Setting, error) {
	var out []configdb.Setting
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).ForEach(func(k, v []byte) error {
			var item configdb.Setting
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode setting %q: %w", k, err)
			}
			out = append(out, item)
			return nil
		})
	})
	return out, err
}

// CountSettingsByKey returns 1 when key is present and 0 otherwise.
func (s *Store) CountSettingsByKey(_ context.Context, key string) (int64, error) {
	var n int64
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(settingsBucket).Get([]byte(key)) != nil {
			n = 1
		}
		return nil
	})
	return n, err
}
