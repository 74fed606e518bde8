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

// Package settingstest provides an in-memory settings store for tests.
package settingstest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/settingsd/configdb"
)

// Querier keeps settings in a map and counts store calls.
type Querier struct {
	mu     sync.Mutex
	rows   map[string]configdb.Setting
	nextID int64
	getErr error
	setErr error

	// AfterGet, when set, runs after every GetSettingByKey read and before
	// the result is returned, outside the lock.
	AfterGet func()

	GetCalls atomic.Int32
	SetCalls atomic.Int32
}

func New() *Querier {
	return &Querier{rows: make(map[string]configdb.Setting)}
}

// FailGets makes reads return err until called again with nil.
func (q *Querier) FailGets(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.getErr = err
}

// FailSets makes upserts return err until called again with nil.
func (q *Querier) FailSets(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.setErr = err
}

// GetSettingByKey fails with the context error once ctx is done, as a
// database driver would.
func (q *Querier) GetSettingByKey(ctx context.Context, key string) (configdb.Setting, error) {
	q.GetCalls.Add(1)
	q.mu.Lock()
	row, ok := q.rows[key]
	err := q.getErr
	q.mu.Unlock()

	if q.AfterGet != nil {
		q.AfterGet()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return configdb.Setting{}, ctxErr
	}
	if err != nil {
		return configdb.Setting{}, err
	}
	if !ok {
		return configdb.Setting{}, pgx.ErrNoRows
	}
	return row, nil
}

func (q *Querier) UpsertSetting(_ context.Context, arg configdb.UpsertSettingParams) (configdb.Setting, error) {
	q.SetCalls.Add(1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.setErr != nil {
		return configdb.Setting{}, q.setErr
	}
	row, ok := q.rows[arg.Key]
	if !ok {
		q.nextID++
		row = configdb.Setting{ID: q.nextID, Key: arg.Key}
	}
	row.Value = arg.Value
	q.rows[arg.Key] = row
	return row, nil
}

func (q *Querier) ListSettings(_ context.Context) ([]configdb.Setting, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.getErr != nil {
		return nil, q.getErr
	}
	out := make([]configdb.Setting, 0, len(q.rows))
	for _, row := range q.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Count returns how many rows are stored for key.
func (q *Querier) Count(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.rows[key]; ok {
		return 1
	}
	return 0
}

// Value returns the stored value for key.
func (q *Querier) Value(key string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	row, ok := q.rows[key]
	return row.Value, ok
}
