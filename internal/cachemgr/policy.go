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

package cachemgr

import (
	"errors"
	"fmt"
	"time"
)

// Names of the general purpose caches registered at startup.
const (
	OneDayLiveCache  = "oneDayLiveCache"
	OneWeekLiveCache = "oneWeekLiveCache"
)

const defaultMaxEntries = 1000

// Policy is the expiration policy of one named cache. TTL counts from the
// last write; reads never extend it.
type Policy struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

func (p Policy) Validate() error {
	if p.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", p.TTL)
	}
	if p.MaxEntries <= 0 {
		return fmt.Errorf("max_entries must be positive, got %d", p.MaxEntries)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("ttl=%s max_entries=%d", p.TTL, p.MaxEntries)
}

// Tiers holds the three standard policies. Short is also the policy for
// caches registered without an explicit one.
type Tiers struct {
	Short  Policy `mapstructure:"short"`
	Medium Policy `mapstructure:"medium"`
	Long   Policy `mapstructure:"long"`
}

// DefaultTiers returns 1 hour, 1 day and 7 day tiers capped at 1000 entries each.
func DefaultTiers() Tiers {
	return Tiers{
		Short:  Policy{TTL: time.Hour, MaxEntries: defaultMaxEntries},
		Medium: Policy{TTL: 24 * time.Hour, MaxEntries: defaultMaxEntries},
		Long:   Policy{TTL: 7 * 24 * time.Hour, MaxEntries: defaultMaxEntries},
	}
}

func (t Tiers) Validate() error {
	var errs []error
	if err := t.Short.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("short tier: %w", err))
	}
	if err := t.Medium.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("medium tier: %w", err))
	}
	if err := t.Long.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("long tier: %w", err))
	}
	return errors.Join(errs...)
}
