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

// Package adminconfig loads the operator keys that guard the maintenance
// toggle, cache eviction and settings writes.
package adminconfig

import (
	"context"
	"slices"
)

// Scope names a group of admin operations.
type Scope string

const (
	ScopeMaintenance Scope = "maintenance"
	ScopeCaches      Scope = "caches"
	ScopeSettings    Scope = "settings"
)

// AllScopes is granted to keys that list no scopes.
var AllScopes = []Scope{ScopeMaintenance, ScopeCaches, ScopeSettings}

type AdminKey struct {
	Name        string  `json:"name" yaml:"name"`
	Key         string  `json:"key" yaml:"key"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Scopes      []Scope `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// Allows reports whether the key may perform operations in scope.
func (k AdminKey) Allows(scope Scope) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	return slices.Contains(k.Scopes, scope)
}

type AdminConfig struct {
	Keys []AdminKey `json:"keys,omitempty" yaml:"keys,omitempty"`
}

type Provider interface {
	// Enabled is false when no keys are configured and admin routes are open.
	Enabled() bool
	// Authorize returns the matching key when apiKey exists and allows scope.
	Authorize(ctx context.Context, apiKey string, scope Scope) (*AdminKey, bool)
}

// DefaultConfigPath is used when no admin config file is configured.
const DefaultConfigPath = "/app/config/admin.yaml"

// Setup loads the admin keys from path, or DefaultConfigPath when empty.
func Setup(path string) (Provider, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	return NewFileProvider(path)
}
