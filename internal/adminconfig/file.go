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

package adminconfig

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileProvider struct {
	config AdminConfig
}

var _ Provider = (*fileProvider)(nil)

// NewFileProvider reads keys from a YAML file. A filename of the form
// "env:NAME" reads the YAML from the environment variable NAME instead.
// A missing file yields a provider with no keys.
func NewFileProvider(filename string) (Provider, error) {
	if envVar, ok := strings.CutPrefix(filename, "env:"); ok {
		contents := os.Getenv(envVar)
		if contents == "" {
			return nil, fmt.Errorf("environment variable %s is not set", envVar)
		}
		return newFileProviderFromContents(filename, []byte(contents))
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No admin config file, admin routes are unauthenticated", slog.String("path", filename))
			return &fileProvider{}, nil
		}
		return nil, fmt.Errorf("failed to read admin config from file %s: %w", filename, err)
	}

	return newFileProviderFromContents(filename, contents)
}

func newFileProviderFromContents(filename string, contents []byte) (*fileProvider, error) {
	var config AdminConfig

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(false)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal admin config from file %s: %w", filename, err)
	}

	for i, k := range config.Keys {
		if k.Key == "" {
			return nil, fmt.Errorf("admin config %s: key %d (%q) has an empty key", filename, i, k.Name)
		}
		for _, s := range k.Scopes {
			if !slices.Contains(AllScopes, s) {
				return nil, fmt.Errorf("admin config %s: key %q has unknown scope %q", filename, k.Name, s)
			}
		}
	}

	return &fileProvider{config: config}, nil
}

func (p *fileProvider) Enabled() bool {
	return len(p.config.Keys) > 0
}

func (p *fileProvider) Authorize(_ context.Context, apiKey string, scope Scope) (*AdminKey, bool) {
	if apiKey == "" {
		return nil, false
	}
	for _, key := range p.config.Keys {
		if subtle.ConstantTimeCompare([]byte(key.Key), []byte(apiKey)) != 1 {
			continue
		}
		if !key.Allows(scope) {
			return nil, false
		}
		return &AdminKey{
			Name:        key.Name,
			Description: key.Description,
			Scopes:      key.Scopes,
		}, true
	}
	return nil, false
}
