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

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardinalhq/settingsd/internal/cachemgr"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendBolt     = "bolt"
)

// Config aggregates configuration for the application.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Health HealthConfig `mapstructure:"health"`
	Store  StoreConfig  `mapstructure:"store"`
	Cache  CacheConfig  `mapstructure:"cache"`
	MCP    MCPConfig    `mapstructure:"mcp"`
	Admin  AdminConfig  `mapstructure:"admin"`
	Debug  DebugConfig  `mapstructure:"debug"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	ContextPath string `mapstructure:"context_path"`
	AppName     string `mapstructure:"app_name"`
}

type HealthConfig struct {
	Port int `mapstructure:"port"`
}

type StoreConfig struct {
	// Backend is "postgres" (CONFIGDB_* connection settings) or "bolt".
	Backend  string `mapstructure:"backend"`
	BoltPath string `mapstructure:"bolt_path"`
}

type CacheConfig struct {
	Tiers cachemgr.Tiers `mapstructure:"tiers"`
}

type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AdminConfig struct {
	// ConfigFile is a YAML path or "env:VAR".
	ConfigFile string `mapstructure:"config_file"`
}

type DebugConfig struct {
	// PprofPort serves /debug/pprof/ when positive.
	PprofPort int `mapstructure:"pprof_port"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			AppName: "settingsd",
		},
		Health: HealthConfig{Port: 8090},
		Store: StoreConfig{
			Backend:  StoreBackendPostgres,
			BoltPath: "settingsd.db",
		},
		Cache: CacheConfig{Tiers: cachemgr.DefaultTiers()},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "SETTINGSD" and the dot character
// in keys is replaced by an underscore. For example, "cache.tiers.short.ttl"
// becomes "SETTINGSD_CACHE_TIERS_SHORT_TTL".
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SETTINGSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreBackendPostgres:
	case StoreBackendBolt:
		if c.Store.BoltPath == "" {
			errs = append(errs, errors.New("store.bolt_path is required for the bolt backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q",
			StoreBackendPostgres, StoreBackendBolt, c.Store.Backend))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Health.Port <= 0 || c.Health.Port > 65535 {
		errs = append(errs, fmt.Errorf("health.port %d is out of range", c.Health.Port))
	}
	if c.Server.ContextPath != "" && !strings.HasPrefix(c.Server.ContextPath, "/") {
		errs = append(errs, fmt.Errorf("server.context_path must start with /, got %q", c.Server.ContextPath))
	}
	if c.Debug.PprofPort < 0 || c.Debug.PprofPort > 65535 {
		errs = append(errs, fmt.Errorf("debug.pprof_port %d is out of range", c.Debug.PprofPort))
	}
	if err := c.Cache.Tiers.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
