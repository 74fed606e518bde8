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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/status"
)

func init() {
	cmd := &cobra.Command{
		Use:   "caches",
		Short: "Show the cache tiers and the caches registered at startup",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			registry, err := startupRegistry(cfg.Cache.Tiers)
			if err != nil {
				return err
			}
			defer registry.Close()
			return printCaches(c.OutOrStdout(), registry)
		},
	}
	rootCmd.AddCommand(cmd)
}

// startupRegistry builds the same registry serve does.
func startupRegistry(tiers cachemgr.Tiers) (*cachemgr.Registry, error) {
	registry, err := cachemgr.NewStandardRegistry(tiers)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache registry: %w", err)
	}
	if err := status.RegisterCaches(registry); err != nil {
		registry.Close()
		return nil, fmt.Errorf("failed to register status caches: %w", err)
	}
	return registry, nil
}

func printCaches(w io.Writer, registry *cachemgr.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	tiers := registry.Tiers()
	fmt.Fprintln(tw, "TIER\tTTL\tMAX ENTRIES")
	fmt.Fprintf(tw, "short\t%s\t%d\n", tiers.Short.TTL, tiers.Short.MaxEntries)
	fmt.Fprintf(tw, "medium\t%s\t%d\n", tiers.Medium.TTL, tiers.Medium.MaxEntries)
	fmt.Fprintf(tw, "long\t%s\t%d\n", tiers.Long.TTL, tiers.Long.MaxEntries)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CACHE\tTTL\tMAX ENTRIES")
	for _, name := range registry.Names() {
		c, ok := registry.Get(name)
		if !ok {
			continue
		}
		p := c.Policy()
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, p.TTL, p.MaxEntries)
	}
	return tw.Flush()
}
