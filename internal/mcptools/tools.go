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

// Package mcptools exposes maintenance and cache operations as MCP tools.
// The tools run in the serving process, so an eviction or a maintenance
// toggle takes effect on the same caches the HTTP API reads.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cardinalhq/settingsd/internal/cachemgr"
	"github.com/cardinalhq/settingsd/internal/status"
)

type ToolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// NewServer builds an MCP server with every operator tool registered.
func NewServer(version string, statusSvc *status.Service, caches *cachemgr.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"settingsd",
		version,
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("get-status",
		mcp.WithDescription("Returns the service status (OK or MAINTENANCE) read straight from the settings store"),
	), GetStatusHandler(statusSvc))

	s.AddTool(mcp.NewTool("set-maintenance-mode",
		mcp.WithDescription(multiline(
			"Turns maintenance mode on or off",
			"- While on, every API request except the maintenance toggle is answered with 503",
			"- The cached flag is invalidated before this tool returns",
		)),
		mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("true to enter maintenance, false to leave it")),
	), SetMaintenanceModeHandler(statusSvc))

	s.AddTool(mcp.NewTool("evict-cache",
		mcp.WithDescription("Clears one named cache, or a single key of it when key is given. Unknown caches are ignored"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Cache name, see list-caches")),
		mcp.WithString("key", mcp.Description("Optional entry key")),
	), EvictCacheHandler(caches))

	s.AddTool(mcp.NewTool("evict-all-caches",
		mcp.WithDescription("Clears every registered cache"),
	), EvictAllCachesHandler(caches))

	s.AddTool(mcp.NewTool("list-caches",
		mcp.WithDescription("Lists registered caches with their expiry, capacity and current size"),
	), ListCachesHandler(caches))

	return s
}

// NewHTTPHandler serves s over streamable HTTP.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

func GetStatusHandler(statusSvc *status.Service) ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		resp := statusSvc.GetStatus(ctx)
		if resp.Message == "" {
			return mcp.NewToolResultText(string(resp.Status)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s", resp.Status, resp.Message)), nil
	}
}

func SetMaintenanceModeHandler(statusSvc *status.Service) ToolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		enabled, err := req.RequireBool("enabled")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := statusSvc.SetMaintenanceMode(ctx, enabled); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set maintenance mode: %v", err)), nil
		}
		if enabled {
			return mcp.NewToolResultText("maintenance mode on"), nil
		}
		return mcp.NewToolResultText("maintenance mode off"), nil
	}
}

func EvictCacheHandler(caches *cachemgr.Service) ToolHandler {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if key := req.GetString("key", ""); key != "" {
			caches.EvictKey(name, key)
			return mcp.NewToolResultText(fmt.Sprintf("evicted %s from %s", key, name)), nil
		}
		caches.EvictAll(name)
		return mcp.NewToolResultText(fmt.Sprintf("cleared %s", name)), nil
	}
}

func EvictAllCachesHandler(caches *cachemgr.Service) ToolHandler {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caches.EvictEverything()
		return mcp.NewToolResultText("cleared all caches"), nil
	}
}

type cacheSummary struct {
	Name       string `json:"name"`
	TTL        string `json:"ttl"`
	MaxEntries int    `json:"maxEntries"`
	Size       int    `json:"size"`
}

func ListCachesHandler(caches *cachemgr.Service) ToolHandler {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reg := caches.Registry()
		var out []cacheSummary
		for _, name := range reg.Names() {
			c, ok := reg.Get(name)
			if !ok {
				continue
			}
			out = append(out, cacheSummary{
				Name:       name,
				TTL:        c.Policy().TTL.String(),
				MaxEntries: c.Policy().MaxEntries,
				Size:       c.Len(),
			})
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }
