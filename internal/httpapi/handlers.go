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

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardinalhq/settingsd/internal/apperr"
	"github.com/cardinalhq/settingsd/internal/status"
)

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	resp := s.status.GetStatus(r.Context())
	code := http.StatusOK
	if resp.Status != status.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleSetMaintenance(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.PathValue("status"))
	if err != nil {
		s.writeError(w, r, apperr.BadRequest("status must be true or false"))
		return
	}
	if err := s.status.SetMaintenanceMode(r.Context(), enabled); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.ListSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := s.settings.GetSettingByKey(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

type putSettingRequest struct {
	Value *string `json:"value"`
}

// handlePutSetting writes one setting. The maintenance key is routed through
// the status service so its cached flag is invalidated; its value is stored
// normalized to "true" or "false".
func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var body putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, apperr.BadRequest("invalid JSON: "+err.Error()))
		return
	}
	if body.Value == nil {
		s.writeError(w, r, apperr.BadRequest("value is required"))
		return
	}

	if key == status.MaintenanceKey {
		if err := s.status.SetMaintenanceMode(r.Context(), strings.EqualFold(*body.Value, "true")); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.handleGetSetting(w, r)
		return
	}

	setting, err := s.settings.AddOrUpdate(r.Context(), key, *body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

type cacheInfo struct {
	Name       string `json:"name"`
	TTL        string `json:"ttl"`
	MaxEntries int    `json:"maxEntries"`
	Size       int    `json:"size"`
}

func (s *Server) handleListCaches(w http.ResponseWriter, _ *http.Request) {
	reg := s.caches.Registry()
	names := reg.Names()
	out := make([]cacheInfo, 0, len(names))
	for _, name := range names {
		c, ok := reg.Get(name)
		if !ok {
			continue
		}
		p := c.Policy()
		out = append(out, cacheInfo{
			Name:       name,
			TTL:        p.TTL.String(),
			MaxEntries: p.MaxEntries,
			Size:       c.Len(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvictEverything(w http.ResponseWriter, _ *http.Request) {
	s.caches.EvictEverything()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvictCache(w http.ResponseWriter, r *http.Request) {
	s.caches.EvictAll(r.PathValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvictKey(w http.ResponseWriter, r *http.Request) {
	s.caches.EvictKey(r.PathValue("name"), r.PathValue("key"))
	w.WriteHeader(http.StatusNoContent)
}
