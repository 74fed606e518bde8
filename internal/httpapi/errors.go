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
	"log/slog"
	"net/http"

	"github.com/cardinalhq/settingsd/internal/apperr"
	"github.com/cardinalhq/settingsd/internal/logctx"
)

// ExceptionMessage is the body of every error response.
type ExceptionMessage struct {
	AppName       string   `json:"appName"`
	Context       string   `json:"context"`
	Message       string   `json:"message"`
	Details       []string `json:"details"`
	ServerAddress string   `json:"serverAddress"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.HTTPStatus(err)
	if code >= http.StatusInternalServerError || code == http.StatusExpectationFailed {
		logctx.FromContext(r.Context()).Error("Request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, code, ExceptionMessage{
		AppName:       s.cfg.AppName,
		Context:       s.cfg.ContextPath,
		Message:       apperr.Message(err),
		Details:       []string{err.Error()},
		ServerAddress: "uri=" + r.URL.Path,
	})
}
