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
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/settingsd/internal/adminconfig"
	"github.com/cardinalhq/settingsd/internal/apperr"
	"github.com/cardinalhq/settingsd/internal/logctx"
	"github.com/cardinalhq/settingsd/internal/status"
)

type contextKey struct{}

var requestIDKey = contextKey{}

// RequestIDFromContext returns the id assigned by the request logger.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// statusRecorder remembers the response code for logging.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// logRequests assigns a request id, logs every request and records its
// duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		req := r.WithContext(logctx.With(ctx, slog.String("requestID", id)))
		next.ServeHTTP(rec, req)

		if rec.code == 0 {
			rec.code = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.record(req, rec.code, elapsed)

		level := slog.LevelDebug
		if rec.code >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.code),
			slog.Duration("duration", elapsed),
		}
		if sc := trace.SpanContextFromContext(req.Context()); sc.HasTraceID() {
			attrs = append(attrs, slog.String("traceID", sc.TraceID().String()))
		}
		logctx.FromContext(req.Context()).Log(req.Context(), level, "HTTP request", attrs...)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// maintenanceGate answers 503 to everything but the maintenance toggle and
// the MCP endpoint while maintenance mode is on.
func (s *Server) maintenanceGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.exemptFromGate(r.URL.Path) || !s.status.IsMaintenanceMode(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, status.Response{
			Status:  status.Maintenance,
			Message: apperr.MsgUnderMaintenance,
		})
	})
}

func (s *Server) exemptFromGate(path string) bool {
	if strings.Contains(path, maintenanceTogglePath) {
		return true
	}
	return s.mcp != nil && path == s.cfg.ContextPath+"/mcp"
}

// requireAdmin checks the admin key header when admin keys are configured.
func (s *Server) requireAdmin(scope adminconfig.Scope, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.admin == nil || !s.admin.Enabled() {
			next(w, r)
			return
		}
		key := r.Header.Get(adminKeyHeader)
		if key == "" {
			s.writeError(w, r, apperr.Unauthorized("authentication required: "+adminKeyHeader+" header not provided"))
			return
		}
		info, ok := s.admin.Authorize(r.Context(), key, scope)
		if !ok {
			s.writeError(w, r, apperr.Unauthorized("invalid admin key"))
			return
		}
		logctx.FromContext(r.Context()).Debug("Admin request authorized", slog.String("key", info.Name), slog.String("scope", string(scope)))
		next(w, r)
	}
}

// deprecated marks a route with Deprecated, Since and Link headers and logs
// every call to it.
func deprecated(since, link string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Deprecated", "true")
		if since != "" {
			w.Header().Set("Since", since)
		}
		if link != "" {
			w.Header().Set("Link", link)
		}
		logctx.FromContext(r.Context()).Warn("Deprecated API called",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("userAgent", r.UserAgent()))
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
