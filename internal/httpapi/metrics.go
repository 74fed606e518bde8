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
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var meter = otel.Meter("github.com/cardinalhq/settingsd/internal/httpapi")

type httpMetrics struct {
	duration metric.Float64Histogram
}

func newHTTPMetrics() *httpMetrics {
	h, err := meter.Float64Histogram(
		"settingsd.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Warn("Failed to create request duration histogram", slog.Any("error", err))
		return &httpMetrics{duration: noop.Float64Histogram{}}
	}
	return &httpMetrics{duration: h}
}

// record labels by the matched route pattern, never the raw path.
func (m *httpMetrics) record(r *http.Request, code int, elapsed time.Duration) {
	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	m.duration.Record(context.Background(), elapsed.Seconds(), metric.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.route", route),
		attribute.String("http.status_code", strconv.Itoa(code)),
	))
}
