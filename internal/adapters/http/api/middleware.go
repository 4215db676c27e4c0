package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/olrank/pkg/metrics"
)

// Route labels used for request metrics.
const (
	routeHealth        = "healthz"
	routeStats         = "stats"
	routeAthleteLookup = "athlete_lookup"
	routeClubLookup    = "club_lookup"
	routeClubRanking   = "club_ranking"
)

// MetricsMiddleware records count, latency and failure class of every
// request served by next under the given route label.
func MetricsMiddleware(next http.HandlerFunc, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Milliseconds()))
		if class := failureClass(rec.status); class != "" {
			metrics.RecordErrorByEndpoint(route, r.Method, class)
		}
	}
}

// failureClass maps a status to the error label; "" for successes. The
// labels match the code field of the JSON error body.
func failureClass(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "bad_request"
	}
}

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
