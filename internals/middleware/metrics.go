package middle

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type MetricsRecorder interface {
	Observe(method, route string, status int, duration time.Duration)
}

func Metrics(recorder MetricsRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// route pattern is only complete once the router has matched
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			recorder.Observe(r.Method, route, ww.Status(), time.Since(start))
		}
		return http.HandlerFunc(fn)
	}
}

type RouteStats struct {
	Requests    uint64        `json:"requests"`
	Errors      uint64        `json:"errors"`
	MaxDuration time.Duration `json:"max_duration_ns"`
}

// RequestStats is an in-memory MetricsRecorder keyed by "METHOD route".
type RequestStats struct {
	mu     sync.Mutex
	routes map[string]RouteStats
}

func NewRequestStats() *RequestStats {
	return &RequestStats{routes: make(map[string]RouteStats)}
}

func (s *RequestStats) Observe(method, route string, status int, duration time.Duration) {
	key := method + " " + route

	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.routes[key]
	rs.Requests++
	if status >= http.StatusInternalServerError {
		rs.Errors++
	}
	if duration > rs.MaxDuration {
		rs.MaxDuration = duration
	}
	s.routes[key] = rs
}

func (s *RequestStats) Snapshot() map[string]RouteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]RouteStats, len(s.routes))
	for k, v := range s.routes {
		out[k] = v
	}
	return out
}
