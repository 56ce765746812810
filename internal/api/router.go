package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handlers to their routes. A nil gatherer leaves
// /metrics unrouted.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/standings", h.HandleStandings).Methods(http.MethodGet)
	api.HandleFunc("/submissions", h.HandleSubmissions).Methods(http.MethodGet)
	api.HandleFunc("/submissions/export.xlsx", h.HandleExportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/submissions/chart.png", h.HandleChart).Methods(http.MethodGet)
	api.HandleFunc("/submit", h.HandleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/update-standings", h.HandleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request latency per route template.
func (h *Handlers) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.Request(route, r.Method, strconv.Itoa(rec.status), time.Since(start))
		h.logger.DebugContext(r.Context(), "Request served",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}
