// Package api serves the prediction game over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gtourv/PLprediction/internal/apperr"
	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/metrics"
	"github.com/gtourv/PLprediction/internal/refresh"
	"github.com/gtourv/PLprediction/internal/report"
)

const maxBodyBytes = 64 << 10

// Service is the part of service.Service the handlers need.
type Service interface {
	Standings(ctx context.Context) (league.Standings, error)
	Leaderboard(ctx context.Context) (league.Leaderboard, error)
	Submit(ctx context.Context, name string, prediction []string) (league.Submission, error)
	Refresh(ctx context.Context) (refresh.Result, error)
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and what they share.
type Handlers struct {
	service Service
	metrics *metrics.Metrics
	logger  *slog.Logger
	started time.Time
}

// NewHandlers creates a new Handlers instance. metrics and logger may be nil.
func NewHandlers(svc Service, m *metrics.Metrics, logger *slog.Logger) *Handlers {
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: svc, metrics: m, logger: logger, started: time.Now()}
}

type submitRequest struct {
	Name       string   `json:"name"`
	Prediction []string `json:"prediction"`
}

type refreshResponse struct {
	OK       bool            `json:"ok"`
	Teams    league.Ordering `json:"teams"`
	Snippets []string        `json:"snippets"`
	Updated  bool            `json:"updated"`
	Warning  string          `json:"warning,omitempty"`
}

func (h *Handlers) HandleStandings(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Standings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if board.Submissions == nil {
		board.Submissions = []league.Entry{}
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, apperr.InvalidInput("Invalid payload"))
		return
	}
	if req.Name == "" || req.Prediction == nil {
		h.writeError(w, r, apperr.InvalidInput("Invalid payload"))
		return
	}

	sub, err := h.service.Submit(r.Context(), req.Name, req.Prediction)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": sub.ID})
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := refreshResponse{
		OK:       true,
		Teams:    res.Teams,
		Snippets: res.Snippets,
		Updated:  res.Updated,
	}
	if resp.Snippets == nil {
		resp.Snippets = []string{}
	}
	if res.Warning != nil {
		resp.Warning = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := report.Workbook(board)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := report.Chart(board)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleHealth reports whether the store answers a ping.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if err := h.service.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Health check failed", "error", err)
		body["status"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", apperr.KindOf(err).String(),
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
