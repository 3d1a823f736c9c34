package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/dashsql/internal/dashboard"
	"github.com/leapstack-labs/dashsql/internal/state"
)

// Views computes the dashboard views. *dashboard.Service implements it.
type Views interface {
	Summary(ctx context.Context) dashboard.SummaryResult
	Calendar(ctx context.Context, year, month int) dashboard.CalendarResult
	LotStatus(ctx context.Context, opts dashboard.LotOptions) dashboard.LotStatusResult
	Alerts(ctx context.Context) dashboard.AlertsResult
	Realtime(ctx context.Context) dashboard.RealtimeResult
	Intervals(ctx context.Context, params []string, bins int) dashboard.IntervalsResult
	Analytics(ctx context.Context) dashboard.AnalyticsResult
	Tables(ctx context.Context) dashboard.TablesResult
}

// AlertHistory lists journaled alerts.
type AlertHistory interface {
	History(ctx context.Context, limit int) ([]state.AlertRecord, error)
}

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HistoryResult is the alert journal listing.
type HistoryResult struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Alerts  []state.AlertRecord `json:"alerts"`
}

type healthBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handlers provides the HTTP handlers of the dashboard API.
type Handlers struct {
	views   Views
	history AlertHistory
	pinger  Pinger
	metrics *Metrics
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance. history and pinger may be nil.
func NewHandlers(views Views, history AlertHistory, pinger Pinger, metrics *Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handlers{views: views, history: history, pinger: pinger, metrics: metrics, logger: logger}
}

// view wraps a view computation: it is timed, counted and always answered
// with 200.
func (h *Handlers) view(name string, compute func(r *http.Request) dashboard.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		res := compute(r)
		h.metrics.Observe(name, res.OK(), time.Since(start))
		writeJSON(w, http.StatusOK, res)
	}
}

// Summary serves GET /summary.
func (h *Handlers) Summary() http.HandlerFunc {
	return h.view("summary", func(r *http.Request) dashboard.Outcome {
		return h.views.Summary(r.Context())
	})
}

// Calendar serves GET /calendar-month?year=&month=.
func (h *Handlers) Calendar() http.HandlerFunc {
	return h.view("calendar-month", func(r *http.Request) dashboard.Outcome {
		q := r.URL.Query()
		return h.views.Calendar(r.Context(), queryInt(q.Get("year")), queryInt(q.Get("month")))
	})
}

// LotStatus serves GET /lot-status?period=&debug=&all=&noDate=.
func (h *Handlers) LotStatus() http.HandlerFunc {
	return h.view("lot-status", func(r *http.Request) dashboard.Outcome {
		q := r.URL.Query()
		return h.views.LotStatus(r.Context(), dashboard.LotOptions{
			Period: dashboard.ParsePeriod(q.Get("period")),
			Debug:  queryBool(q.Get("debug")),
			All:    queryBool(q.Get("all")),
			NoDate: queryBool(q.Get("noDate")),
		})
	})
}

// Alerts serves GET /alerts.
func (h *Handlers) Alerts() http.HandlerFunc {
	return h.view("alerts", func(r *http.Request) dashboard.Outcome {
		return h.views.Alerts(r.Context())
	})
}

// Realtime serves GET /realtime.
func (h *Handlers) Realtime() http.HandlerFunc {
	return h.view("realtime", func(r *http.Request) dashboard.Outcome {
		return h.views.Realtime(r.Context())
	})
}

// Intervals serves GET /defect-by-intervals?params=&bins=.
func (h *Handlers) Intervals() http.HandlerFunc {
	return h.view("defect-by-intervals", func(r *http.Request) dashboard.Outcome {
		q := r.URL.Query()
		var params []string
		for _, v := range q["params"] {
			params = append(params, dashboard.ParseParams(v)...)
		}
		return h.views.Intervals(r.Context(), params, dashboard.ClampBins(q.Get("bins")))
	})
}

// Analytics serves GET /analytics.
func (h *Handlers) Analytics() http.HandlerFunc {
	return h.view("analytics", func(r *http.Request) dashboard.Outcome {
		return h.views.Analytics(r.Context())
	})
}

// Tables serves GET /tables.
func (h *Handlers) Tables() http.HandlerFunc {
	return h.view("tables", func(r *http.Request) dashboard.Outcome {
		return h.views.Tables(r.Context())
	})
}

// AlertHistory serves GET /alerts/history?limit=.
func (h *Handlers) AlertHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, HistoryResult{Error: "alert journal disabled", Alerts: []state.AlertRecord{}})
		return
	}
	records, err := h.history.History(r.Context(), queryInt(r.URL.Query().Get("limit")))
	if err != nil {
		h.logger.Warn("failed to read alert history", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, HistoryResult{Error: err.Error(), Alerts: []state.AlertRecord{}})
		return
	}
	writeJSON(w, http.StatusOK, HistoryResult{Success: true, Alerts: records})
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "degraded", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthBody{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt parses an integer query value; anything else is 0.
func queryInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
