package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/application"
	"github.com/example/openlibrary-kontrolle/internal/calendar"
	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/planning"
)

type documentReader interface {
	Load(ctx context.Context) (application.Snapshot, error)
	Now() time.Time
}

// CalendarHandler serves read-only views derived from the document.
type CalendarHandler struct {
	service   documentReader
	engine    *planning.Engine
	period    calendar.Period
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service documentReader, engine *planning.Engine, period calendar.Period, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, engine: engine, period: period, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

// Coverage lists the inspection state of every period day up to today, grouped
// into weeks with the newest first.
func (h *CalendarHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r, "Coverage")
	if !ok {
		return
	}

	now := h.service.Now()
	weeks := calendar.Weeks(h.period.Days(now))
	resp := coverageResponse{
		Start: domain.DateKey(h.period.Start),
		End:   domain.DateKey(h.period.End),
		Today: domain.DateKey(now),
		Weeks: make([][]calendar.DayCoverage, 0, len(weeks)),
	}
	for _, week := range weeks {
		resp.Weeks = append(resp.Weeks, calendar.Coverage(snap.Document.Attendance, week))
	}

	h.log(r.Context(), "Coverage").With("week_count", len(resp.Weeks)).DebugContext(r.Context(), "coverage computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Events lists calendar entries for planned days.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r, "Events")
	if !ok {
		return
	}

	events := calendar.Events(snap.Document.Planning)
	if events == nil {
		events = []calendar.Event{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventsResponse{Events: events})
}

// Week returns the staffing plan for ?week=YYYY-Www, defaulting to the current week.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("week"))
	if key != "" && !domain.IsWeekKey(key) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidWeek)
		return
	}

	snap, ok := h.load(w, r, "Week")
	if !ok {
		return
	}

	var (
		week planning.Week
		err  error
	)
	if key == "" {
		week, err = h.engine.WeekPlan(snap.Document, h.service.Now())
	} else {
		week, err = h.engine.WeekPlanForKey(snap.Document, key)
	}
	if err != nil {
		h.log(r.Context(), "Week", "week", key).ErrorContext(r.Context(), "week plan failed", "error", err, "error_kind", "unexpected")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekResponse{
		Week:        week,
		Responsible: snap.Document.WeeklyResponsibility[week.Key],
	})
}

func (h *CalendarHandler) load(w http.ResponseWriter, r *http.Request, operation string) (application.Snapshot, bool) {
	if h == nil || h.service == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Snapshot{}, false
	}
	snap, err := h.service.Load(r.Context())
	if err != nil {
		h.log(r.Context(), operation).ErrorContext(r.Context(), "state load failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Snapshot{}, false
	}
	return snap, true
}

type coverageResponse struct {
	Start string                   `json:"start"`
	End   string                   `json:"end"`
	Today string                   `json:"today"`
	Weeks [][]calendar.DayCoverage `json:"weeks"`
}

type eventsResponse struct {
	Events []calendar.Event `json:"events"`
}

type weekResponse struct {
	planning.Week
	Responsible string `json:"responsible,omitempty"`
}
