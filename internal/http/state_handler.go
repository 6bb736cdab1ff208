package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/openlibrary-kontrolle/internal/application"
	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

type stateService interface {
	Load(ctx context.Context) (application.Snapshot, error)
	Save(ctx context.Context, doc domain.Document, version persistence.Version) (application.Snapshot, error)
	UpsertAttendance(ctx context.Context, date string, record domain.AttendanceRecord) (application.Snapshot, error)
	DeleteAttendance(ctx context.Context, date string) (application.Snapshot, error)
	UpdateAttendanceNote(ctx context.Context, date, note string) (application.Snapshot, error)
	CheckIn(ctx context.Context, staff, note string) (application.Snapshot, error)
	SetWeeklyResponsible(ctx context.Context, weekKey, name string) (application.Snapshot, error)
	UpsertPlanningEntry(ctx context.Context, date string, entry domain.PlanningEntry) (application.Snapshot, error)
	Roster() domain.Roster
}

// StateHandler exposes the shared document and its editing operations.
type StateHandler struct {
	service   stateService
	responder responder
	logger    *slog.Logger
}

func NewStateHandler(service stateService, logger *slog.Logger) *StateHandler {
	base := defaultLogger(logger)
	return &StateHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StateHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StateHandler", operation, attrs...)
}

// Get returns the current document. The ETag header carries the version.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Get")
	snap, err := h.service.Load(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "state load failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if etag := etagFor(snap.Version); etag != "" {
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	logger.DebugContext(r.Context(), "state loaded", "version", snap.Version.String())
	h.writeSnapshot(r.Context(), w, snap)
}

// Put saves a whole document edited from the given version.
func (h *StateHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Put", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode state request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	version := req.Version
	if version == "" {
		version = versionFromETag(r.Header.Get("If-Match"))
	}

	logger := h.log(r.Context(), "Put", "base_version", persistence.Version(version).String())
	snap, err := h.service.Save(r.Context(), req.Document.Clone(), persistence.Version(version))
	if err != nil {
		logger.ErrorContext(r.Context(), "state save failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "state saved", "version", snap.Version.String())
	h.writeSnapshot(r.Context(), w, snap)
}

// PutAttendance records the inspection for the date in the path.
func (h *StateHandler) PutAttendance(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	var req attendanceRequest
	if !h.decode(w, r, "PutAttendance", &req) {
		return
	}
	h.apply(w, r, "PutAttendance", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.UpsertAttendance(ctx, date, domain.AttendanceRecord{StaffMember: req.StaffMember, Note: req.Note})
	}, "date", date)
}

// DeleteAttendance removes the record for the date in the path.
func (h *StateHandler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	h.apply(w, r, "DeleteAttendance", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.DeleteAttendance(ctx, date)
	}, "date", date)
}

// PutAttendanceNote edits the note of an existing record.
func (h *StateHandler) PutAttendanceNote(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	var req noteRequest
	if !h.decode(w, r, "PutAttendanceNote", &req) {
		return
	}
	h.apply(w, r, "PutAttendanceNote", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.UpdateAttendanceNote(ctx, date, req.Note)
	}, "date", date)
}

// PostCheckIn records an inspection for today.
func (h *StateHandler) PostCheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !h.decode(w, r, "PostCheckIn", &req) {
		return
	}
	h.apply(w, r, "PostCheckIn", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.CheckIn(ctx, req.StaffMember, req.Note)
	}, "staff_member", strings.TrimSpace(req.StaffMember))
}

// PutResponsibility assigns the responsible person for the week in the path.
func (h *StateHandler) PutResponsibility(w http.ResponseWriter, r *http.Request) {
	week := r.PathValue("week")
	var req responsibilityRequest
	if !h.decode(w, r, "PutResponsibility", &req) {
		return
	}
	h.apply(w, r, "PutResponsibility", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.SetWeeklyResponsible(ctx, week, req.StaffMember)
	}, "week", week)
}

// PutPlanning replaces the planning entry for the date in the path.
func (h *StateHandler) PutPlanning(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	var req planningRequest
	if !h.decode(w, r, "PutPlanning", &req) {
		return
	}
	h.apply(w, r, "PutPlanning", func(ctx context.Context) (application.Snapshot, error) {
		return h.service.UpsertPlanningEntry(ctx, date, req.toEntry())
	}, "date", date)
}

// GetRoster lists the staff members.
func (h *StateHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{Roster: h.service.Roster().Names()})
}

func (h *StateHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	if err := decodeJSON(w, r, dst); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (h *StateHandler) apply(w http.ResponseWriter, r *http.Request, operation string, call func(context.Context) (application.Snapshot, error), attrs ...any) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), operation, attrs...)
	snap, err := call(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "state update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "state updated", "version", snap.Version.String())
	h.writeSnapshot(r.Context(), w, snap)
}

func (h *StateHandler) writeSnapshot(ctx context.Context, w http.ResponseWriter, snap application.Snapshot) {
	if etag := etagFor(snap.Version); etag != "" {
		w.Header().Set("ETag", etag)
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, stateResponse{Document: snap.Document, Version: string(snap.Version)})
}

func etagFor(v persistence.Version) string {
	if v.IsZero() {
		return ""
	}
	return `"` + string(v) + `"`
}

func versionFromETag(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "W/")
	return strings.Trim(value, `"`)
}

type stateResponse struct {
	Document domain.Document `json:"document"`
	Version  string          `json:"version"`
}

type saveRequest struct {
	Document domain.Document `json:"document"`
	Version  string          `json:"version"`
}

type attendanceRequest struct {
	StaffMember string `json:"mitarbeiter"`
	Note        string `json:"bemerkung"`
}

type noteRequest struct {
	Note string `json:"bemerkung"`
}

type responsibilityRequest struct {
	StaffMember string `json:"mitarbeiter"`
}

type planningRequest struct {
	OpeningSlots map[string][]string `json:"oeffnungszeiten"`
	ClassVisit   string              `json:"klassenbesuch"`
	Note         string              `json:"bemerkung"`
}

func (p planningRequest) toEntry() domain.PlanningEntry {
	slots := make(map[domain.Slot][]string, len(p.OpeningSlots))
	for slot, staff := range p.OpeningSlots {
		slots[domain.Slot(slot)] = staff
	}
	return domain.PlanningEntry{OpeningSlots: slots, ClassVisit: p.ClassVisit, Note: p.Note}
}

type rosterResponse struct {
	Roster []string `json:"roster"`
}
