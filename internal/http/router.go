package http

import (
	"net/http"
)

type RouterConfig struct {
	State      *StateHandler
	Calendar   *CalendarHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.State != nil {
		mux.HandleFunc("GET /state", cfg.State.Get)
		mux.HandleFunc("PUT /state", cfg.State.Put)
		mux.HandleFunc("PUT /attendance/{date}", cfg.State.PutAttendance)
		mux.HandleFunc("DELETE /attendance/{date}", cfg.State.DeleteAttendance)
		mux.HandleFunc("PUT /attendance/{date}/note", cfg.State.PutAttendanceNote)
		mux.HandleFunc("POST /checkins", cfg.State.PostCheckIn)
		mux.HandleFunc("PUT /responsibility/{week}", cfg.State.PutResponsibility)
		mux.HandleFunc("PUT /planning/{date}", cfg.State.PutPlanning)
		mux.HandleFunc("GET /roster", cfg.State.GetRoster)
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("GET /calendar/coverage", cfg.Calendar.Coverage)
		mux.HandleFunc("GET /calendar/events", cfg.Calendar.Events)
		mux.HandleFunc("GET /planning/week", cfg.Calendar.Week)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
