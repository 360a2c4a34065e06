package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"universe-planner/internal/service"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler provides HTTP transport for the planner services.
type Handler struct {
	svc *service.Services
	db  Pinger
	loc *time.Location
}

// NewRouter creates the HTTP router with every planner route. Dates without
// a time of day are read in loc.
func NewRouter(svc *service.Services, db Pinger, loc *time.Location, log zerolog.Logger) *mux.Router {
	if loc == nil {
		loc = time.Local
	}
	h := &Handler{svc: svc, db: db, loc: loc}
	router := mux.NewRouter()
	router.Use(requestLogger(log), observeLatency, recoverPanics)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/today", h.Today).Methods(http.MethodGet)

	router.HandleFunc("/universes", h.ListUniverses).Methods(http.MethodGet)
	router.HandleFunc("/universes", h.CreateUniverse).Methods(http.MethodPost)
	router.HandleFunc("/universes/{id:[0-9]+}", h.GetUniverse).Methods(http.MethodGet)
	router.HandleFunc("/universes/{id:[0-9]+}", h.UpdateUniverse).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/universes/{id:[0-9]+}", h.DeleteUniverse).Methods(http.MethodDelete)
	router.HandleFunc("/universes/{id:[0-9]+}/order", h.ReorderUniverseTasks).Methods(http.MethodPost)

	router.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTask).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{id:[0-9]+}/complete", h.CompleteTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id:[0-9]+}/skip", h.SkipTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id:[0-9]+}/log", h.LogTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id:[0-9]+}/snooze", h.SnoozeTask).Methods(http.MethodPost)

	router.HandleFunc("/recurring-tasks", h.ListRecurringTasks).Methods(http.MethodGet)
	router.HandleFunc("/recurring-tasks", h.CreateRecurringTask).Methods(http.MethodPost)
	router.HandleFunc("/recurring-tasks/{id:[0-9]+}", h.GetRecurringTask).Methods(http.MethodGet)
	router.HandleFunc("/recurring-tasks/{id:[0-9]+}", h.UpdateRecurringTask).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/recurring-tasks/{id:[0-9]+}", h.DeleteRecurringTask).Methods(http.MethodDelete)
	router.HandleFunc("/recurring-tasks/{id:[0-9]+}/seed", h.SeedRecurringTask).Methods(http.MethodPost)

	router.HandleFunc("/ideas", h.ListIdeas).Methods(http.MethodGet)
	router.HandleFunc("/ideas", h.CreateIdea).Methods(http.MethodPost)
	router.HandleFunc("/ideas/{id:[0-9]+}", h.GetIdea).Methods(http.MethodGet)
	router.HandleFunc("/ideas/{id:[0-9]+}", h.UpdateIdea).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/ideas/{id:[0-9]+}", h.DeleteIdea).Methods(http.MethodDelete)

	router.HandleFunc("/idea-pools", h.ListIdeaPools).Methods(http.MethodGet)
	router.HandleFunc("/idea-pools", h.CreateIdeaPool).Methods(http.MethodPost)
	router.HandleFunc("/idea-pools/{id:[0-9]+}", h.GetIdeaPool).Methods(http.MethodGet)
	router.HandleFunc("/idea-pools/{id:[0-9]+}", h.UpdateIdeaPool).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/idea-pools/{id:[0-9]+}", h.DeleteIdeaPool).Methods(http.MethodDelete)

	router.HandleFunc("/log-entries", h.ListLogEntries).Methods(http.MethodGet)
	router.HandleFunc("/log-entries", h.CreateLogEntry).Methods(http.MethodPost)
	router.HandleFunc("/log-entries/{id:[0-9]+}", h.GetLogEntry).Methods(http.MethodGet)
	router.HandleFunc("/log-entries/{id:[0-9]+}", h.UpdateLogEntry).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/log-entries/{id:[0-9]+}", h.DeleteLogEntry).Methods(http.MethodDelete)

	return router
}

// Health GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("database ping failed")
			writeJSON(w, r, http.StatusServiceUnavailable, Envelope{Success: false, Message: "database unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, Envelope{Success: true, Message: "ok"})
}

// Today GET /today
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	today, err := h.svc.Today.Today(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, today)
}
