package api

import (
	"net/http"
	"strconv"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
	"universe-planner/internal/service"
)

const defaultLogLimit = 100

// ListLogEntries GET /log-entries?loggable_type=&loggable_id=&limit=
func (h *Handler) ListLogEntries(w http.ResponseWriter, r *http.Request) {
	filter := repository.LogFilter{Limit: defaultLogLimit}
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, r, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if kind := q.Get("loggable_type"); kind != "" {
		k, err := model.ParseKind(kind)
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}
		id, err := queryUint(r, "loggable_id")
		if err != nil || id == nil {
			writeBadRequest(w, r, "loggable_id is required with loggable_type")
			return
		}
		ref := model.RefOf(k, *id)
		filter.Loggable = &ref
	}
	entries, err := h.svc.Journal.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, entries)
}

// CreateLogEntry POST /log-entries
func (h *Handler) CreateLogEntry(w http.ResponseWriter, r *http.Request) {
	var in service.LogInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	entry, err := h.svc.Journal.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, entry)
}

// GetLogEntry GET /log-entries/{id}
func (h *Handler) GetLogEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	entry, err := h.svc.Journal.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, entry)
}

// UpdateLogEntry PUT /log-entries/{id}
func (h *Handler) UpdateLogEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.LogInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	entry, err := h.svc.Journal.Edit(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, entry)
}

// DeleteLogEntry DELETE /log-entries/{id}
func (h *Handler) DeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.Journal.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Log entry deleted", nil, "/log-entries")
}
