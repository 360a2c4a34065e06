package api

import (
	"net/http"

	"universe-planner/internal/service"
)

// ListUniverses GET /universes returns the universe tree, or a flat list
// with ?flat=true.
func (h *Handler) ListUniverses(w http.ResponseWriter, r *http.Request) {
	if queryBool(r, "flat") {
		universes, err := h.svc.Universes.ListUniverses(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, r, http.StatusOK, universes)
		return
	}
	tree, err := h.svc.Universes.Tree(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, tree)
}

// CreateUniverse POST /universes
func (h *Handler) CreateUniverse(w http.ResponseWriter, r *http.Request) {
	var in service.UniverseInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	u, err := h.svc.Universes.CreateUniverse(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, u)
}

// GetUniverse GET /universes/{id}
func (h *Handler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	detail, err := h.svc.Universes.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, detail)
}

// UpdateUniverse PUT /universes/{id}
func (h *Handler) UpdateUniverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.UniverseInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	u, err := h.svc.Universes.UpdateUniverse(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, u)
}

// DeleteUniverse DELETE /universes/{id}
func (h *Handler) DeleteUniverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.Universes.DeleteUniverse(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Universe deleted", nil, "/universes")
}

// ReorderUniverseTasks POST /universes/{id}/order
func (h *Handler) ReorderUniverseTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var body struct {
		TaskIDs []uint `json:"task_ids"`
	}
	form, err := readForm(r, &body)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if form != nil {
		if body.TaskIDs, err = formIDs(form, "task_ids"); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.svc.Universes.ReorderTasks(r.Context(), id, body.TaskIDs); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Order saved", nil, "/today")
}
