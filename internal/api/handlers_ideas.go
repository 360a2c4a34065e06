package api

import (
	"net/http"

	"universe-planner/internal/service"
)

// ListIdeas GET /ideas
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.svc.Ideas.ListIdeas(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, ideas)
}

// CreateIdea POST /ideas
func (h *Handler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var in service.IdeaInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	idea, err := h.svc.Ideas.CreateIdea(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, idea)
}

// GetIdea GET /ideas/{id}
func (h *Handler) GetIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	idea, err := h.svc.Ideas.GetIdea(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, idea)
}

// UpdateIdea PUT /ideas/{id}
func (h *Handler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.IdeaInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	idea, err := h.svc.Ideas.UpdateIdea(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, idea)
}

// DeleteIdea DELETE /ideas/{id}
func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.Ideas.DeleteIdea(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Idea deleted", nil, "/ideas")
}

// ListIdeaPools GET /idea-pools
func (h *Handler) ListIdeaPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.svc.IdeaPools.ListIdeaPools(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, pools)
}

// CreateIdeaPool POST /idea-pools
func (h *Handler) CreateIdeaPool(w http.ResponseWriter, r *http.Request) {
	var in service.IdeaPoolInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	pool, err := h.svc.IdeaPools.CreateIdeaPool(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, pool)
}

// GetIdeaPool GET /idea-pools/{id}
func (h *Handler) GetIdeaPool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	pool, err := h.svc.IdeaPools.GetIdeaPool(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, pool)
}

// UpdateIdeaPool PUT /idea-pools/{id}
func (h *Handler) UpdateIdeaPool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.IdeaPoolInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	pool, err := h.svc.IdeaPools.UpdateIdeaPool(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, pool)
}

// DeleteIdeaPool DELETE /idea-pools/{id}
func (h *Handler) DeleteIdeaPool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.IdeaPools.DeleteIdeaPool(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Idea pool deleted", nil, "/idea-pools")
}
