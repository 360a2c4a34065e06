package api

import (
	"net/http"

	"universe-planner/internal/model"
	"universe-planner/internal/service"
)

// ListRecurringTasks GET /recurring-tasks
func (h *Handler) ListRecurringTasks(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.RecurringTasks.ListRecurringTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, rules)
}

// CreateRecurringTask POST /recurring-tasks
func (h *Handler) CreateRecurringTask(w http.ResponseWriter, r *http.Request) {
	var in service.RecurringTaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	rule, err := h.svc.RecurringTasks.CreateRecurringTask(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, rule)
}

// GetRecurringTask GET /recurring-tasks/{id}
func (h *Handler) GetRecurringTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	rule, err := h.svc.RecurringTasks.GetRecurringTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, rule)
}

// UpdateRecurringTask PUT /recurring-tasks/{id}
func (h *Handler) UpdateRecurringTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.RecurringTaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	rule, err := h.svc.RecurringTasks.UpdateRecurringTask(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, rule)
}

// DeleteRecurringTask DELETE /recurring-tasks/{id}
func (h *Handler) DeleteRecurringTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.RecurringTasks.DeleteRecurringTask(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Recurring task deleted", nil, "/recurring-tasks")
}

// SeedRecurringTask POST /recurring-tasks/{id}/seed
func (h *Handler) SeedRecurringTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var body struct {
		DeadlineAt string `json:"deadline_at"`
	}
	form, err := readForm(r, &body)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if form != nil {
		body.DeadlineAt = form.Get("deadline_at")
	}
	deadlineAt, err := parseTime(body.DeadlineAt, h.loc)
	if err != nil {
		writeError(w, r, model.FieldError("deadline_at", err.Error()))
		return
	}
	task, err := h.svc.RecurringTasks.Seed(r.Context(), id, deadlineAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Task created from recurring task", task, "/today")
}
