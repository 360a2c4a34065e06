package api

import (
	"net/http"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
	"universe-planner/internal/service"
)

// ListTasks GET /tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	recurringID, err := queryUint(r, "recurring_task_id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	tasks, err := h.svc.Tasks.ListTasks(r.Context(), repository.TaskFilter{
		IncludeTerminal: queryBool(r, "include_terminal"),
		RecurringTaskID: recurringID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, tasks)
}

// CreateTask POST /tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	task, err := h.svc.Tasks.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, task)
}

// GetTask GET /tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	task, err := h.svc.Tasks.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, task)
}

// UpdateTask PUT /tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var in service.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	task, err := h.svc.Tasks.UpdateTask(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, task)
}

// DeleteTask DELETE /tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := h.svc.Tasks.DeleteTask(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Task deleted", nil, "/tasks")
}

// CompleteTask POST /tasks/{id}/complete
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	in, err := h.timeSpent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Tasks.CompleteTask(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Task completed", res, "/today")
}

// SkipTask POST /tasks/{id}/skip
func (h *Handler) SkipTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	res, err := h.svc.Tasks.SkipTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Task skipped", res, "/today")
}

// LogTask POST /tasks/{id}/log
func (h *Handler) LogTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	in, err := h.timeSpent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.svc.Tasks.LogTime(r.Context(), id, in.Minutes, deref(in.Notes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondAction(w, r, "Time logged", entry, "/today")
}

// SnoozeTask POST /tasks/{id}/snooze
func (h *Handler) SnoozeTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var body struct {
		SnoozeUntil string `json:"snooze_until"`
	}
	form, err := readForm(r, &body)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if form != nil {
		body.SnoozeUntil = form.Get("snooze_until")
	}
	until, err := parseTime(body.SnoozeUntil, h.loc)
	if err != nil {
		writeError(w, r, model.FieldError("snooze_until", err.Error()))
		return
	}
	task, err := h.svc.Tasks.SnoozeTask(r.Context(), id, until)
	if err != nil {
		writeError(w, r, err)
		return
	}
	message := "Task snoozed"
	if until == nil {
		message = "Snooze cleared"
	}
	respondAction(w, r, message, task, "/today")
}

// timeSpent reads minutes and notes from a JSON body or form values.
func (h *Handler) timeSpent(r *http.Request) (service.CompleteInput, error) {
	var in service.CompleteInput
	form, err := readForm(r, &in)
	if err != nil || form == nil {
		return in, badInput(err)
	}
	if in.Minutes, err = formInt(form, "minutes"); err != nil {
		return in, err
	}
	in.Notes = formString(form, "notes")
	return in, nil
}

// badInput turns a decode failure into a validation error on the body.
func badInput(err error) error {
	if err == nil {
		return nil
	}
	return model.FieldError("body", err.Error())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
