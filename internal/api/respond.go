package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"universe-planner/internal/model"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, r, status, Envelope{Success: true, Data: data})
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvariant), errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a failure envelope. Internal errors are logged
// and their text is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	env := Envelope{Success: false, Message: err.Error()}
	var v *model.ValidationError
	if errors.As(err, &v) {
		env.Message = "validation failed"
		env.Errors = v.Fields
	}
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg("request failed")
		env.Message = http.StatusText(status)
	}
	writeJSON(w, r, status, env)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusBadRequest, Envelope{Success: false, Message: message})
}

// wantsJSON reports whether the client negotiated a JSON response, either
// through Accept or by sending a JSON body.
func wantsJSON(r *http.Request) bool {
	if isJSONBody(r) {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

func isJSONBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// respondAction answers an action endpoint: an envelope for JSON clients,
// otherwise a 303 back to the referring page or fallback. Failures are
// always rendered as envelopes.
func respondAction(w http.ResponseWriter, r *http.Request, message string, data interface{}, fallback string) {
	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
		return
	}
	target := r.Referer()
	if target == "" {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
