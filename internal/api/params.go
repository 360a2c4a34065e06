package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"universe-planner/internal/model"
)

const dateLayout = "2006-01-02"

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// readForm parses the request as a form unless it carries a JSON body, in
// which case it is decoded into v and nil values are returned.
func readForm(r *http.Request, v interface{}) (url.Values, error) {
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return nil, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	return r.Form, nil
}

func formInt(form url.Values, field string) (*int, error) {
	raw := strings.TrimSpace(form.Get(field))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.FieldError(field, "must be a whole number")
	}
	return &n, nil
}

func formString(form url.Values, field string) *string {
	if _, ok := form[field]; !ok {
		return nil
	}
	v := form.Get(field)
	return &v
}

// parseTime accepts RFC 3339 timestamps and plain dates, the latter taken as
// midnight in loc.
func parseTime(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 time or %s date", dateLayout)
	}
	return &t, nil
}

func formIDs(form url.Values, field string) ([]uint, error) {
	var ids []uint
	for _, raw := range form[field] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, model.FieldError(field, "must be a list of ids")
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func queryUint(r *http.Request, name string) (*uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	id := uint(n)
	return &id, nil
}
