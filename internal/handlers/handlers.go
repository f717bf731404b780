// Package handlers wires HTTP routes to the service layer. Every handler
// speaks both JSON (Accept: application/json) and HTML (form posts with
// PRG redirects), mirroring how the staff UI and the API consume the same
// routes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/services"
	"github.com/oficinatec/oficina/internal/view"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = http.StatusSeeOther

// errHandled signals that a callback already wrote the response.
var errHandled = errors.New("response already written")

// idParam reads a positive integer query parameter.
func idParam(r *http.Request, name string) (uint, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = r.FormValue(name)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// writeServiceError translates the service error taxonomy into an HTTP
// response: 404 NotFound, 403 Forbidden, 409 invalid state / numbering
// conflict, 400 validation, 500 otherwise.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, services.ErrInvalidState):
		httpx.JSONError(w, http.StatusConflict, "invalid_state", nil)
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// renderTemplate wraps view.Render with a plain-text fallback on failure.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("erro ao renderizar página"))
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
