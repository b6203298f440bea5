// Package shared centralizes response writing so every entry point maps
// computation results the same way: coded errors become statuses and JSON
// bodies for machine clients, outcomes become payloads or redirects for
// interactive flows.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/outcome"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates an error into a machine-facing response. Coded
// errors map to their status with a curated message; everything else is a
// defect and becomes a generic 500 with no internal detail.
func WriteError(w http.ResponseWriter, err error) {
	code, ok := dErrors.CodeOf(err)
	if !ok || code == dErrors.CodeInternal {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": dErrors.Message(err, "request failed"),
	})
}

// WriteOutcome renders an interactive outcome: redirects become HTTP 303,
// everything else a 200 with the discriminated payload.
func WriteOutcome(w http.ResponseWriter, r *http.Request, o outcome.Outcome) {
	if o.IsRedirect() {
		http.Redirect(w, r, o.Target(), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}
