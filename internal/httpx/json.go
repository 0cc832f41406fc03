// Package httpx provides the HTTP handlers and routing for the farmer
// registration API.
package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and
// handles errors. Returns true if successful, false if there was an error
// (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteJSON(w, http.StatusBadRequest,
			map[string]string{"error": "invalid_json", "message": err.Error()})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteError maps an application error onto the appropriate HTTP status and
// writes a JSON error body. Unknown errors are reported as a generic 500 so
// internal details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}

	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeConflict:
		status = http.StatusConflict
	case apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		status = http.StatusForbidden
	case apperrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	body := map[string]string{"error": string(code)}
	if status == http.StatusInternalServerError {
		body["message"] = "internal server error"
	} else {
		body["message"] = err.Error()
		if field := apperrors.GetField(err); field != "" {
			body["field"] = field
		}
	}
	WriteJSON(w, status, body)
}
