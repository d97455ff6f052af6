// Package shared holds the small request/response helpers every JSON
// feature handler uses.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
)

// maxBodyBytes caps request bodies; nothing in the API legitimately
// needs more than 1 MiB.
const maxBodyBytes = 1 << 20

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a JSON request body into dst. On failure it writes a 400
// and returns false; the handler should just return.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			apierrors.RenderBadRequest(w, "request body is empty")
		default:
			apierrors.RenderBadRequest(w, "invalid request body: "+err.Error())
		}
		return false
	}
	return true
}
