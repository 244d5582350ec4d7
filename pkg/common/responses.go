package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes bounds request bodies. An expand request carries the
// whole working graph, so the limit is generous.
const DefaultMaxBodyBytes int64 = 8 << 20

// ErrEmptyBody is returned by ParseJSONBody when the request has no body
var ErrEmptyBody = errors.New("request body is empty")

// RespondJSON sends data as the JSON body. API payloads are not wrapped in an
// envelope; the browser client consumes {nodes, edges} directly.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// MessageResponse is a simple informational body
type MessageResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// ParseJSONBody decodes a JSON request body with a size limit. Unknown fields
// are tolerated so older clients keep working.
func ParseJSONBody(r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// ExtractRequestID returns the request id set by chi's RequestID middleware,
// falling back to common proxy headers.
func ExtractRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}
