// Package handlers translates HTTP requests into commands and queries and
// renders their results. Handlers never talk to infrastructure directly.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"topicgraph/pkg/common"
	apperrors "topicgraph/pkg/errors"
)

// decodeBody parses a JSON body into v. With optional set an empty body
// leaves v untouched.
func decodeBody(r *http.Request, v interface{}, maxBytes int64, optional bool) error {
	err := common.ParseJSONBody(r, v, maxBytes)
	if err == nil {
		return nil
	}
	if optional && errors.Is(err, common.ErrEmptyBody) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError("request body too large").WithCode("BODY_TOO_LARGE")
	}
	return apperrors.NewValidationError("Invalid request body: " + err.Error())
}

// expectedVersion returns the body version, falling back to an If-Match
// header. Zero means "any version".
func expectedVersion(r *http.Request, fromBody int64) (int64, error) {
	if fromBody != 0 {
		return fromBody, nil
	}
	header := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
	if header == "" || header == "*" {
		return 0, nil
	}
	v, err := strconv.ParseInt(header, 10, 64)
	if err != nil || v < 0 {
		return 0, apperrors.NewValidationError("If-Match must be a workspace version")
	}
	return v, nil
}

func setVersionHeader(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}
