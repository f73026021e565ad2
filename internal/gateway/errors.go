package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TimeoutError is returned when a request does not settle within the
// configured timeout. The in-flight request has been aborted.
type TimeoutError struct {
	Method string
	URL    string
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout: %s %s exceeded %s", e.Method, e.URL, e.Limit)
}

// Timeout reports true so TimeoutError satisfies net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }

// StatusError is returned by the typed endpoints for non-2xx responses.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Detail     string // "detail" field of the error body, if any
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// parseDetail extracts the "detail" member of an error body. String details
// are returned verbatim; structured details are returned as compact JSON.
func parseDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	detail := strings.TrimSpace(string(payload.Detail))
	switch {
	case detail == "" || detail == "null":
		return payload.Message
	case strings.HasPrefix(detail, `"`):
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
	}
	return detail
}
