package taskapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when the requested task does not exist.
var ErrNotFound = errors.New("task not found")

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d)", e.Code)
	}
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Message)
}

// Transient reports whether the request may succeed if repeated later.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsTransient reports whether err carries a transient StatusError.
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}

// newStatusError builds a StatusError, pulling a readable message out of a
// JSON error body when the API sent one.
func newStatusError(code int, body []byte) *StatusError {
	msg := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if v := gjson.GetBytes(body, field); v.Exists() && v.String() != "" {
				msg = v.String()
				break
			}
		}
	}
	return &StatusError{Code: code, Message: msg}
}
