package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the single failure shape of the gateway. Status is 0 when the
// request never produced a response (transport error, cancelled context).
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusOf returns the upstream status carried by err, 0 when there is none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether the upstream answered 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
