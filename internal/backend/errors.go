package backend

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated means a privileged call was attempted with no token
// present. Views check this before firing a request so the server never
// sees the doomed call.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a rejection the server answered with a usable body. Message
// is the server's own text and is shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// AsAPIError unwraps an APIError if err carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
