package api

import (
	"errors"
	"fmt"

	"github.com/abhisek/cognigen/internal/content"
)

// ErrUnauthorized is returned for any 401. The UI routes to login on it.
var ErrUnauthorized = errors.New("not signed in")

// Error is a non-2xx response from the learning API.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("learning api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("learning api: status %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrIncompatibleServer indicates the server advertises an API version older
// than the client supports.
type ErrIncompatibleServer struct {
	Have string
	Want string
}

func (e *ErrIncompatibleServer) Error() string {
	return fmt.Sprintf("server api version %s is older than required %s", e.Have, e.Want)
}

// Message extracts a user-facing message from err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Please sign in again."
	}
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}
