package authclient

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrTransport matches every failure to reach the identity API.
	ErrTransport = errors.New("identity API unreachable")

	// ErrSessionExpired is returned once a rejected token could not be refreshed.
	ErrSessionExpired = errors.New("session expired")

	ErrNoRefreshToken = errors.New("no refresh token")
)

// APIError is a response the identity API answered unsuccessfully.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); e.Status >= http.StatusBadRequest && text != "" {
		return text
	}
	return "request failed"
}

// ServerMessage is the message sent by the identity API, if any.
func (e *APIError) ServerMessage() string { return e.Message }

// TransportError wraps a network failure for one request.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return e.Method + " " + e.Path + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
