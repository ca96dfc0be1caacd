package shared

import (
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrRemoteCallFailed   = fmt.Errorf("remote call failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrAlbumNotFound      = fmt.Errorf("album not found")
	ErrFrameNotFound      = fmt.Errorf("frame not found")

	// Data errors
	ErrMalformedTimestamp = fmt.Errorf("malformed timestamp")
	ErrMissingRequiredURL = fmt.Errorf("missing required url")
	ErrNoSyncRuns         = fmt.Errorf("no sync runs recorded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RemoteError describes a failed call to one of the remote services.
//
// It matches [ErrRemoteCallFailed] with [errors.Is] as well as the underlying cause, if any.
type RemoteError struct {
	Op         string // Operation name, e.g. "nixplay.delete_items"
	StatusCode int    // HTTP status, 0 when the request never completed
	Err        error  // Underlying transport or decode error
}

// NewRemoteError builds a [RemoteError] for op.
func NewRemoteError(op string, status int, err error) *RemoteError {
	return &RemoteError{Op: op, StatusCode: status, Err: err}
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: status %d (%s)", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteCallFailed}
	}
	return []error{ErrRemoteCallFailed, e.Err}
}
