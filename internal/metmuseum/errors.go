package metmuseum

import (
	"errors"
	"fmt"
)

// Sentinel errors for collection API operations.
var (
	ErrNotFound    = errors.New("metmuseum: object not found")
	ErrRateLimited = errors.New("metmuseum: rate limited by server")
	ErrBadRequest  = errors.New("metmuseum: bad request")
	ErrServer      = errors.New("metmuseum: server error")
	ErrInvalidID   = errors.New("metmuseum: invalid object id")
	ErrMalformed   = errors.New("metmuseum: malformed response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op       string // Operation: "getObject", "fetchManifest"
	ObjectID int    // If applicable
	Err      error
}

func (e *Error) Error() string {
	if e.ObjectID != 0 {
		return fmt.Sprintf("metmuseum %s [%d]: %v", e.Op, e.ObjectID, e.Err)
	}
	return fmt.Sprintf("metmuseum %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, objectID int, err error) error {
	return &Error{
		Op:       op,
		ObjectID: objectID,
		Err:      err,
	}
}

// Retryable reports whether a lookup failure may succeed on a later attempt.
// Missing objects and malformed ids never will.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID), errors.Is(err, ErrBadRequest):
		return false
	default:
		return err != nil
	}
}

// Permanent reports a lookup failure that will never succeed for that id.
func Permanent(err error) bool {
	return err != nil && !Retryable(err)
}
