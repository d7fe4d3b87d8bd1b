package kindle

import (
	"errors"
	"fmt"
)

// Sentinel errors for library fetches.
var (
	ErrAuthFailed = errors.New("kindle: authentication failed")
	ErrTimeout    = errors.New("kindle: request timed out")
	ErrTransport  = errors.New("kindle: transport failure")
)

// Error wraps a fetch failure with the proxy it was talking to.
type Error struct {
	Op    string // "fetchLibrary"
	Proxy string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("kindle %s [%s]: %v", e.Op, e.Proxy, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, proxy string, err error) error {
	return &Error{Op: op, Proxy: proxy, Err: err}
}
