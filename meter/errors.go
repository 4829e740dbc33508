package meter

import "github.com/pkg/errors"

// errors
var (
	// ErrConfigurationInvalid is returned when a window or sampler is built from
	// settings it cannot run with.
	ErrConfigurationInvalid = errors.New("invalid configuration")

	// ErrSessionStart is returned by Start when the capture could not be opened.
	ErrSessionStart = errors.New("failed to start capture session")

	// ErrCaptureUnavailable describes a capture that cannot supply readings.
	// The sampler never returns it; it is reported through EventCaptureUnavailable.
	ErrCaptureUnavailable = errors.New("capture unavailable")
)

// SessionError wraps the capture failure that kept a session from starting.
// It matches both ErrSessionStart and the underlying cause.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return ErrSessionStart.Error() + ": " + e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is reports ErrSessionStart as a match.
func (e *SessionError) Is(target error) bool {
	return target == ErrSessionStart
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfigurationInvalid, format, args...)
}
