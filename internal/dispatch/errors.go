package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind separates failures the host may simply re-run from those that point at
// a broken remote or a broken response.
type Kind int

const (
	KindCritical    Kind = iota // transport, protocol or response failure
	KindInterrupted             // cancelled, timed out or shut down
)

func (k Kind) String() string {
	switch k {
	case KindInterrupted:
		return "interrupted"
	default:
		return "critical"
	}
}

var (
	// ErrInterrupted matches any *Error of KindInterrupted via errors.Is.
	ErrInterrupted = errors.New("interrupted")
	// ErrCritical matches any *Error of KindCritical via errors.Is.
	ErrCritical = errors.New("critical")
	// ErrShutdown is returned for submissions made after or during Shutdown.
	ErrShutdown = errors.New("dispatcher shut down")
)

// Error is the error returned by Submit and Do.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers test the kind with errors.Is(err, ErrInterrupted).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInterrupted:
		return e.Kind == KindInterrupted
	case ErrCritical:
		return e.Kind == KindCritical
	}
	return false
}

// Classify wraps err into an *Error for op. Cancellation, deadlines, shutdown
// and network timeouts are interruptions; everything else is critical.
// Errors that are already classified are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err
	}

	kind := KindCritical
	if isInterruption(err) {
		kind = KindInterrupted
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func isInterruption(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrShutdown) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
