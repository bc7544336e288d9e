package actors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMailboxClosed is returned when sending to an actor whose mailbox
	// has been stopped.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned by a bounded mailbox configured with the
	// fail backpressure policy when it has no room left. The caller decides
	// whether to retry or drop.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrUnhandled is returned by an actor's Receive for message kinds it
	// does not accept. The runtime logs and drops the message; the actor
	// stays alive.
	ErrUnhandled = errors.New("unhandled message")

	// ErrDuplicateActor is returned by Spawn when the actor address is
	// already registered.
	ErrDuplicateActor = errors.New("actor name is already registered")

	// ErrActorNotFound is returned when no actor is registered under the
	// given address.
	ErrActorNotFound = errors.New("actor not found")

	// ErrSystemStopping is returned by Spawn once system shutdown has begun.
	ErrSystemStopping = errors.New("actor system is stopping")

	// ErrPoolNotFound is returned when an actor names a worker pool that
	// does not exist.
	ErrPoolNotFound = errors.New("thread pool is not defined")

	// ErrInvalidPoolConfig is returned when a pool is configured with no
	// worker threads.
	ErrInvalidPoolConfig = errors.New("pool must have at least one thread")
)

// PanicError is the value-level form of a panic raised inside a message
// handler. The dispatch boundary converts the panic into this error so that
// the restart policy can resolve it like any other handler failure.
type PanicError struct {
	value any
}

// NewPanicError wraps a recovered panic value.
func NewPanicError(value any) *PanicError {
	return &PanicError{value: value}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("message handler panicked: %v", e.value)
}

// Value returns the recovered panic value.
func (e *PanicError) Value() any {
	return e.value
}
