package sidecar

import (
	"context"
	"errors"
)

// ErrClosed is returned by the Multiplexer when its child process has
// exited or the Multiplexer was closed before a reply could be delivered.
var ErrClosed = errors.New("sidecar: channel closed")

// Sender is the caller-facing handle every HTTP-bearing block dispatches
// through. Both the child-process transport and the in-process transport
// implement it with identical semantics: exactly one reply is delivered,
// or Send returns ErrClosed.
type Sender interface {
	// Send enqueues req and blocks until its matching Response arrives, ctx
	// is cancelled, or the backend's transport closes.
	Send(ctx context.Context, req Request) (Response, error)
}
