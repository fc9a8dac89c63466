package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// contextBackground is the plain context every block handler dispatches
// sidecar/network calls with — the engine has no per-block timeout of its
// own; TimeoutMs fields on individual block settings bound the call instead
// (see sidecar.Request.TimeoutMs and the protocol/network handlers' dial
// timeouts).
func contextBackground() context.Context {
	return context.Background()
}

// newRequestID returns a random hex correlation id for one sidecar
// Request, matching the sidecar wire protocol's opaque string id field.
func newRequestID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
