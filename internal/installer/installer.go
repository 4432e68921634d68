// Package installer is the asynchronous boundary to the external grammar
// installation service.
//
// The service is optional. When it cannot be located, every installer
// operation degrades to a no-op and the rest of the system falls back to
// bundled grammars; absence is a condition, never an error.
package installer

import (
	"context"
	"errors"
)

// Installer errors.
var (
	// ErrUnavailable is reported when no installer service can be located.
	ErrUnavailable = errors.New("installer service unavailable")

	// ErrClosed is reported for installs requested after Close.
	ErrClosed = errors.New("installer gateway closed")

	// ErrInstallFailed wraps a failure reported by the service itself.
	ErrInstallFailed = errors.New("grammar install failed")
)

// Gateway is the installer collaborator surface. Install is
// fire-and-forget: it returns immediately and the done callback is invoked
// exactly once with the outcome, from a gateway goroutine. Callbacks never
// receive a panic.
type Gateway interface {
	// Available reports whether the installer service can be located.
	// The answer is computed once and cached for the process lifetime.
	Available() bool

	// Install asynchronously installs the grammar for a language.
	Install(ctx context.Context, language string, done func(err error))
}
