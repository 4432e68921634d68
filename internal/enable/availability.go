// Package enable decides whether and when syntax-tree features turn on for
// a document. It owns the per-filetype availability state machine, the
// per-document option bookkeeping, and the public lifecycle operations;
// parsing, installation, and option storage stay behind the host, syntax,
// and installer boundaries.
package enable

import (
	"sync"

	"github.com/dshills/treegate/internal/host"
)

// Availability is the per-filetype grammar state.
type Availability int

// Availability states. Unavailable is terminal for the process lifetime:
// once an install fails or is declined, the filetype is never silently
// retried.
const (
	// StateUnknown - the filetype has not been checked yet.
	StateUnknown Availability = iota

	// StateInstalling - an installation has been dispatched and has not
	// resolved. Attaches during this window queue instead of re-installing.
	StateInstalling

	// StateAvailable - the grammar is usable now.
	StateAvailable

	// StateUnavailable - installation failed or was declined.
	StateUnavailable
)

// String returns the state name.
func (a Availability) String() string {
	switch a {
	case StateUnknown:
		return "unknown"
	case StateInstalling:
		return "installing"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "invalid"
	}
}

// Registry maps filetypes to grammar availability. Filetypes without an
// entry are not managed: treegate never activates languages the user did
// not list, so attach is a no-op for them.
type Registry struct {
	mu     sync.RWMutex
	states map[string]Availability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]Availability)}
}

// Seed marks every filetype of the configured languages Unknown. Filetypes
// already present keep their state, so a re-seed cannot reset an install
// outcome. A language the host maps to no filetype is keyed by the
// language identifier itself.
func (r *Registry) Seed(h host.Host, languages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lang := range languages {
		fts := h.FiletypesFor(lang)
		if len(fts) == 0 {
			fts = []string{lang}
		}
		for _, ft := range fts {
			if _, exists := r.states[ft]; !exists {
				r.states[ft] = StateUnknown
			}
		}
	}
}

// Get returns the filetype's state and whether the filetype is managed.
func (r *Registry) Get(filetype string) (Availability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, managed := r.states[filetype]
	return state, managed
}

// Set updates a managed filetype's state. Unmanaged filetypes are ignored;
// Set never grows the managed set.
func (r *Registry) Set(filetype string, state Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, managed := r.states[filetype]; managed {
		r.states[filetype] = state
	}
}
