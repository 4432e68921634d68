// Package syntax defines the syntax-tree engine boundary.
//
// The enablement state machine never evaluates queries or builds trees; it
// only asks the engine what it can do and tells it when to start or stop.
// Every capability check is a probe returning a bool, never an error:
// a missing resource is an ordinary answer, not a failure.
package syntax

import (
	"errors"

	"github.com/dshills/treegate/internal/host"
)

// QueryKind names a per-language query resource.
type QueryKind string

// Query kinds a language may or may not provide.
const (
	QueryHighlights QueryKind = "highlights"
	QueryFolds      QueryKind = "folds"
	QueryIndents    QueryKind = "indents"
)

// ErrUnknownGrammar is returned when a grammar cannot be registered because
// the engine has no binding for the language.
var ErrUnknownGrammar = errors.New("unknown grammar")

// Engine is the syntax-tree collaborator surface.
type Engine interface {
	// HasQuery reports whether the query resource exists for the language.
	HasQuery(language string, kind QueryKind) bool

	// Registered reports whether a grammar for the language is usable now.
	Registered(language string) bool

	// Register activates the engine's grammar for the language.
	Register(language string) error

	// StartHighlight begins tree-based highlighting for a document.
	StartHighlight(doc host.Document, language string) error

	// StopHighlight ends tree-based highlighting for a document.
	// Stopping a document that was never started is a no-op.
	StopHighlight(doc host.Document)

	// BundledLanguages lists languages whose highlight queries ship with
	// the engine itself, installed grammar or not.
	BundledLanguages() []string
}
