// Package host defines the editor surface treegate consumes.
//
// Treegate never touches text or rendering directly. Everything it needs
// from the embedding editor (documents, views, option access, and the
// filetype/language mapping) goes through the interfaces in this package.
// A real editor supplies the implementation; Memory is an in-memory
// implementation for tests and the demo binary.
package host

// Option names treegate reads and writes on documents and views.
const (
	// OptFoldMethod is the view-local fold strategy option.
	OptFoldMethod = "foldmethod"

	// OptFoldExpr is the view-local fold expression option.
	OptFoldExpr = "foldexpr"

	// OptIndentExpr is the document-local indent expression option.
	OptIndentExpr = "indentexpr"
)

// OptionStore is string-keyed option access shared by documents and views.
// Options always have a value; unset options read as the empty string.
type OptionStore interface {
	// Option returns the current value of the named option.
	Option(name string) string

	// SetOption sets the named option to the given value.
	SetOption(name, value string)
}

// View is a document's on-screen presentation. View-local options are
// independent of other views of the same document.
type View interface {
	OptionStore
}

// Document is an open unit of text the host manages.
type Document interface {
	OptionStore

	// ID uniquely identifies the document for the host's lifetime.
	ID() string

	// Filetype is the host-assigned content-type label.
	Filetype() string

	// Text returns the full document content.
	Text() string

	// View returns the document's active view.
	View() View
}

// Host is the editor collaborator surface.
type Host interface {
	// Current returns the currently focused document, if any.
	Current() (Document, bool)

	// LanguageFor maps a filetype to its grammar language identifier.
	LanguageFor(filetype string) (string, bool)

	// FiletypesFor maps a language identifier to its associated filetypes.
	FiletypesFor(language string) []string
}
