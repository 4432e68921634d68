// Package sitter adapts the tree-sitter runtime to the syntax.Engine
// boundary. Grammar bindings and highlight/fold/indent queries for a small
// set of languages are bundled with the binary; the query files are the
// assets the builtin index scans.
package sitter

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/syntax"
)

//go:embed queries/*/*.scm
var queries embed.FS

// bindings maps language identifiers to their compiled-in grammars.
// JSON is served by the javascript grammar; it has no binding of its own.
var bindings = map[string]*sitter.Language{
	"go":         golang.GetLanguage(),
	"javascript": javascript.GetLanguage(),
	"python":     python.GetLanguage(),
	"json":       javascript.GetLanguage(),
}

// Engine is a tree-sitter backed syntax.Engine.
type Engine struct {
	mu sync.RWMutex

	// registered holds grammars activated via Register.
	registered map[string]*sitter.Language

	// sessions holds live highlight sessions keyed by document ID.
	sessions map[string]*session
}

// session is one document's highlight state.
type session struct {
	parser *sitter.Parser
	tree   *sitter.Tree
	query  *sitter.Query
}

// New creates an engine with no grammars registered yet.
func New() *Engine {
	return &Engine{
		registered: make(map[string]*sitter.Language),
		sessions:   make(map[string]*session),
	}
}

// HasQuery reports whether a bundled query file exists for the language.
func (e *Engine) HasQuery(language string, kind syntax.QueryKind) bool {
	_, err := queries.ReadFile(queryPath(language, kind))
	return err == nil
}

// Registered reports whether the language's grammar has been activated.
func (e *Engine) Registered(language string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.registered[language]
	return ok
}

// Register activates the bundled grammar for the language. Registering an
// already registered language is a no-op.
func (e *Engine) Register(language string) error {
	lang, ok := bindings[language]
	if !ok {
		return fmt.Errorf("%w: %s", syntax.ErrUnknownGrammar, language)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered[language] = lang
	return nil
}

// StartHighlight parses the document and compiles its highlight query.
// Starting an already highlighted document replaces its session.
func (e *Engine) StartHighlight(doc host.Document, language string) error {
	e.mu.Lock()
	lang, ok := e.registered[language]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", syntax.ErrUnknownGrammar, language)
	}

	src, err := queries.ReadFile(queryPath(language, syntax.QueryHighlights))
	if err != nil {
		return fmt.Errorf("no highlight query for %s: %w", language, err)
	}
	query, err := sitter.NewQuery(src, lang)
	if err != nil {
		return fmt.Errorf("compiling highlight query for %s: %w", language, err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(doc.Text()))
	if err != nil {
		query.Close()
		parser.Close()
		return fmt.Errorf("parsing %s: %w", doc.ID(), err)
	}

	e.mu.Lock()
	if old, exists := e.sessions[doc.ID()]; exists {
		old.close()
	}
	e.sessions[doc.ID()] = &session{parser: parser, tree: tree, query: query}
	e.mu.Unlock()
	return nil
}

// StopHighlight releases the document's highlight session, if any.
func (e *Engine) StopHighlight(doc host.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, exists := e.sessions[doc.ID()]; exists {
		s.close()
		delete(e.sessions, doc.ID())
	}
}

// Highlighting reports whether a highlight session exists for the document.
func (e *Engine) Highlighting(doc host.Document) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.sessions[doc.ID()]
	return ok
}

// BundledLanguages lists languages that ship both a grammar binding and a
// highlight query, sorted for deterministic iteration.
func (e *Engine) BundledLanguages() []string {
	langs := make([]string, 0, len(bindings))
	for name := range bindings {
		if e.HasQuery(name, syntax.QueryHighlights) {
			langs = append(langs, name)
		}
	}
	sort.Strings(langs)
	return langs
}

// close releases a session's tree-sitter resources.
func (s *session) close() {
	s.query.Close()
	s.tree.Close()
	s.parser.Close()
}

// queryPath is the embedded location of a query file.
func queryPath(language string, kind syntax.QueryKind) string {
	return "queries/" + language + "/" + string(kind) + ".scm"
}
