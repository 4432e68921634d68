package enable

import (
	"context"
	"sync"

	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/installer"
	"github.com/dshills/treegate/internal/syntax"
)

// fakeEngine is an in-memory syntax.Engine for state machine tests.
type fakeEngine struct {
	mu           sync.Mutex
	queries      map[string]map[syntax.QueryKind]bool
	registered   map[string]bool
	bundled      []string
	highlighting map[string]bool
	startErr     error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		queries:      make(map[string]map[syntax.QueryKind]bool),
		registered:   make(map[string]bool),
		highlighting: make(map[string]bool),
	}
}

// addQueries grants the language the given query kinds.
func (f *fakeEngine) addQueries(language string, kinds ...syntax.QueryKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries[language] == nil {
		f.queries[language] = make(map[syntax.QueryKind]bool)
	}
	for _, k := range kinds {
		f.queries[language][k] = true
	}
}

func (f *fakeEngine) HasQuery(language string, kind syntax.QueryKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[language][kind]
}

func (f *fakeEngine) Registered(language string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[language]
}

func (f *fakeEngine) Register(language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[language] = true
	return nil
}

func (f *fakeEngine) StartHighlight(doc host.Document, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.highlighting[doc.ID()] = true
	return nil
}

func (f *fakeEngine) StopHighlight(doc host.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.highlighting, doc.ID())
}

func (f *fakeEngine) BundledLanguages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bundled...)
}

func (f *fakeEngine) isHighlighting(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highlighting[id]
}

// fakeGateway records install requests and completes them on demand.
type fakeGateway struct {
	mu        sync.Mutex
	available bool
	calls     []string
	pending   map[string][]func(error)
}

func newFakeGateway(available bool) *fakeGateway {
	return &fakeGateway{
		available: available,
		pending:   make(map[string][]func(error)),
	}
}

func (g *fakeGateway) Available() bool { return g.available }

func (g *fakeGateway) Install(_ context.Context, language string, done func(err error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, language)
	g.pending[language] = append(g.pending[language], done)
}

// complete resolves every pending install for the language.
func (g *fakeGateway) complete(language string, err error) {
	g.mu.Lock()
	callbacks := g.pending[language]
	delete(g.pending, language)
	g.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
}

func (g *fakeGateway) installCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

var _ installer.Gateway = (*fakeGateway)(nil)
var _ syntax.Engine = (*fakeEngine)(nil)
