package enable

import (
	"sync"

	"github.com/dshills/treegate/internal/config"
	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/syntax"
)

// Option values treegate writes when a feature activates.
const (
	foldMethodExpr  = "expr"
	foldExprValue   = "treegate#foldexpr()"
	indentExprValue = "treegate#indentexpr()"
)

// override remembers one option this system changed so Stop can restore it
// exactly. prior is the first value observed since the last Stop; it is
// never overwritten by a later Start.
type override struct {
	store host.OptionStore
	name  string
	prior string
}

// docState is one document's activation record.
type docState struct {
	active       bool
	highlighting bool
	overrides    []override
}

// Applier turns the three concrete features on and off for one document.
// Each feature is probed independently: a missing fold query skips folding
// and nothing else.
type Applier struct {
	mu     sync.Mutex
	engine syntax.Engine
	states map[string]*docState
}

// NewApplier creates an applier over the given engine.
func NewApplier(engine syntax.Engine) *Applier {
	return &Applier{
		engine: engine,
		states: make(map[string]*docState),
	}
}

// Start marks the document active and applies each configured feature the
// engine has a query for. Safe to call again without an intervening Stop;
// saved prior option values are not overwritten.
func (a *Applier) Start(doc host.Document, language string, fc config.FeatureConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, exists := a.states[doc.ID()]
	if !exists {
		st = &docState{}
		a.states[doc.ID()] = st
	}
	st.active = true

	if fc.Highlights && a.engine.HasQuery(language, syntax.QueryHighlights) {
		// A start failure means highlighting is unavailable, not that the
		// other features are.
		if err := a.engine.StartHighlight(doc, language); err == nil {
			st.highlighting = true
		}
	}

	if fc.Folds && a.engine.HasQuery(language, syntax.QueryFolds) {
		view := doc.View()
		st.apply(view, host.OptFoldMethod, foldMethodExpr)
		st.apply(view, host.OptFoldExpr, foldExprValue)
	}

	if fc.Indents && a.engine.HasQuery(language, syntax.QueryIndents) {
		st.apply(doc, host.OptIndentExpr, indentExprValue)
	}
}

// Stop reverts everything Start did and clears the document's record.
// Calling Stop on a never-started document is a no-op. Reports whether the
// document was active.
func (a *Applier) Stop(doc host.Document) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, exists := a.states[doc.ID()]
	if !exists {
		return false
	}
	delete(a.states, doc.ID())

	if st.highlighting {
		a.engine.StopHighlight(doc)
	}
	for i := len(st.overrides) - 1; i >= 0; i-- {
		ov := st.overrides[i]
		ov.store.SetOption(ov.name, ov.prior)
	}
	return st.active
}

// Active reports whether the document is currently activated.
func (a *Applier) Active(doc host.Document) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, exists := a.states[doc.ID()]
	return exists && st.active
}

// apply overrides one option. The first prior value wins; an option
// already at the target value is left alone and not recorded, so Stop
// never writes a value the user already had.
func (st *docState) apply(store host.OptionStore, name, value string) {
	for _, ov := range st.overrides {
		if ov.name == name && ov.store == store {
			return
		}
	}

	current := store.Option(name)
	if current == value {
		return
	}
	st.overrides = append(st.overrides, override{store: store, name: name, prior: current})
	store.SetOption(name, value)
}
