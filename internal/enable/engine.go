package enable

import (
	"context"
	"sync"

	"github.com/dshills/treegate/internal/config"
	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/installer"
	"github.com/dshills/treegate/internal/syntax"
)

// manifestChecker is the optional gateway capability used by eager
// installation to skip grammars recorded in a previous process.
type manifestChecker interface {
	Installed(language string) bool
}

// Engine drives the per-filetype attach transition. It owns the
// process-wide state: the configuration, the availability registry, and
// the builtin index, all constructed lazily on first use.
//
// Transitions are atomic per filetype: the registry entry moves to
// Installing before the gateway is invoked, so a concurrent attach for the
// same filetype queues on the pending install instead of dispatching a
// second one.
type Engine struct {
	mu sync.Mutex

	host    host.Host
	syntax  syntax.Engine
	gateway installer.Gateway
	applier *Applier

	cfg      config.Config
	registry *Registry
	builtin  *BuiltinSet

	// waiters holds documents that attached while their filetype was
	// installing; they activate when the install resolves.
	waiters map[string][]host.Document

	initialized bool
	warnOnce    sync.Once

	emit Handler
}

// NewEngine creates an engine. emit must be non-nil.
func NewEngine(h host.Host, syn syntax.Engine, gw installer.Gateway, applier *Applier, emit Handler) *Engine {
	return &Engine{
		host:     h,
		syntax:   syn,
		gateway:  gw,
		applier:  applier,
		registry: NewRegistry(),
		waiters:  make(map[string][]host.Document),
		emit:     emit,
	}
}

// SetConfig replaces the global configuration. The registry and builtin
// index are untouched: a re-setup never resets install outcomes. A setup
// before first use also seeds nothing; initialization stays lazy.
func (e *Engine) SetConfig(cfg config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// Config returns the current global configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Resolve returns the effective feature configuration for a language.
func (e *Engine) Resolve(language string) config.FeatureConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Resolve(language)
}

// ensureInitLocked seeds the registry and builtin index once. Callers hold
// e.mu.
func (e *Engine) ensureInitLocked() {
	if e.initialized {
		return
	}
	e.initialized = true
	e.registry.Seed(e.host, e.cfg.Parsers)
	e.builtin = NewBuiltinSet(e.syntax)
}

// Attach runs the enablement transition for one document. It never returns
// an error: every failure mode is a registry state, and unmanaged
// filetypes are a silent no-op.
func (e *Engine) Attach(doc host.Document, filetype string) {
	e.mu.Lock()
	e.ensureInitLocked()

	state, managed := e.registry.Get(filetype)
	if !managed {
		e.mu.Unlock()
		return
	}
	lang, ok := e.host.LanguageFor(filetype)
	if !ok {
		e.mu.Unlock()
		return
	}

	if state == StateUnknown {
		// The grammar may already be usable without treegate's help. A
		// bundled language whose grammar is also natively registered does
		// not auto-satisfy while an installer exists: the explicit install
		// pass keeps installer-managed grammars authoritative.
		if e.syntax.Registered(lang) && !(e.builtin.Contains(lang) && e.gateway.Available()) {
			e.registry.Set(filetype, StateAvailable)
			state = StateAvailable
		}
	}

	switch state {
	case StateAvailable:
		fc := e.cfg.Resolve(lang)
		e.mu.Unlock()
		e.applier.Start(doc, lang, fc)
		e.emit(Event{Type: EventActivated, Document: doc.ID(), Language: lang, Filetype: filetype})
		return

	case StateUnavailable:
		e.mu.Unlock()
		return

	case StateInstalling:
		e.waiters[filetype] = append(e.waiters[filetype], doc)
		e.mu.Unlock()
		return
	}

	// Still unknown: try the installer, gated on auto_install.
	fc := e.cfg.Resolve(lang)
	if fc.AutoInstall && e.gateway.Available() {
		e.registry.Set(filetype, StateInstalling)
		e.waiters[filetype] = append(e.waiters[filetype], doc)
		e.mu.Unlock()

		e.emit(Event{Type: EventInstallStarted, Document: doc.ID(), Language: lang, Filetype: filetype})
		e.gateway.Install(context.Background(), lang, func(err error) {
			e.installDone(lang, err)
		})
		return
	}

	if fc.AutoInstall && !e.gateway.Available() {
		e.warnOnce.Do(func() {
			e.emit(Event{Type: EventInstallerMissing, Language: lang, Err: installer.ErrUnavailable})
		})
	}

	// No installer will run for this filetype; bundled queries still work
	// with whatever grammar the engine natively provides.
	if e.builtin.Contains(lang) {
		_ = e.syntax.Register(lang)
		e.registry.Set(filetype, StateAvailable)
		e.mu.Unlock()
		e.applier.Start(doc, lang, fc)
		e.emit(Event{Type: EventActivated, Document: doc.ID(), Language: lang, Filetype: filetype})
		return
	}

	e.mu.Unlock()
}

// installDone resolves an installation for every filetype of the language
// and activates any documents that queued while it ran.
func (e *Engine) installDone(lang string, err error) {
	e.mu.Lock()

	var pending []host.Document
	for _, ft := range e.filetypesLocked(lang) {
		state, managed := e.registry.Get(ft)
		if !managed || state == StateUnavailable {
			continue
		}
		if err != nil {
			// Failure never downgrades a filetype that became available
			// some other way.
			if state != StateAvailable {
				e.registry.Set(ft, StateUnavailable)
			}
		} else {
			e.registry.Set(ft, StateAvailable)
		}
		pending = append(pending, e.waiters[ft]...)
		delete(e.waiters, ft)
	}

	if err != nil {
		e.mu.Unlock()
		e.emit(Event{Type: EventInstallFailed, Language: lang, Err: err})
		return
	}

	_ = e.syntax.Register(lang)
	fc := e.cfg.Resolve(lang)
	e.mu.Unlock()

	e.emit(Event{Type: EventInstallSucceeded, Language: lang})
	for _, doc := range pending {
		e.applier.Start(doc, lang, fc)
		e.emit(Event{Type: EventActivated, Document: doc.ID(), Language: lang, Filetype: doc.Filetype()})
	}
}

// EnsureInstalled eagerly installs every configured language, independent
// of the lazy per-document flow. Languages already registered, or recorded
// in the installer's manifest, are skipped.
func (e *Engine) EnsureInstalled(ctx context.Context) {
	e.mu.Lock()
	e.ensureInitLocked()
	parsers := make([]string, len(e.cfg.Parsers))
	copy(parsers, e.cfg.Parsers)
	e.mu.Unlock()

	if !e.gateway.Available() {
		e.warnOnce.Do(func() {
			e.emit(Event{Type: EventInstallerMissing, Err: installer.ErrUnavailable})
		})
		return
	}

	checker, hasManifest := e.gateway.(manifestChecker)
	for _, lang := range parsers {
		if e.syntax.Registered(lang) {
			continue
		}
		if hasManifest && checker.Installed(lang) {
			_ = e.syntax.Register(lang)
			continue
		}

		e.mu.Lock()
		for _, ft := range e.filetypesLocked(lang) {
			if state, managed := e.registry.Get(ft); managed && state == StateUnknown {
				e.registry.Set(ft, StateInstalling)
			}
		}
		e.mu.Unlock()

		e.emit(Event{Type: EventInstallStarted, Language: lang})
		e.gateway.Install(ctx, lang, func(err error) {
			e.installDone(lang, err)
		})
	}
}

// filetypesLocked expands a language to its filetypes, falling back to the
// language identifier, mirroring Registry.Seed. Callers hold e.mu.
func (e *Engine) filetypesLocked(lang string) []string {
	fts := e.host.FiletypesFor(lang)
	if len(fts) == 0 {
		fts = []string{lang}
	}
	return fts
}
