package enable

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/treegate/internal/config"
	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/installer"
	"github.com/dshills/treegate/internal/syntax"
)

// Action reports which way Toggle went.
type Action string

// Toggle outcomes.
const (
	ActionStarted Action = "started"
	ActionStopped Action = "stopped"
)

// Command names accepted by Dispatch.
const (
	CmdStart           = "start"
	CmdStop            = "stop"
	CmdToggle          = "toggle"
	CmdAttach          = "attach"
	CmdDetach          = "detach"
	CmdEnsureInstalled = "ensure_installed"
)

// Controller is the public lifecycle surface: start, stop, toggle, attach,
// detach, setup, and eager installation for one embedding host.
type Controller struct {
	mu sync.RWMutex

	host    host.Host
	engine  *Engine
	applier *Applier

	// suppressed disables automatic attach process-wide once Detach runs.
	suppressed bool

	handlers []Handler
}

// New creates a controller over the given collaborators.
func New(h host.Host, syn syntax.Engine, gw installer.Gateway) *Controller {
	c := &Controller{host: h}
	c.applier = NewApplier(syn)
	c.engine = NewEngine(h, syn, gw, c.applier, c.emit)
	return c
}

// Setup replaces the global configuration. Availability state and the
// builtin index survive a re-setup.
func (c *Controller) Setup(cfg config.Config) {
	c.engine.SetConfig(cfg)
}

// Subscribe adds an event handler and returns an unsubscribe function.
func (c *Controller) Subscribe(handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	c.mu.Lock()
	c.handlers = append(c.handlers, handler)
	index := len(c.handlers) - 1
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Nil out instead of removing to avoid index shifting.
		if index < len(c.handlers) {
			c.handlers[index] = nil
		}
	}
}

// Attach runs the enablement transition for the document. doc defaults to
// the current document and filetype to the document's own; with no current
// document, or after Detach, attach is a no-op.
func (c *Controller) Attach(doc host.Document, filetype string) {
	c.mu.RLock()
	suppressed := c.suppressed
	c.mu.RUnlock()
	if suppressed {
		return
	}

	if doc == nil {
		current, ok := c.host.Current()
		if !ok {
			return
		}
		doc = current
	}
	if filetype == "" {
		filetype = doc.Filetype()
	}
	c.engine.Attach(doc, filetype)
}

// Detach suppresses all future automatic attaches and stops the current
// document. A pending install still resolves and updates the registry.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.suppressed = true
	c.mu.Unlock()

	_ = c.Stop(nil)
}

// Start activates features for the document, bypassing the availability
// machine. doc defaults to the current document; language defaults to the
// filetype's language, or the filetype itself when the host maps none; a
// nil config resolves through the global configuration.
func (c *Controller) Start(doc host.Document, language string, fc *config.FeatureConfig) error {
	if doc == nil {
		current, ok := c.host.Current()
		if !ok {
			return ErrNoDocument
		}
		doc = current
	}
	if language == "" {
		if lang, ok := c.host.LanguageFor(doc.Filetype()); ok {
			language = lang
		} else {
			language = doc.Filetype()
		}
	}
	if fc == nil {
		resolved := c.engine.Resolve(language)
		fc = &resolved
	}

	c.applier.Start(doc, language, *fc)
	c.emit(Event{Type: EventActivated, Document: doc.ID(), Language: language, Filetype: doc.Filetype()})
	return nil
}

// Stop reverts the document's features and restores its options. doc
// defaults to the current document. Stopping an inactive document is a
// no-op.
func (c *Controller) Stop(doc host.Document) error {
	if doc == nil {
		current, ok := c.host.Current()
		if !ok {
			return ErrNoDocument
		}
		doc = current
	}

	if c.applier.Stop(doc) {
		c.emit(Event{Type: EventDeactivated, Document: doc.ID(), Filetype: doc.Filetype()})
	}
	return nil
}

// Toggle stops the current document if active, starts it otherwise, and
// reports which action occurred.
func (c *Controller) Toggle() (Action, error) {
	doc, ok := c.host.Current()
	if !ok {
		return "", ErrNoDocument
	}

	if c.applier.Active(doc) {
		return ActionStopped, c.Stop(doc)
	}
	return ActionStarted, c.Start(doc, "", nil)
}

// EnsureInstalled eagerly installs every configured language.
func (c *Controller) EnsureInstalled() {
	c.engine.EnsureInstalled(context.Background())
}

// Active reports whether the document (default: current) is activated.
func (c *Controller) Active(doc host.Document) bool {
	if doc == nil {
		current, ok := c.host.Current()
		if !ok {
			return false
		}
		doc = current
	}
	return c.applier.Active(doc)
}

// Dispatch routes a command name to its operation. Unknown input is
// reported as a warning event and mutates nothing.
func (c *Controller) Dispatch(name string) error {
	switch name {
	case CmdStart:
		return c.Start(nil, "", nil)
	case CmdStop:
		return c.Stop(nil)
	case CmdToggle:
		_, err := c.Toggle()
		return err
	case CmdAttach:
		c.Attach(nil, "")
		return nil
	case CmdDetach:
		c.Detach()
		return nil
	case CmdEnsureInstalled:
		c.EnsureInstalled()
		return nil
	default:
		c.emit(Event{Type: EventUnknownCommand, Err: fmt.Errorf("%w: %q", ErrUnknownCommand, name)})
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// emit calls every handler outside the controller lock, recovering panics.
func (c *Controller) emit(event Event) {
	c.mu.RLock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() { recover() }()
			handler(event)
		}()
	}
}
