package installer

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// installFn is the function the install script must export.
const installFn = "install"

// job is one pending installation. Callbacks accumulate when several
// callers request the same language before it completes.
type job struct {
	id        string
	language  string
	callbacks []func(error)
}

// ScriptGateway runs grammar installations through a Lua install script.
// The script exports install(language) and returns either true, or false
// plus a message. Script presence is the service-detection check: no
// script, no installer.
//
// Lua states are not goroutine-safe, so all script execution is serialized
// on a single worker goroutine; Install only queues.
type ScriptGateway struct {
	mu sync.Mutex

	scriptPath string
	manifest   *Manifest

	detectOnce sync.Once
	present    bool

	pending map[string]*job
	jobsWG  sync.WaitGroup
	queue   chan *job

	workerOnce sync.Once
	closed     bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// ScriptOption configures a ScriptGateway.
type ScriptOption func(*ScriptGateway)

// WithManifest records successful installs in a manifest at the given path.
func WithManifest(m *Manifest) ScriptOption {
	return func(g *ScriptGateway) {
		g.manifest = m
	}
}

// NewScriptGateway creates a gateway for the install script at scriptPath.
func NewScriptGateway(scriptPath string, opts ...ScriptOption) *ScriptGateway {
	g := &ScriptGateway{
		scriptPath: scriptPath,
		pending:    make(map[string]*job),
		queue:      make(chan *job, 16),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available reports whether the install script exists. Checked once.
func (g *ScriptGateway) Available() bool {
	g.detectOnce.Do(func() {
		if g.scriptPath == "" {
			return
		}
		info, err := os.Stat(g.scriptPath)
		g.present = err == nil && !info.IsDir()
	})
	return g.present
}

// Installed reports whether the manifest already records the language.
func (g *ScriptGateway) Installed(language string) bool {
	return g.manifest != nil && g.manifest.Has(language)
}

// Install queues an installation for the language. A language already in
// flight gets its callback attached to the existing job rather than a
// second run. The callback is invoked exactly once, off the caller's
// goroutine.
func (g *ScriptGateway) Install(ctx context.Context, language string, done func(err error)) {
	if done == nil {
		done = func(error) {}
	}
	if !g.Available() {
		go done(ErrUnavailable)
		return
	}
	if err := ctx.Err(); err != nil {
		go done(err)
		return
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		go done(ErrClosed)
		return
	}
	if j, inflight := g.pending[language]; inflight {
		j.callbacks = append(j.callbacks, done)
		g.mu.Unlock()
		return
	}
	j := &job{
		id:        uuid.NewString(),
		language:  language,
		callbacks: []func(error){done},
	}
	g.pending[language] = j
	g.jobsWG.Add(1)
	g.mu.Unlock()

	g.workerOnce.Do(func() {
		g.wg.Add(1)
		go g.worker()
	})

	select {
	case g.queue <- j:
	case <-g.done:
		g.finish(j, ErrClosed)
	}
}

// Wait blocks until every queued installation has completed. Batch helper
// for eager installs; the per-document flow never waits.
func (g *ScriptGateway) Wait() {
	g.jobsWG.Wait()
}

// Close stops the worker. Pending jobs complete with ErrClosed.
func (g *ScriptGateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	close(g.done)
	g.wg.Wait()

	g.mu.Lock()
	jobs := make([]*job, 0, len(g.pending))
	for _, j := range g.pending {
		jobs = append(jobs, j)
	}
	g.mu.Unlock()
	for _, j := range jobs {
		g.finish(j, ErrClosed)
	}
}

// worker runs queued jobs one at a time.
func (g *ScriptGateway) worker() {
	defer g.wg.Done()

	for {
		select {
		case <-g.done:
			return
		case j := <-g.queue:
			g.finish(j, g.runScript(j.language))
		}
	}
}

// runScript executes install(language) in a fresh Lua state.
func (g *ScriptGateway) runScript(language string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: lua panic: %v", ErrInstallFailed, r)
		}
	}()

	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(g.scriptPath); err != nil {
		return fmt.Errorf("%w: loading %s: %v", ErrInstallFailed, g.scriptPath, err)
	}

	fn, ok := L.GetGlobal(installFn).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%w: script exports no %s function", ErrInstallFailed, installFn)
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, lua.LString(language)); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	msg := L.Get(-1)
	result := L.Get(-2)
	L.Pop(2)

	if lua.LVAsBool(result) {
		return nil
	}
	if msg.Type() == lua.LTString {
		return fmt.Errorf("%w: %s", ErrInstallFailed, lua.LVAsString(msg))
	}
	return ErrInstallFailed
}

// finish removes the job from pending and fires its callbacks, recording a
// success in the manifest first. Callback panics are swallowed.
func (g *ScriptGateway) finish(j *job, err error) {
	g.mu.Lock()
	if g.pending[j.language] != j {
		g.mu.Unlock()
		return
	}
	delete(g.pending, j.language)
	callbacks := j.callbacks
	g.mu.Unlock()

	if err == nil && g.manifest != nil {
		// A manifest write failure does not fail the install.
		_ = g.manifest.Record(j.language, j.id)
	}

	for _, cb := range callbacks {
		func() {
			defer func() { recover() }()
			cb(err)
		}()
	}
	g.jobsWG.Done()
}

// Ensure ScriptGateway satisfies Gateway.
var _ Gateway = (*ScriptGateway)(nil)

// None is a Gateway for hosts without an installer. Available is always
// false and Install reports ErrUnavailable.
type None struct{}

// Available always reports false.
func (None) Available() bool { return false }

// Install completes immediately with ErrUnavailable.
func (None) Install(_ context.Context, _ string, done func(err error)) {
	if done != nil {
		go done(ErrUnavailable)
	}
}

var _ Gateway = None{}
