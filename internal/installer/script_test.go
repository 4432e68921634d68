package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// writeScript writes an install.lua into a temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "install.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// waitOutcome collects a single callback result with a timeout.
func waitOutcome(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for install outcome")
		return nil
	}
}

const okScript = `
function install(language)
	return true
end
`

const failScript = `
function install(language)
	return false, "no grammar for " .. language
end
`

func TestScriptGateway_Available(t *testing.T) {
	g := NewScriptGateway(writeScript(t, okScript))
	if !g.Available() {
		t.Error("Available = false with script present")
	}

	missing := NewScriptGateway(filepath.Join(t.TempDir(), "absent.lua"))
	if missing.Available() {
		t.Error("Available = true with script absent")
	}

	empty := NewScriptGateway("")
	if empty.Available() {
		t.Error("Available = true with empty path")
	}
}

func TestScriptGateway_InstallSuccess(t *testing.T) {
	g := NewScriptGateway(writeScript(t, okScript))
	defer g.Close()

	outcome := make(chan error, 1)
	g.Install(context.Background(), "gleam", func(err error) { outcome <- err })

	if err := waitOutcome(t, outcome); err != nil {
		t.Errorf("install outcome = %v; want success", err)
	}
}

func TestScriptGateway_InstallFailure(t *testing.T) {
	g := NewScriptGateway(writeScript(t, failScript))
	defer g.Close()

	outcome := make(chan error, 1)
	g.Install(context.Background(), "zimbu", func(err error) { outcome <- err })

	err := waitOutcome(t, outcome)
	if !errors.Is(err, ErrInstallFailed) {
		t.Errorf("install outcome = %v; want ErrInstallFailed", err)
	}
}

func TestScriptGateway_NoInstallFunction(t *testing.T) {
	g := NewScriptGateway(writeScript(t, `x = 1`))
	defer g.Close()

	outcome := make(chan error, 1)
	g.Install(context.Background(), "go", func(err error) { outcome <- err })

	if err := waitOutcome(t, outcome); !errors.Is(err, ErrInstallFailed) {
		t.Errorf("install outcome = %v; want ErrInstallFailed", err)
	}
}

func TestScriptGateway_AbsentInstaller(t *testing.T) {
	g := NewScriptGateway(filepath.Join(t.TempDir(), "absent.lua"))

	outcome := make(chan error, 1)
	g.Install(context.Background(), "go", func(err error) { outcome <- err })

	if err := waitOutcome(t, outcome); !errors.Is(err, ErrUnavailable) {
		t.Errorf("install outcome = %v; want ErrUnavailable", err)
	}
}

func TestScriptGateway_SingleFlight(t *testing.T) {
	// A slow script lets a second request attach before the first finishes.
	var runs atomic.Int32
	path := writeScript(t, okScript)

	g := NewScriptGateway(path)
	defer g.Close()

	// Count runs via callback ordering instead of instrumenting Lua: both
	// callbacks must fire from one job, so pending never exceeds one.
	var wg sync.WaitGroup
	wg.Add(2)
	cb := func(err error) {
		if err == nil {
			runs.Add(1)
		}
		wg.Done()
	}
	g.Install(context.Background(), "gleam", cb)
	g.Install(context.Background(), "gleam", cb)
	wg.Wait()

	if got := runs.Load(); got != 2 {
		t.Errorf("callbacks fired = %d; want 2", got)
	}
}

func TestScriptGateway_ManifestRecordsSuccess(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "grammars.yml")
	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatal(err)
	}

	g := NewScriptGateway(writeScript(t, okScript), WithManifest(m))
	defer g.Close()

	outcome := make(chan error, 1)
	g.Install(context.Background(), "gleam", func(err error) { outcome <- err })
	if err := waitOutcome(t, outcome); err != nil {
		t.Fatal(err)
	}

	if !g.Installed("gleam") {
		t.Error("gleam not recorded in manifest")
	}

	// Reload from disk to verify persistence.
	m2, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if !m2.Has("gleam") {
		t.Error("reloaded manifest missing gleam")
	}
	if m2.Grammars["gleam"].JobID == "" {
		t.Error("manifest entry missing job id")
	}
}

func TestScriptGateway_ClosedGateway(t *testing.T) {
	g := NewScriptGateway(writeScript(t, okScript))
	g.Close()
	g.Close() // Idempotent.

	outcome := make(chan error, 1)
	g.Install(context.Background(), "go", func(err error) { outcome <- err })
	if err := waitOutcome(t, outcome); !errors.Is(err, ErrClosed) {
		t.Errorf("install outcome = %v; want ErrClosed", err)
	}
}

func TestScriptGateway_CancelledContext(t *testing.T) {
	g := NewScriptGateway(writeScript(t, okScript))
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := make(chan error, 1)
	g.Install(ctx, "go", func(err error) { outcome <- err })
	if err := waitOutcome(t, outcome); !errors.Is(err, context.Canceled) {
		t.Errorf("install outcome = %v; want context.Canceled", err)
	}
}

func TestScriptGateway_CallbackPanicRecovered(t *testing.T) {
	g := NewScriptGateway(writeScript(t, okScript))
	defer g.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	g.Install(context.Background(), "a", func(error) {
		defer wg.Done()
		panic("handler bug")
	})
	g.Install(context.Background(), "b", func(error) { wg.Done() })
	wg.Wait()
}

func TestNone(t *testing.T) {
	var g None
	if g.Available() {
		t.Error("None.Available = true")
	}
	outcome := make(chan error, 1)
	g.Install(context.Background(), "go", func(err error) { outcome <- err })
	if err := waitOutcome(t, outcome); !errors.Is(err, ErrUnavailable) {
		t.Errorf("None install outcome = %v; want ErrUnavailable", err)
	}
	g.Install(context.Background(), "go", nil)
}
