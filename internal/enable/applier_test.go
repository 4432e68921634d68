package enable

import (
	"errors"
	"testing"

	"github.com/dshills/treegate/internal/config"
	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/syntax"
)

func allFeatures() config.FeatureConfig {
	return config.FeatureConfig{Highlights: true, Folds: true, Indents: true}
}

func TestApplier_StartAppliesConfiguredFeatures(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryHighlights, syntax.QueryFolds, syntax.QueryIndents)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "package main")

	a.Start(doc, "go", allFeatures())

	if !a.Active(doc) {
		t.Error("document not active after Start")
	}
	if !eng.isHighlighting("main.go") {
		t.Error("highlighting not started")
	}
	if got := doc.View().Option(host.OptFoldMethod); got != "expr" {
		t.Errorf("foldmethod = %q; want expr", got)
	}
	if got := doc.View().Option(host.OptFoldExpr); got != foldExprValue {
		t.Errorf("foldexpr = %q", got)
	}
	if got := doc.Option(host.OptIndentExpr); got != indentExprValue {
		t.Errorf("indentexpr = %q", got)
	}
}

func TestApplier_MissingFoldQuerySkipsOnlyFolds(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("json", syntax.QueryHighlights) // no folds, no indents
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("pkg.json", "json", "{}")
	doc.View().SetOption(host.OptFoldMethod, "manual")

	a.Start(doc, "json", allFeatures())

	if !eng.isHighlighting("pkg.json") {
		t.Error("highlighting skipped despite query present")
	}
	if got := doc.View().Option(host.OptFoldMethod); got != "manual" {
		t.Errorf("foldmethod = %q; fold options must stay untouched", got)
	}
	if got := doc.Option(host.OptIndentExpr); got != "" {
		t.Errorf("indentexpr = %q; indent options must stay untouched", got)
	}
}

func TestApplier_HighlightErrorDoesNotAbortSiblings(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryHighlights, syntax.QueryIndents)
	eng.startErr = errors.New("parser crashed")
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "package main")

	a.Start(doc, "go", allFeatures())

	if eng.isHighlighting("main.go") {
		t.Error("highlighting should have failed")
	}
	if got := doc.Option(host.OptIndentExpr); got != indentExprValue {
		t.Error("indent feature aborted by highlight failure")
	}
}

func TestApplier_StartStartStop_RestoresOriginalValues(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryFolds, syntax.QueryIndents)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "")
	doc.View().SetOption(host.OptFoldMethod, "indent")
	doc.View().SetOption(host.OptFoldExpr, "myfold()")
	doc.SetOption(host.OptIndentExpr, "myindent()")

	fc := allFeatures()
	a.Start(doc, "go", fc)
	a.Start(doc, "go", fc) // must not overwrite the saved prior values
	a.Stop(doc)

	if got := doc.View().Option(host.OptFoldMethod); got != "indent" {
		t.Errorf("foldmethod after stop = %q; want indent", got)
	}
	if got := doc.View().Option(host.OptFoldExpr); got != "myfold()" {
		t.Errorf("foldexpr after stop = %q; want myfold()", got)
	}
	if got := doc.Option(host.OptIndentExpr); got != "myindent()" {
		t.Errorf("indentexpr after stop = %q; want myindent()", got)
	}
}

func TestApplier_OptionAlreadyAtTargetNotSaved(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryFolds)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "")
	doc.View().SetOption(host.OptFoldMethod, "expr") // already the target

	a.Start(doc, "go", allFeatures())
	a.Stop(doc)

	// Nothing was saved for foldmethod, so stop leaves it alone.
	if got := doc.View().Option(host.OptFoldMethod); got != "expr" {
		t.Errorf("foldmethod = %q; want expr preserved", got)
	}
	// foldexpr differed and must be restored to empty.
	if got := doc.View().Option(host.OptFoldExpr); got != "" {
		t.Errorf("foldexpr = %q; want empty restored", got)
	}
}

func TestApplier_StopTwiceIsNoOp(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryIndents)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "")

	a.Start(doc, "go", allFeatures())
	if !a.Stop(doc) {
		t.Error("first Stop should report active")
	}
	if a.Stop(doc) {
		t.Error("second Stop should be a no-op")
	}

	// A fresh start must save priors again.
	doc.SetOption(host.OptIndentExpr, "changed()")
	a.Start(doc, "go", allFeatures())
	a.Stop(doc)
	if got := doc.Option(host.OptIndentExpr); got != "changed()" {
		t.Errorf("indentexpr = %q; want changed() restored", got)
	}
}

func TestApplier_StopNeverStarted(t *testing.T) {
	a := NewApplier(newFakeEngine())
	m := host.NewMemory()
	doc := m.Open("main.go", "go", "")

	if a.Stop(doc) {
		t.Error("Stop on never-started document reported active")
	}
	if a.Active(doc) {
		t.Error("Active on never-started document")
	}
}

func TestApplier_StopStopsHighlighting(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryHighlights)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "package main")

	a.Start(doc, "go", allFeatures())
	a.Stop(doc)

	if eng.isHighlighting("main.go") {
		t.Error("highlighting survived Stop")
	}
}

func TestApplier_DisabledFeaturesNotApplied(t *testing.T) {
	eng := newFakeEngine()
	eng.addQueries("go", syntax.QueryHighlights, syntax.QueryFolds, syntax.QueryIndents)
	a := NewApplier(eng)

	m := host.NewMemory()
	doc := m.Open("main.go", "go", "")

	a.Start(doc, "go", config.FeatureConfig{})

	if eng.isHighlighting("main.go") {
		t.Error("highlighting applied with all features off")
	}
	if doc.View().Option(host.OptFoldMethod) != "" || doc.Option(host.OptIndentExpr) != "" {
		t.Error("options touched with all features off")
	}
	if !a.Active(doc) {
		t.Error("document should still be marked active")
	}
}
