package enable

import "github.com/dshills/treegate/internal/syntax"

// BuiltinSet is the set of languages whose highlight queries ship with the
// syntax engine itself. Computed once; read-only afterwards. It is the
// graceful fallback when no installer will run: bundled languages still
// work with zero external dependency.
type BuiltinSet struct {
	languages map[string]struct{}
}

// NewBuiltinSet scans the engine's bundled resources.
func NewBuiltinSet(engine syntax.Engine) *BuiltinSet {
	set := make(map[string]struct{})
	for _, lang := range engine.BundledLanguages() {
		set[lang] = struct{}{}
	}
	return &BuiltinSet{languages: set}
}

// Contains reports whether the language's queries are bundled.
func (b *BuiltinSet) Contains(language string) bool {
	_, ok := b.languages[language]
	return ok
}
