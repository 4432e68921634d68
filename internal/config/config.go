// Package config holds treegate's feature configuration and its
// per-language override resolution.
//
// Resolution is deliberately all-or-nothing: a parser_settings entry for a
// language replaces the global feature flags entirely, even when the entry
// is empty. An empty override is the documented way to fully silence a
// language without removing it from the parsers list.
package config

// FeatureConfig is the resolved per-language feature record. It is a
// snapshot; mutating it does not affect the configuration it came from.
type FeatureConfig struct {
	// AutoInstall allows treegate to drive grammar installation on demand.
	AutoInstall bool `toml:"auto_install"`

	// Highlights enables tree-based highlighting.
	Highlights bool `toml:"highlights"`

	// Folds enables expression-based folding.
	Folds bool `toml:"folds"`

	// Indents enables expression-based indentation.
	Indents bool `toml:"indents"`
}

// Config is the global treegate configuration. The zero value disables
// everything and manages no languages.
type Config struct {
	// Parsers lists the languages treegate manages. Filetypes of unlisted
	// languages are never touched.
	Parsers []string `toml:"parsers"`

	// AutoInstall, Highlights, Folds, and Indents are the global feature
	// flags, used for any language without a parser_settings entry.
	AutoInstall bool `toml:"auto_install"`
	Highlights  bool `toml:"highlights"`
	Folds       bool `toml:"folds"`
	Indents     bool `toml:"indents"`

	// ParserSettings overrides the feature flags per language. An entry
	// replaces the global flags entirely; fields are not merged.
	ParserSettings map[string]FeatureConfig `toml:"parser_settings"`
}

// Features returns the global feature flags.
func (c Config) Features() FeatureConfig {
	return FeatureConfig{
		AutoInstall: c.AutoInstall,
		Highlights:  c.Highlights,
		Folds:       c.Folds,
		Indents:     c.Indents,
	}
}

// Resolve returns the effective feature configuration for a language.
// A parser_settings entry wins verbatim; otherwise the global flags apply.
// There are no error conditions; unknown languages get the global flags.
func (c Config) Resolve(language string) FeatureConfig {
	if fc, ok := c.ParserSettings[language]; ok {
		return fc
	}
	return c.Features()
}

// Manages reports whether the language appears in the parsers list.
func (c Config) Manages(language string) bool {
	for _, p := range c.Parsers {
		if p == language {
			return true
		}
	}
	return false
}
