// Package main is a demonstration host for treegate. It opens the files
// given on the command line in an in-memory host, attaches each, and
// reports what the enablement machine decided.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/treegate/internal/config"
	"github.com/dshills/treegate/internal/enable"
	"github.com/dshills/treegate/internal/host"
	"github.com/dshills/treegate/internal/installer"
	"github.com/dshills/treegate/internal/syntax/sitter"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// filetypes maps file extensions to host filetypes.
var filetypes = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".json": "json",
	".py":   "python",
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath    = flag.String("config", config.DefaultPath(), "config file path")
		installerPath = flag.String("installer", "", "install.lua script path (empty: no installer)")
		manifestPath  = flag.String("manifest", "", "grammar manifest path (empty: none)")
		ensure        = flag.Bool("ensure", false, "eagerly install all configured languages")
		showVersion   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("treegate %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "treegate: %v\n", err)
		return 1
	}
	if len(cfg.Parsers) == 0 {
		// No config: manage every bundled language with everything on.
		cfg = demoConfig()
	}

	h := host.NewMemory()
	for _, ft := range filetypes {
		h.MapLanguage(ft, ft)
	}

	engine := sitter.New()

	var gwOpts []installer.ScriptOption
	if *manifestPath != "" {
		manifest, err := installer.LoadManifest(*manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "treegate: %v\n", err)
			return 1
		}
		gwOpts = append(gwOpts, installer.WithManifest(manifest))
	}
	gateway := installer.NewScriptGateway(*installerPath, gwOpts...)
	defer gateway.Close()

	ctrl := enable.New(h, engine, gateway)
	ctrl.Setup(cfg)
	ctrl.Subscribe(func(ev enable.Event) {
		if ev.Err != nil {
			fmt.Printf("  [%s] %s %s: %v\n", ev.Type, ev.Language, ev.Document, ev.Err)
			return
		}
		fmt.Printf("  [%s] %s %s\n", ev.Type, ev.Language, ev.Document)
	})

	if *ensure {
		ctrl.EnsureInstalled()
	}

	for _, path := range flag.Args() {
		if err := openAndAttach(ctrl, h, path); err != nil {
			fmt.Fprintf(os.Stderr, "treegate: %s: %v\n", path, err)
		}
	}

	// Let pending installs resolve before reporting.
	gateway.Wait()

	for _, doc := range h.Documents() {
		state := "inactive"
		if ctrl.Active(doc) {
			state = "active"
		}
		fmt.Printf("%-30s ft=%-12s %s\n", doc.ID(), doc.Filetype(), state)
	}
	return 0
}

// openAndAttach loads a file into the host and runs the attach transition.
func openAndAttach(ctrl *enable.Controller, h *host.Memory, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	ft, ok := filetypes[ext]
	if !ok {
		ft = strings.TrimPrefix(ext, ".")
	}

	doc := h.Open(path, ft, string(data))
	ctrl.Attach(doc, "")
	return nil
}

// demoConfig enables everything for the bundled languages.
func demoConfig() config.Config {
	return config.Config{
		Parsers:    []string{"go", "javascript", "json", "python"},
		Highlights: true,
		Folds:      true,
		Indents:    true,
	}
}
