package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestEntry records one installer-managed grammar.
type ManifestEntry struct {
	// JobID is the install job that provided the grammar.
	JobID string `yaml:"job_id"`

	// InstalledAt is when the install completed.
	InstalledAt time.Time `yaml:"installed_at"`
}

// Manifest is the lockfile of grammars the installer has provided. It lets
// eager installation skip work across processes; the in-process
// availability registry never consults it.
type Manifest struct {
	mu   sync.RWMutex
	path string

	// Grammars is keyed by language identifier.
	Grammars map[string]ManifestEntry `yaml:"grammars"`
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{
		path:     path,
		Grammars: make(map[string]ManifestEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Grammars == nil {
		m.Grammars = make(map[string]ManifestEntry)
	}
	return m, nil
}

// Has reports whether the language is recorded.
func (m *Manifest) Has(language string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Grammars[language]
	return ok
}

// Record adds the language and writes the manifest back to disk.
func (m *Manifest) Record(language, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Grammars[language] = ManifestEntry{
		JobID:       jobID,
		InstalledAt: time.Now().UTC(),
	}
	return m.save()
}

// save writes the manifest, creating its directory if needed.
func (m *Manifest) save() error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating manifest dir: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", m.path, err)
	}
	return nil
}
