package host

import "sync"

// Memory is an in-memory Host implementation. It backs the demo binary and
// package tests; a real editor replaces it with its own adapter.
type Memory struct {
	mu sync.RWMutex

	docs      map[string]*MemoryDoc
	order     []string
	current   string
	langForFT map[string]string
	ftForLang map[string][]string
}

// NewMemory creates an empty in-memory host.
func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string]*MemoryDoc),
		langForFT: make(map[string]string),
		ftForLang: make(map[string][]string),
	}
}

// MapLanguage associates a language identifier with one or more filetypes.
// Later mappings do not overwrite an earlier filetype association.
func (m *Memory) MapLanguage(language string, filetypes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ft := range filetypes {
		if _, exists := m.langForFT[ft]; exists {
			continue
		}
		m.langForFT[ft] = language
		m.ftForLang[language] = append(m.ftForLang[language], ft)
	}
}

// Open creates a document with the given id, filetype, and content, and
// makes it the current document. Opening an existing id replaces its
// content but keeps its options.
func (m *Memory) Open(id, filetype, text string) *MemoryDoc {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[id]
	if !exists {
		doc = &MemoryDoc{
			id:       id,
			filetype: filetype,
			options:  make(map[string]string),
			view:     &MemoryView{options: make(map[string]string)},
		}
		m.docs[id] = doc
		m.order = append(m.order, id)
	}
	doc.mu.Lock()
	doc.filetype = filetype
	doc.text = text
	doc.mu.Unlock()

	m.current = id
	return doc
}

// SetCurrent makes the document with the given id current.
func (m *Memory) SetCurrent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; exists {
		m.current = id
	}
}

// Current returns the currently focused document.
func (m *Memory) Current() (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[m.current]
	return doc, exists
}

// Documents returns all open documents in open order.
func (m *Memory) Documents() []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.order))
	for _, id := range m.order {
		docs = append(docs, m.docs[id])
	}
	return docs
}

// LanguageFor maps a filetype to its language identifier.
func (m *Memory) LanguageFor(filetype string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lang, exists := m.langForFT[filetype]
	return lang, exists
}

// FiletypesFor maps a language identifier to its filetypes.
func (m *Memory) FiletypesFor(language string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fts := make([]string, len(m.ftForLang[language]))
	copy(fts, m.ftForLang[language])
	return fts
}

// MemoryDoc is the Memory host's document.
type MemoryDoc struct {
	mu       sync.RWMutex
	id       string
	filetype string
	text     string
	options  map[string]string
	view     *MemoryView
}

// ID returns the document identifier.
func (d *MemoryDoc) ID() string { return d.id }

// Filetype returns the document's filetype.
func (d *MemoryDoc) Filetype() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filetype
}

// Text returns the full document content.
func (d *MemoryDoc) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// View returns the document's view.
func (d *MemoryDoc) View() View { return d.view }

// Option returns a document-local option value.
func (d *MemoryDoc) Option(name string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options[name]
}

// SetOption sets a document-local option value.
func (d *MemoryDoc) SetOption(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.options[name] = value
}

// MemoryView is the Memory host's view.
type MemoryView struct {
	mu      sync.RWMutex
	options map[string]string
}

// Option returns a view-local option value.
func (v *MemoryView) Option(name string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.options[name]
}

// SetOption sets a view-local option value.
func (v *MemoryView) SetOption(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options[name] = value
}
