package store

import (
	"sort"
	"sync"

	"nickandperla.net/patterncalc/internal/usage"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	doc      Document
	formulas map[fieldKey]usage.Field
	metadata map[string]string
}

type fieldKey struct {
	owner uint32
	attr  string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		formulas: make(map[fieldKey]usage.Field),
		metadata: make(map[string]string),
	}
}

// Load returns a copy of the stored document.
func (m *Memory) Load() (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc := &Document{
		Namespace:    m.metadata[KeyNamespace],
		Unit:         m.metadata[KeyUnit],
		Measurements: append([]Measurement(nil), m.doc.Measurements...),
		Increments:   append([]Increment(nil), m.doc.Increments...),
		Formulas:     m.sortedFormulas(),
	}
	return doc, nil
}

// Save replaces the stored document.
func (m *Memory) Save(doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = Document{
		Measurements: append([]Measurement(nil), doc.Measurements...),
		Increments:   append([]Increment(nil), doc.Increments...),
	}
	m.formulas = make(map[fieldKey]usage.Field, len(doc.Formulas))
	for _, f := range doc.Formulas {
		m.formulas[fieldKey{f.OwnerID, f.Attr}] = f
	}
	m.metadata[KeyNamespace] = doc.Namespace
	m.metadata[KeyUnit] = doc.Unit
	return nil
}

func (m *Memory) sortedFormulas() []usage.Field {
	out := make([]usage.Field, 0, len(m.formulas))
	for _, f := range m.formulas {
		out = append(out, f)
	}
	sortFields(out)
	return out
}

// PutFormula stores a formula field.
func (m *Memory) PutFormula(f usage.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formulas[fieldKey{f.OwnerID, f.Attr}] = f
	return nil
}

// DeleteFormula removes a formula field.
func (m *Memory) DeleteFormula(ownerID uint32, attr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.formulas, fieldKey{ownerID, attr})
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

func sortFields(fs []usage.Field) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].OwnerID != fs[j].OwnerID {
			return fs[i].OwnerID < fs[j].OwnerID
		}
		return fs[i].Attr < fs[j].Attr
	})
}
