// Package store provides persistence for pattern documents.
package store

import "nickandperla.net/patterncalc/internal/usage"

// Measurement is a persisted measurement row.
type Measurement struct {
	Name        string
	Base        float64
	Formula     string
	FullName    string
	Description string
	Index       int
}

// Increment is a persisted increment, preview calculation or separator row.
type Increment struct {
	Name         string
	Formula      string
	Description  string
	Index        int
	Preview      bool
	SpecialUnits bool
	Separator    bool
}

// Document is everything the engine persists for one pattern. Formulas is
// the formula corpus of pattern objects outside the variable tables.
type Document struct {
	Namespace    string
	Unit         string
	Measurements []Measurement
	Increments   []Increment
	Formulas     []usage.Field
}

// Store is the interface for document persistence.
type Store interface {
	// Load reads the whole document. An empty store yields an empty
	// document.
	Load() (*Document, error)
	// Save replaces the whole document atomically.
	Save(doc *Document) error
	// PutFormula inserts or replaces one formula field without touching
	// the rest of the document.
	PutFormula(f usage.Field) error
	// DeleteFormula removes one formula field.
	DeleteFormula(ownerID uint32, attr string) error
	// Close releases resources.
	Close() error
}

// MetadataStore is implemented by stores that expose their metadata
// table. Absent keys read as "".
type MetadataStore interface {
	GetMetadata(key string) (string, error)
}

// Metadata keys.
const (
	KeySchemaVersion = "schema_version"
	KeyNamespace     = "namespace"
	KeyUnit          = "unit"
)
