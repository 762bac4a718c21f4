package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"nickandperla.net/patterncalc/internal/usage"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked(KeySchemaVersion)
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "":
		if err := s.createTables(); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
		if err := s.setMetadataUnlocked(KeySchemaVersion, SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

func (s *SQLite) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS measurements (
			name TEXT PRIMARY KEY,
			base REAL NOT NULL,
			formula TEXT NOT NULL,
			full_name TEXT NOT NULL,
			description TEXT NOT NULL,
			idx INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS increments (
			name TEXT PRIMARY KEY,
			formula TEXT NOT NULL,
			description TEXT NOT NULL,
			idx INTEGER NOT NULL,
			preview INTEGER NOT NULL,
			special_units INTEGER NOT NULL,
			separator INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS formulas (
			owner_id INTEGER NOT NULL,
			attr TEXT NOT NULL,
			formula TEXT NOT NULL,
			PRIMARY KEY (owner_id, attr)
		);
	`)
	return err
}

// Load reads the whole document.
func (s *SQLite) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &Document{}
	var err error
	if doc.Namespace, err = s.getMetadataUnlocked(KeyNamespace); err != nil {
		return nil, err
	}
	if doc.Unit, err = s.getMetadataUnlocked(KeyUnit); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT name, base, formula, full_name, description, idx
		FROM measurements ORDER BY idx, name
	`)
	if err != nil {
		return nil, fmt.Errorf("loading measurements: %w", err)
	}
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.Name, &m.Base, &m.Formula, &m.FullName, &m.Description, &m.Index); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Measurements = append(doc.Measurements, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT name, formula, description, idx, preview, special_units, separator
		FROM increments ORDER BY preview, idx, name
	`)
	if err != nil {
		return nil, fmt.Errorf("loading increments: %w", err)
	}
	for rows.Next() {
		var inc Increment
		if err := rows.Scan(&inc.Name, &inc.Formula, &inc.Description, &inc.Index,
			&inc.Preview, &inc.SpecialUnits, &inc.Separator); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Increments = append(doc.Increments, inc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	doc.Formulas, err = s.formulasUnlocked()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Save replaces the whole document in one transaction.
func (s *SQLite) Save(doc *Document) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"measurements", "increments", "formulas"} {
		if _, err = tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	for _, m := range doc.Measurements {
		_, err = tx.Exec(`
			INSERT INTO measurements (name, base, formula, full_name, description, idx)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.Name, m.Base, m.Formula, m.FullName, m.Description, m.Index)
		if err != nil {
			return fmt.Errorf("saving measurement %s: %w", m.Name, err)
		}
	}
	for _, inc := range doc.Increments {
		_, err = tx.Exec(`
			INSERT INTO increments (name, formula, description, idx, preview, special_units, separator)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, inc.Name, inc.Formula, inc.Description, inc.Index, inc.Preview, inc.SpecialUnits, inc.Separator)
		if err != nil {
			return fmt.Errorf("saving increment %s: %w", inc.Name, err)
		}
	}
	for _, f := range doc.Formulas {
		_, err = tx.Exec(`INSERT INTO formulas (owner_id, attr, formula) VALUES (?, ?, ?)`,
			f.OwnerID, f.Attr, f.Formula)
		if err != nil {
			return fmt.Errorf("saving formula %d/%s: %w", f.OwnerID, f.Attr, err)
		}
	}
	for key, value := range map[string]string{KeyNamespace: doc.Namespace, KeyUnit: doc.Unit} {
		_, err = tx.Exec(`
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) formulasUnlocked() ([]usage.Field, error) {
	rows, err := s.db.Query("SELECT owner_id, attr, formula FROM formulas ORDER BY owner_id, attr")
	if err != nil {
		return nil, fmt.Errorf("loading formulas: %w", err)
	}
	defer rows.Close()
	var out []usage.Field
	for rows.Next() {
		var f usage.Field
		if err := rows.Scan(&f.OwnerID, &f.Attr, &f.Formula); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// PutFormula inserts or replaces one formula field.
func (s *SQLite) PutFormula(f usage.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO formulas (owner_id, attr, formula) VALUES (?, ?, ?)
		ON CONFLICT(owner_id, attr) DO UPDATE SET formula = excluded.formula
	`, f.OwnerID, f.Attr, f.Formula)
	return err
}

// DeleteFormula removes one formula field.
func (s *SQLite) DeleteFormula(ownerID uint32, attr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM formulas WHERE owner_id = ? AND attr = ?", ownerID, attr)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
