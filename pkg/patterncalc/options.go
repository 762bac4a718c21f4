// Package patterncalc provides the public API of the pattern formula
// engine.
package patterncalc

import (
	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/config"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/store"
	"nickandperla.net/patterncalc/internal/usage"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(e *Engine) {
		s, err := store.NewSQLite(path)
		if err != nil {
			e.initErr = err
			return
		}
		e.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(e *Engine) {
		e.store = store.NewMemory()
	}
}

// WithStore configures a custom store.
func WithStore(s Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the logger for evaluation warnings and table events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithPedantic makes warning() calls and degenerate geometry fail instead
// of being logged.
func WithPedantic(p bool) Option {
	return func(e *Engine) {
		e.pedantic = p
	}
}

// WithUnit sets the pattern unit of a new document. A loaded document keeps
// its own unit.
func WithUnit(u geom.Unit) Option {
	return func(e *Engine) {
		e.unit = u
	}
}

// WithSigils sets the name prefixes that evaluate to NaN while undefined.
func WithSigils(sigils ...string) Option {
	return func(e *Engine) {
		e.sigils = sigils
	}
}

// WithLocale sets the language tag used to display and read formulas.
// When osSeparator is false formulas are shown in canonical form.
func WithLocale(tag string, osSeparator bool) Option {
	return func(e *Engine) {
		e.localeTag = tag
		e.osSeparator = osSeparator
	}
}

// WithConfig applies every setting of cfg, including opening the SQLite
// store at cfg.Store.Path.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.pedantic = cfg.Eval.Pedantic
		e.sigils = cfg.Eval.SpecialSigils
		e.unit = cfg.Unit()
		e.localeTag = cfg.Locale.Tag
		e.osSeparator = cfg.Locale.OSSeparator
		WithSQLiteStore(cfg.Store.Path)(e)
	}
}

// Store interface for custom stores.
type Store = store.Store

// Field is one formula attribute of a pattern object.
type Field = usage.Field
