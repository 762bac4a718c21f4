package patterncalc

import (
	"fmt"

	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/container"
	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/locale"
	"nickandperla.net/patterncalc/internal/store"
	"nickandperla.net/patterncalc/internal/usage"
	"nickandperla.net/patterncalc/internal/variable"
)

// Engine ties the variable tables of one pattern document to the
// evaluator, the formula corpus of its objects and persistence.
type Engine struct {
	log         zerolog.Logger
	store       Store
	pedantic    bool
	unit        geom.Unit
	sigils      []string
	localeTag   string
	osSeparator bool
	initErr     error

	vars       *container.Container
	evaluator  *eval.Evaluator
	translator *locale.Translator
	corpus     []usage.Field
}

// New creates an engine with the given options. When a store is configured
// the document it holds is loaded and evaluated.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		log:  zerolog.Nop(),
		unit: geom.Cm,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.initErr != nil {
		return nil, fmt.Errorf("opening store: %w", e.initErr)
	}

	e.translator = locale.CanonicalTranslator()
	if e.localeTag != "" {
		tr, err := locale.New(e.localeTag, e.osSeparator)
		if err != nil {
			e.closeStore()
			return nil, err
		}
		e.translator = tr
	}

	if err := e.load(); err != nil {
		e.closeStore()
		return nil, err
	}

	evalOpts := []eval.Option{
		eval.WithPedantic(e.pedantic),
		eval.WithLogger(e.log),
		eval.WithLookup(e.vars),
	}
	if e.sigils != nil {
		evalOpts = append(evalOpts, eval.WithSigils(e.sigils...))
	}
	e.evaluator = eval.New(evalOpts...)

	e.Recalculate()
	return e, nil
}

// Container returns the variable tables.
func (e *Engine) Container() *container.Container { return e.vars }

// Translator returns the UI-boundary formula translator.
func (e *Engine) Translator() *locale.Translator { return e.translator }

// Evaluator returns the evaluator bound to the variable tables.
func (e *Engine) Evaluator() *eval.Evaluator { return e.evaluator }

// Evaluate evaluates a canonical formula against every variable table.
func (e *Engine) Evaluate(formula string) (float64, error) {
	return e.evaluator.Eval(formula)
}

// EvaluateUser evaluates formula text as typed by the user. It returns the
// canonical form alongside the value.
func (e *Engine) EvaluateUser(text string) (float64, string, error) {
	formula := e.translator.FromUser(text)
	v, err := e.evaluator.Eval(formula)
	return v, formula, err
}

// Check evaluates formula and applies the requested result checks.
func (e *Engine) Check(formula string, opts eval.CheckOptions) (float64, error) {
	return e.evaluator.Check(formula, e.vars, opts)
}

// IsUnique reports whether name is free in every table.
func (e *Engine) IsUnique(name string) bool {
	return e.vars.IsUnique(name)
}

// IsUsedBy reports whether any formula of the document reads name.
func (e *Engine) IsUsedBy(name string) bool {
	return e.vars.IsUsedBy(name, e.corpus)
}

// Users returns the object formulas and table formulas that read name.
func (e *Engine) Users(name string) []Field {
	users := usage.Users(name, e.corpus)
	for _, f := range usage.Users(name, e.vars.Formulas()) {
		if f.Attr != name {
			users = append(users, f)
		}
	}
	return users
}

// AddIncrement appends an increment or, with preview set, a preview
// calculation. An empty name gets a generated one. It returns the stored
// name.
func (e *Engine) AddIncrement(name, formula, description string, preview bool) (string, error) {
	if name == "" {
		name = e.vars.CustomName(container.DefaultIncrementPrefix)
	}
	v, err := e.vars.AddIncrement(name, variable.IncrementData{
		Formula:            formula,
		Description:        description,
		PreviewCalculation: preview,
	})
	if err != nil {
		return "", err
	}
	e.Recalculate()
	return v.Name(), nil
}

// AddSeparator appends a separator row and returns its name.
func (e *Engine) AddSeparator(name, description string, preview bool) (string, error) {
	v, err := e.vars.AddSeparator(name, description, preview)
	if err != nil {
		return "", err
	}
	return v.Name(), nil
}

// AddMeasurement adds a measurement with a base value and an optional
// formula.
func (e *Engine) AddMeasurement(name string, base float64, formula string) error {
	if _, err := e.vars.AddMeasurement(name, variable.MeasurementData{Base: base, Formula: formula}); err != nil {
		return err
	}
	e.Recalculate()
	return nil
}

// SetFormula replaces the formula of an increment or measurement and
// recomputes what depends on it.
func (e *Engine) SetFormula(name, formula string) error {
	if err := e.vars.SetFormula(name, formula); err != nil {
		return err
	}
	e.Recalculate()
	return nil
}

// SetMeasurementBase changes the base value of a measurement.
func (e *Engine) SetMeasurementBase(name string, base float64) error {
	if err := e.vars.SetMeasurementBase(name, base); err != nil {
		return err
	}
	e.Recalculate()
	return nil
}

// Corpus returns a copy of the object formula corpus.
func (e *Engine) Corpus() []Field {
	return append([]Field(nil), e.corpus...)
}

// SetField inserts or replaces an object formula. With a store the field
// is written through at once; the variable tables are not saved.
func (e *Engine) SetField(f Field) error {
	if e.store != nil {
		if err := e.store.PutFormula(f); err != nil {
			return fmt.Errorf("storing formula %d/%s: %w", f.OwnerID, f.Attr, err)
		}
	}
	for i := range e.corpus {
		if e.corpus[i].OwnerID == f.OwnerID && e.corpus[i].Attr == f.Attr {
			e.corpus[i] = f
			return nil
		}
	}
	e.corpus = append(e.corpus, f)
	return nil
}

// RemoveField drops an object formula, from the store as well when one is
// configured. Removing an absent field is not an error.
func (e *Engine) RemoveField(ownerID uint32, attr string) error {
	if e.store != nil {
		if err := e.store.DeleteFormula(ownerID, attr); err != nil {
			return fmt.Errorf("deleting formula %d/%s: %w", ownerID, attr, err)
		}
	}
	for i := range e.corpus {
		if e.corpus[i].OwnerID == ownerID && e.corpus[i].Attr == attr {
			e.corpus = append(e.corpus[:i], e.corpus[i+1:]...)
			break
		}
	}
	return nil
}

// Metadata reads a key of the store's metadata table. Stores without one,
// and engines without a store, report "".
func (e *Engine) Metadata(key string) (string, error) {
	ms, ok := e.store.(store.MetadataStore)
	if !ok {
		return "", nil
	}
	return ms.GetMetadata(key)
}

// Rename renames a table variable and rewrites every formula that reads
// it. Only a literal rename triggers a recomputation.
func (e *Engine) Rename(oldName, newName string) (container.RenameResult, error) {
	res, corpus, err := e.vars.Rename(oldName, newName, e.corpus)
	if err != nil {
		return res, err
	}
	e.corpus = corpus
	if res.Literal {
		e.Recalculate()
	}
	return res, nil
}

// Remove deletes a table variable. It fails with container.ErrVariableInUse
// while any formula reads it.
func (e *Engine) Remove(name string) error {
	return e.vars.Remove(name, e.corpus)
}

// RenameLabel rewrites derived variable references after a point label
// changed. It returns the number of formulas changed.
func (e *Engine) RenameLabel(oldLabel, newLabel string) int {
	corpus, n := e.vars.RenameLabel(oldLabel, newLabel, e.corpus)
	e.corpus = corpus
	if n > 0 {
		e.Recalculate()
	}
	return n
}

// Recalculate evaluates the formulas changed since the last call and what
// depends on them. Failures are logged and returned.
func (e *Engine) Recalculate() []container.Failure {
	failures := e.vars.Recalculate(e.evaluator)
	for _, f := range failures {
		e.log.Warn().Str("variable", f.Name).Err(f.Err).Msg("formula not evaluable")
	}
	return failures
}

// RecalculateAll evaluates every table formula.
func (e *Engine) RecalculateAll() []container.Failure {
	failures := e.vars.RecalculateAll(e.evaluator)
	for _, f := range failures {
		e.log.Warn().Str("variable", f.Name).Err(f.Err).Msg("formula not evaluable")
	}
	return failures
}

// Save writes the document to the store. Without a store it is a no-op.
func (e *Engine) Save() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(e.document()); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Close releases resources.
func (e *Engine) Close() error {
	return e.closeStore()
}

func (e *Engine) closeStore() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
