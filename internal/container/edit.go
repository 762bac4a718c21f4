// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package container

import (
	"errors"
	"fmt"
	"strings"

	"nickandperla.net/patterncalc/internal/usage"
	"nickandperla.net/patterncalc/internal/variable"
)

// State is the progress of a pending Edit.
type State int

const (
	Editing State = iota
	Validating
	Applying
	Applied
	Rejected
)

var stateNames = [...]string{
	Editing:    "editing",
	Validating: "validating",
	Applying:   "applying",
	Applied:    "applied",
	Rejected:   "rejected",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EditKind selects what an Edit does.
type EditKind int

const (
	RenameEdit EditKind = iota
	RemoveEdit
)

var errEditClosed = errors.New("edit has already been applied or rejected")

// InUseError lists the formulas that block a removal.
type InUseError struct {
	Name  string
	Users []usage.Field
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("variable %q is used by %d formula(s)", e.Name, len(e.Users))
}

func (e *InUseError) Is(target error) bool {
	return target == ErrVariableInUse
}

// RenameResult describes an applied rename.
type RenameResult struct {
	// Name is the name actually stored.
	Name string
	// Literal is false when Name was disambiguated or generated instead of
	// taken as requested. Only literal renames call for a full recompute of
	// dependent geometry.
	Literal bool
	// Rewritten counts the formulas whose text changed.
	Rewritten int
}

// Edit is one pending rename or removal. It moves from Editing through
// Validating to Applied, or stops at Rejected; nothing is changed unless it
// reaches Applied.
type Edit struct {
	Kind    EditKind
	Name    string
	NewName string

	state  State
	err    error
	result RenameResult
	corpus []usage.Field
}

// State returns the current state.
func (e *Edit) State() State { return e.state }

// Err returns the reason a rejected edit failed.
func (e *Edit) Err() error { return e.err }

// Result returns the outcome of an applied rename.
func (e *Edit) Result() RenameResult { return e.result }

// Corpus returns the document formulas after the edit. For a rename these
// carry the substituted name; callers write them back.
func (e *Edit) Corpus() []usage.Field { return e.corpus }

// BeginRename starts renaming oldName to newName. An empty newName asks
// for a generated name.
func (c *Container) BeginRename(oldName, newName string) *Edit {
	return &Edit{Kind: RenameEdit, Name: trimName(oldName), NewName: trimName(newName)}
}

// BeginRemove starts removing name.
func (c *Container) BeginRemove(name string) *Edit {
	return &Edit{Kind: RemoveEdit, Name: trimName(name)}
}

// Apply validates e against corpus, the formula fields of the document,
// and commits it. Either every table and formula change is made or none.
func (c *Container) Apply(e *Edit, corpus []usage.Field) error {
	if e.state != Editing {
		return errEditClosed
	}
	e.state = Validating

	var commit func()
	var err error
	switch e.Kind {
	case RenameEdit:
		commit, err = c.planRename(e, corpus)
	case RemoveEdit:
		commit, err = c.planRemove(e, corpus)
	default:
		err = fmt.Errorf("unknown edit kind %d", e.Kind)
	}
	if err != nil {
		e.state = Rejected
		e.err = err
		c.log.Debug().Str("variable", e.Name).Err(err).Msg("edit rejected")
		return err
	}

	e.state = Applying
	commit()
	e.state = Applied
	return nil
}

// Rename renames an increment, separator or measurement and rewrites every
// formula that reads it. It returns the rewritten corpus.
func (c *Container) Rename(oldName, newName string, corpus []usage.Field) (RenameResult, []usage.Field, error) {
	e := c.BeginRename(oldName, newName)
	if err := c.Apply(e, corpus); err != nil {
		return RenameResult{}, corpus, err
	}
	return e.Result(), e.Corpus(), nil
}

// Remove deletes an increment, separator or measurement. It fails with
// ErrVariableInUse while any formula of corpus, or of the container, reads
// it.
func (c *Container) Remove(name string, corpus []usage.Field) error {
	return c.Apply(c.BeginRemove(name), corpus)
}

var authored = []variable.Kind{variable.Increment, variable.Separator, variable.Measurement}

func (c *Container) planRename(e *Edit, corpus []usage.Field) (func(), error) {
	v, err := c.Variable(e.Name, authored...)
	if err != nil {
		return nil, err
	}
	oldName := e.Name

	target := e.NewName
	literal := true
	if target == "" {
		if v.Kind() == variable.Measurement {
			return nil, fmt.Errorf("%w: empty measurement name", ErrInvalidName)
		}
		prefix := DefaultIncrementPrefix
		if v.Kind() == variable.Separator {
			prefix = DefaultSeparatorPrefix
		}
		target = c.CustomName(prefix)
		literal = false
	}
	if target == oldName {
		e.result = RenameResult{Name: oldName, Literal: true}
		e.corpus = corpus
		return func() {}, nil
	}
	if err := c.ValidateName(target); err != nil {
		if !errors.Is(err, ErrNotUnique) {
			return nil, err
		}
		target = c.disambiguate(target)
		literal = false
	}

	// Compute every substitution before touching anything.
	rewritten, n := usage.ReplaceAll(corpus, oldName, target)
	type change struct {
		h       Handle
		formula string
	}
	var own []change
	for _, f := range c.Formulas() {
		if s, ok := usage.Replace(f.Formula, oldName, target); ok {
			own = append(own, change{h: c.byName[f.Attr], formula: s})
		}
	}

	e.result = RenameResult{Name: target, Literal: literal, Rewritten: n + len(own)}
	e.corpus = rewritten
	return func() {
		h := c.byName[oldName]
		delete(c.byName, oldName)
		c.slots[h].v.SetName(target)
		c.byName[target] = h
		c.deps.Rename(oldName, target)
		for _, ch := range own {
			v := &c.slots[ch.h].v
			v.SetFormula(ch.formula)
			c.define(v.Name(), ch.formula)
		}
		c.deps.MarkDirty(target)
		c.log.Info().Str("from", oldName).Str("to", target).Bool("literal", literal).
			Int("rewritten", e.result.Rewritten).Msg("variable renamed")
	}, nil
}

func (c *Container) planRemove(e *Edit, corpus []usage.Field) (func(), error) {
	v, err := c.Variable(e.Name, authored...)
	if err != nil {
		return nil, err
	}
	if users := c.users(e.Name, corpus); len(users) > 0 {
		return nil, &InUseError{Name: e.Name, Users: users}
	}
	e.corpus = corpus
	name := e.Name
	kind := v.Kind()
	preview := false
	if inc := v.Increment(); inc != nil {
		preview = inc.PreviewCalculation
	}
	return func() {
		c.deps.Remove(name)
		c.release(c.byName[name])
		if kind == variable.Measurement {
			ms := c.Measurements()
			for i, m := range ms {
				m.Measurement().Index = i
			}
		} else {
			reindex(c.table(preview))
		}
		c.log.Info().Str("variable", name).Str("kind", kind.String()).Msg("variable removed")
	}, nil
}

// RenameLabel rewrites derived-variable references after point oldLabel
// was relabelled newLabel, in corpus and in the container's own formulas.
// Geometric variables themselves are rebuilt by the caller re-adding the
// geometry.
func (c *Container) RenameLabel(oldLabel, newLabel string, corpus []usage.Field) ([]usage.Field, int) {
	oldLabel, newLabel = strings.TrimSpace(oldLabel), strings.TrimSpace(newLabel)
	out := make([]usage.Field, len(corpus))
	changed := 0
	for i, f := range corpus {
		out[i] = f
		if s, ok := usage.RenameLabel(f.Formula, oldLabel, newLabel); ok {
			out[i].Formula = s
			changed++
		}
	}
	for _, f := range c.Formulas() {
		if s, ok := usage.RenameLabel(f.Formula, oldLabel, newLabel); ok {
			v := &c.slots[c.byName[f.Attr]].v
			v.SetFormula(s)
			c.define(v.Name(), s)
			changed++
		}
	}
	return out, changed
}
