// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package container holds every named variable of a pattern and keeps the
// formulas that read them consistent across additions, renames and
// removals.
//
// Variables live by value in an arena owned by the container. Pointers
// handed out by accessors are borrowed: they stay valid until the next
// mutating call.
package container

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/graph"
	"nickandperla.net/patterncalc/internal/scanner"
	"nickandperla.net/patterncalc/internal/usage"
	"nickandperla.net/patterncalc/internal/variable"
)

var (
	// ErrVariableInUse is returned when a removal is blocked by live
	// references.
	ErrVariableInUse = errors.New("variable is in use")
	// ErrBadIdentifier is returned for names that are absent or of a
	// different kind than requested.
	ErrBadIdentifier = errors.New("bad identifier")
	// ErrNotUnique is returned when a name is already taken.
	ErrNotUnique = errors.New("name is not unique")
	// ErrInvalidName is returned for names formulas could not refer to.
	ErrInvalidName = errors.New("invalid variable name")
)

// Prefixes of generated names.
const (
	DefaultIncrementPrefix = "@custom_increment_"
	DefaultSeparatorPrefix = "@separator_"
)

// Handle addresses a variable slot in the arena.
type Handle int

type slot struct {
	v    variable.Variable
	seq  uint64
	used bool
}

// Container is the variable table of one pattern.
type Container struct {
	namespace string
	unit      geom.Unit
	pedantic  bool
	log       zerolog.Logger

	slots  []slot
	free   []Handle
	byName map[string]Handle
	seq    uint64

	deps *graph.Graph
}

// Option configures a Container.
type Option func(*Container)

// WithUnit sets the pattern unit derived lengths are expressed in.
func WithUnit(u geom.Unit) Option {
	return func(c *Container) {
		c.unit = u
	}
}

// WithPedantic makes degenerate geometry an error instead of a warning.
func WithPedantic(p bool) Option {
	return func(c *Container) {
		c.pedantic = p
	}
}

// WithLogger sets the logger for container events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Container) {
		c.log = l
	}
}

// WithNamespace restores a persisted namespace id.
func WithNamespace(ns string) Option {
	return func(c *Container) {
		c.namespace = ns
	}
}

// New creates an empty container. Each container gets a fresh namespace id
// unless one is supplied.
func New(opts ...Option) *Container {
	c := &Container{
		unit:   geom.Cm,
		log:    zerolog.Nop(),
		byName: make(map[string]Handle),
		deps:   graph.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.namespace == "" {
		c.namespace = uuid.NewString()
	}
	c.log = c.log.With().Str("namespace", c.namespace).Logger()
	return c
}

// Namespace returns the id that scopes names of this container.
func (c *Container) Namespace() string { return c.namespace }

// Unit returns the pattern unit.
func (c *Container) Unit() geom.Unit { return c.unit }

// Pedantic reports whether degenerate geometry is rejected.
func (c *Container) Pedantic() bool { return c.pedantic }

// Graph exposes the dependency graph for inspection.
func (c *Container) Graph() *graph.Graph { return c.deps }

// Len returns the number of variables.
func (c *Container) Len() int { return len(c.byName) }

func (c *Container) insert(v variable.Variable) Handle {
	c.seq++
	s := slot{v: v, seq: c.seq, used: true}
	var h Handle
	if n := len(c.free); n > 0 {
		h = c.free[n-1]
		c.free = c.free[:n-1]
		c.slots[h] = s
	} else {
		h = Handle(len(c.slots))
		c.slots = append(c.slots, s)
	}
	c.byName[v.Name()] = h
	return h
}

func (c *Container) release(h Handle) {
	name := c.slots[h].v.Name()
	delete(c.byName, name)
	c.slots[h] = slot{}
	c.free = append(c.free, h)
}

// Get returns the variable at h, or nil if the slot is empty.
func (c *Container) Get(h Handle) *variable.Variable {
	if h < 0 || int(h) >= len(c.slots) || !c.slots[h].used {
		return nil
	}
	return &c.slots[h].v
}

// Handle returns the handle of name.
func (c *Container) Handle(name string) (Handle, bool) {
	h, ok := c.byName[name]
	return h, ok
}

// IsUnique reports whether name is free: no variable of any table uses it
// and it is not a builtin function or constant.
func (c *Container) IsUnique(name string) bool {
	if _, ok := c.byName[name]; ok {
		return false
	}
	return !eval.Reserved(name)
}

// ValidateName checks that name can be used for a new authored variable.
func (c *Container) ValidateName(name string) error {
	if !scanner.IsName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if variable.HasBuiltinPrefix(name) {
		return fmt.Errorf("%w: %q uses a reserved prefix", ErrInvalidName, name)
	}
	if !c.IsUnique(name) {
		return fmt.Errorf("%w: %q", ErrNotUnique, name)
	}
	return nil
}

// Variable returns the variable called name. When kinds are given the
// variable must be of one of them. Absent or mismatched names fail with
// ErrBadIdentifier.
func (c *Container) Variable(name string, kinds ...variable.Kind) (*variable.Variable, error) {
	h, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variable %q", ErrBadIdentifier, name)
	}
	v := &c.slots[h].v
	if len(kinds) == 0 {
		return v, nil
	}
	for _, k := range kinds {
		if v.Kind() == k {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is a %s", ErrBadIdentifier, name, v.Kind())
}

// Variables returns the variables of the given kinds, or of every kind,
// in insertion order.
func (c *Container) Variables(kinds ...variable.Kind) []*variable.Variable {
	want := kindSet(kinds)
	var hs []Handle
	for i := range c.slots {
		s := &c.slots[i]
		if !s.used {
			continue
		}
		if want != nil && !want[s.v.Kind()] {
			continue
		}
		hs = append(hs, Handle(i))
	}
	sort.Slice(hs, func(i, j int) bool { return c.slots[hs[i]].seq < c.slots[hs[j]].seq })
	out := make([]*variable.Variable, len(hs))
	for i, h := range hs {
		out[i] = &c.slots[h].v
	}
	return out
}

// Candidates returns the variables a formula on object id may read:
// everything except variables derived from that object.
func (c *Container) Candidates(id uint32) []*variable.Variable {
	var out []*variable.Variable
	for _, v := range c.Variables() {
		if v.Kind() == variable.Separator || v.Filter(id) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Formulas returns the formula fields owned by the container itself:
// increments and measurements with a formula. Attr carries the variable
// name; OwnerID is zero.
func (c *Container) Formulas() []usage.Field {
	var out []usage.Field
	for _, v := range c.Variables(variable.Increment, variable.Measurement) {
		if f := v.Formula(); f != "" {
			out = append(out, usage.Field{Attr: v.Name(), Formula: f})
		}
	}
	return out
}

// IsUsedBy reports whether name is a live token of any formula in corpus
// or of the container's own formulas.
func (c *Container) IsUsedBy(name string, corpus []usage.Field) bool {
	return len(c.users(name, corpus)) > 0
}

func (c *Container) users(name string, corpus []usage.Field) []usage.Field {
	users := usage.Users(name, corpus)
	for _, f := range usage.Users(name, c.Formulas()) {
		if f.Attr != name {
			users = append(users, f)
		}
	}
	return users
}

// Lookup implements eval.Lookup over every variable. A variable whose last
// evaluation failed resolves to NaN.
func (c *Container) Lookup(name string) (float64, bool) {
	return c.View(ScopeAll).Lookup(name)
}

// Scope restricts which tables a formula may read.
type Scope int

const (
	// ScopeAll reads every table.
	ScopeAll Scope = iota
	// ScopeMeasurements reads measurements only.
	ScopeMeasurements
	// ScopeIncrements reads everything except preview calculations.
	ScopeIncrements
)

// View returns an eval.Lookup limited to scope.
func (c *Container) View(s Scope) eval.Lookup {
	return view{c: c, scope: s}
}

type view struct {
	c     *Container
	scope Scope
}

func (w view) Lookup(name string) (float64, bool) {
	h, ok := w.c.byName[name]
	if !ok {
		return 0, false
	}
	v := &w.c.slots[h].v
	switch v.Kind() {
	case variable.Separator:
		return 0, false
	case variable.Measurement:
	case variable.Increment:
		if w.scope == ScopeMeasurements {
			return 0, false
		}
		if w.scope == ScopeIncrements && v.Increment().PreviewCalculation {
			return 0, false
		}
	default:
		if w.scope == ScopeMeasurements {
			return 0, false
		}
	}
	if !v.IsEvaluable() {
		return math.NaN(), true
	}
	return v.Value(), true
}

// CustomName returns the first free name prefix1, prefix2, ... The search
// is bounded by the number of names in the container.
func (c *Container) CustomName(prefix string) string {
	n := len(c.byName)
	for i := 1; i <= n; i++ {
		if name := prefix + strconv.Itoa(i); c.IsUnique(name) {
			return name
		}
	}
	return prefix + strconv.Itoa(n+1)
}

// disambiguate returns base itself when free, otherwise base_2, base_3, ...
func (c *Container) disambiguate(base string) string {
	if c.IsUnique(base) {
		return base
	}
	n := len(c.byName)
	for i := 2; i <= n+1; i++ {
		if name := base + "_" + strconv.Itoa(i); c.IsUnique(name) {
			return name
		}
	}
	return base + "_" + strconv.Itoa(n+2)
}

// Clear removes every variable. The namespace is kept.
func (c *Container) Clear() {
	c.slots = nil
	c.free = nil
	c.byName = make(map[string]Handle)
	c.deps.Clear()
}

func kindSet(kinds []variable.Kind) map[variable.Kind]bool {
	if len(kinds) == 0 {
		return nil
	}
	for _, k := range kinds {
		if k == variable.Unknown {
			return nil
		}
	}
	m := make(map[variable.Kind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}
