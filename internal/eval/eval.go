// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the formula evaluator.
package eval

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/expr"
	"nickandperla.net/patterncalc/internal/parser"
	"nickandperla.net/patterncalc/internal/token"
)

// Lookup resolves a variable name to its current value.
type Lookup interface {
	Lookup(name string) (float64, bool)
}

// Values is a Lookup backed by a plain map.
type Values map[string]float64

// Lookup implements Lookup.
func (v Values) Lookup(name string) (float64, bool) {
	x, ok := v[name]
	return x, ok
}

// DefaultSigils mark custom measurement names that may be referenced
// before they are defined.
var DefaultSigils = []string{"@"}

// Config carries the evaluation settings. Each evaluator owns its copy.
type Config struct {
	// Pedantic turns warning() calls into errors.
	Pedantic bool
	// Sigils are name prefixes that evaluate to NaN when unresolved instead
	// of failing with an unassignable token.
	Sigils []string
	// Logger receives lenient-mode warnings. Nil discards them.
	Logger *zerolog.Logger
}

// Evaluator evaluates formulas against a variable lookup.
type Evaluator struct {
	cfg    Config
	log    zerolog.Logger
	lookup Lookup
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPedantic makes warning() calls fail evaluation.
func WithPedantic(p bool) Option {
	return func(e *Evaluator) {
		e.cfg.Pedantic = p
	}
}

// WithSigils replaces the placeholder name prefixes.
func WithSigils(sigils ...string) Option {
	return func(e *Evaluator) {
		e.cfg.Sigils = sigils
	}
}

// WithLogger sets the logger for lenient-mode warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.cfg.Logger = &l
	}
}

// WithLookup sets the default variable lookup used by Eval.
func WithLookup(l Lookup) Option {
	return func(e *Evaluator) {
		e.lookup = l
	}
}

// New creates a new evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{cfg: Config{Sigils: DefaultSigils}}
	for _, opt := range opts {
		opt(e)
	}
	e.init()
	return e
}

// NewWithConfig creates an evaluator from an explicit config.
func NewWithConfig(cfg Config) *Evaluator {
	e := &Evaluator{cfg: cfg}
	e.init()
	return e
}

func (e *Evaluator) init() {
	if e.cfg.Logger != nil {
		e.log = *e.cfg.Logger
	} else {
		e.log = zerolog.Nop()
	}
	if e.lookup == nil {
		e.lookup = Values{}
	}
}

// Config returns the evaluation settings.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Evaluate evaluates a canonical formula with the given config.
func Evaluate(formula string, vars Lookup, cfg Config) (float64, error) {
	return NewWithConfig(cfg).EvalWith(formula, vars)
}

// Eval evaluates a formula against the evaluator's default lookup.
func (e *Evaluator) Eval(formula string) (float64, error) {
	return e.EvalWith(formula, e.lookup)
}

// EvalWith evaluates a canonical formula against vars. The result is always
// finite on success.
func (e *Evaluator) EvalWith(formula string, vars Lookup) (float64, error) {
	if v, ok := fastNumber(formula); ok {
		return v, nil
	}

	tree, err := parser.Parse(formula)
	if err != nil {
		return 0, parseError(formula, err)
	}
	return e.EvalExpr(formula, tree, vars)
}

// EvalExpr evaluates an already parsed formula.
func (e *Evaluator) EvalExpr(formula string, tree expr.Expr, vars Lookup) (float64, error) {
	r := &run{ev: e, formula: formula, slots: make(map[string]float64)}
	if err := r.validate(tree); err != nil {
		return 0, err
	}
	// Copy every referenced value once so this evaluation sees a stable
	// snapshot and never writes back into shared variables.
	for _, id := range expr.Idents(tree) {
		if _, done := r.slots[id.Name]; done {
			continue
		}
		v, res := e.resolve(id.Name, vars)
		if res == missing {
			return 0, &FormulaError{
				Code:    CodeUnassignableToken,
				Formula: formula,
				Token:   id.Name,
				Pos:     id.At,
				Msg:     "unknown variable",
			}
		}
		r.slots[id.Name] = v
	}

	v, err := r.eval(tree)
	if err != nil {
		return 0, err
	}
	return checkResult(formula, v)
}

// resolution tags the outcome of a name lookup.
type resolution int

const (
	found resolution = iota
	placeholder
	missing
)

// resolve looks a name up as a constant, then a variable, then a sigil
// placeholder which evaluates to NaN.
func (e *Evaluator) resolve(name string, vars Lookup) (float64, resolution) {
	if c, ok := constants[name]; ok {
		return c, found
	}
	if vars != nil {
		if v, ok := vars.Lookup(name); ok {
			return v, found
		}
	}
	for _, s := range e.cfg.Sigils {
		if s != "" && strings.HasPrefix(name, s) {
			return math.NaN(), placeholder
		}
	}
	return 0, missing
}

func checkResult(formula string, v float64) (float64, error) {
	switch {
	case math.IsInf(v, 0):
		return 0, &FormulaError{Code: CodeInvalidResult, Formula: formula, Msg: "result is infinite"}
	case math.IsNaN(v):
		return 0, &FormulaError{Code: CodeInvalidResult, Formula: formula, Msg: "result is NaN"}
	}
	return v, nil
}

// fastNumber accepts formulas that are a single canonical number literal.
func fastNumber(formula string) (float64, bool) {
	s := strings.TrimSpace(formula)
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseError(formula string, err error) error {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return &FormulaError{Code: CodeParse, Formula: formula, Token: perr.Token, Pos: perr.Pos, Msg: perr.Msg}
	}
	return &FormulaError{Code: CodeParse, Formula: formula, Msg: err.Error()}
}

// run holds the state of one evaluation.
type run struct {
	ev      *Evaluator
	formula string
	slots   map[string]float64
}

// validate checks every call and string literal of the tree, including
// branches that evaluation would skip.
func (r *run) validate(n expr.Expr) error {
	switch n := n.(type) {
	case expr.Str:
		return &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.String(), Pos: n.At, Msg: "unexpected string"}
	case expr.Unary:
		return r.validate(n.X)
	case expr.Binary:
		if err := r.validate(n.X); err != nil {
			return err
		}
		return r.validate(n.Y)
	case expr.Ternary:
		for _, x := range []expr.Expr{n.Cond, n.Then, n.Else} {
			if err := r.validate(x); err != nil {
				return err
			}
		}
	case expr.Call:
		b, ok := getBuiltin(n.Name)
		if !ok {
			return &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.At, Msg: "unknown function"}
		}
		if err := b.checkArity(n.Name, len(n.Args)); err != nil {
			return &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.At, Msg: err.Error()}
		}
		args := n.Args
		if n.Name == warningFunc {
			if _, ok := args[0].(expr.Str); !ok {
				return &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: args[0].Pos(), Msg: "warning message must be a string"}
			}
			args = args[1:]
		}
		for _, a := range args {
			if err := r.validate(a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) eval(n expr.Expr) (float64, error) {
	switch n := n.(type) {
	case expr.Number:
		return n.Value, nil
	case expr.Ident:
		return r.slots[n.Name], nil
	case expr.Str:
		return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.String(), Pos: n.At, Msg: "unexpected string"}
	case expr.Unary:
		x, err := r.eval(n.X)
		if err != nil {
			return 0, err
		}
		if n.Op == token.MINUS {
			return -x, nil
		}
		return x, nil
	case expr.Binary:
		return r.binary(n)
	case expr.Ternary:
		c, err := r.eval(n.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return r.eval(n.Then)
		}
		return r.eval(n.Else)
	case expr.Call:
		return r.call(n)
	}
	return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Pos: n.Pos(), Msg: "unsupported expression"}
}

func (r *run) binary(n expr.Binary) (float64, error) {
	x, err := r.eval(n.X)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case token.AND:
		if x == 0 {
			return 0, nil
		}
	case token.OR:
		if x != 0 {
			return 1, nil
		}
	}
	y, err := r.eval(n.Y)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case token.PLUS:
		return x + y, nil
	case token.MINUS:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.DIV:
		return x / y, nil
	case token.POW:
		return math.Pow(x, y), nil
	case token.LT:
		return boolean(x < y), nil
	case token.GT:
		return boolean(x > y), nil
	case token.LE:
		return boolean(x <= y), nil
	case token.GE:
		return boolean(x >= y), nil
	case token.EQ:
		return boolean(x == y), nil
	case token.NE:
		return boolean(x != y), nil
	case token.AND, token.OR:
		return boolean(y != 0), nil
	}
	return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Op.String(), Pos: n.Pos(), Msg: "unknown operator"}
}

func (r *run) call(n expr.Call) (float64, error) {
	b, ok := getBuiltin(n.Name)
	if !ok {
		return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.At, Msg: "unknown function"}
	}
	if err := b.checkArity(n.Name, len(n.Args)); err != nil {
		return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.At, Msg: err.Error()}
	}
	if n.Name == warningFunc {
		return r.warning(n)
	}

	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := r.eval(a)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	v, err := b.fn(args)
	if err != nil {
		return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.At, Msg: err.Error()}
	}
	return v, nil
}

// warning(message; value) passes value through, logging message, or fails
// in pedantic mode.
func (r *run) warning(n expr.Call) (float64, error) {
	msg, ok := n.Args[0].(expr.Str)
	if !ok {
		return 0, &FormulaError{Code: CodeParse, Formula: r.formula, Token: n.Name, Pos: n.Args[0].Pos(), Msg: "warning message must be a string"}
	}
	v, err := r.eval(n.Args[1])
	if err != nil {
		return 0, err
	}
	if r.ev.cfg.Pedantic {
		return 0, &FormulaError{Code: CodeWarning, Formula: r.formula, Pos: n.At, Msg: msg.Value}
	}
	r.ev.log.Warn().Str("formula", r.formula).Str("message", msg.Value).Float64("value", v).Msg("calculation warning")
	return v, nil
}

func boolean(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
