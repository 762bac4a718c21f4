// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines formula expression types.
package expr

import (
	"strconv"
	"strings"

	"nickandperla.net/patterncalc/internal/token"
)

// Expr is the interface all expression types implement.
type Expr interface {
	// String returns the canonical representation of the expression.
	String() string
	// Pos returns the byte offset of the expression in its source formula.
	Pos() int
}

// Number represents a numeric literal.
type Number struct {
	Value float64
	Text  string // source text, kept for locale-aware rewriting
	At    int
}

func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}
func (n Number) Pos() int { return n.At }

// Ident represents a name: a variable, a constant or a placeholder.
type Ident struct {
	Name string
	At   int
}

func (i Ident) String() string { return i.Name }
func (i Ident) Pos() int       { return i.At }

// End returns the byte offset just past the name.
func (i Ident) End() int { return i.At + len(i.Name) }

// Str represents a quoted string literal.
type Str struct {
	Value string
	At    int
}

func (s Str) String() string {
	return `"` + strings.ReplaceAll(s.Value, `"`, `\"`) + `"`
}
func (s Str) Pos() int { return s.At }

// Unary represents a prefix sign.
type Unary struct {
	Op token.Token
	X  Expr
	At int
}

func (u Unary) String() string {
	return u.Op.String() + u.X.String()
}
func (u Unary) Pos() int { return u.At }

// Binary represents an infix operator application.
type Binary struct {
	Op   token.Token
	X, Y Expr
}

func (b Binary) String() string {
	return "(" + b.X.String() + " " + b.Op.String() + " " + b.Y.String() + ")"
}
func (b Binary) Pos() int { return b.X.Pos() }

// Ternary represents cond ? then : else.
type Ternary struct {
	Cond, Then, Else Expr
}

func (t Ternary) String() string {
	return "(" + t.Cond.String() + " ? " + t.Then.String() + " : " + t.Else.String() + ")"
}
func (t Ternary) Pos() int { return t.Cond.Pos() }

// Call represents a function call.
type Call struct {
	Name string
	Args []Expr
	At   int
}

func (c Call) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
func (c Call) Pos() int { return c.At }

// Walk calls fn for e and every sub-expression in source order.
// Returning false from fn skips the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case Unary:
		Walk(n.X, fn)
	case Binary:
		Walk(n.X, fn)
		Walk(n.Y, fn)
	case Ternary:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// Idents returns every name reference in e, in source order.
// Function names are not included.
func Idents(e Expr) []Ident {
	var out []Ident
	Walk(e, func(n Expr) bool {
		if id, ok := n.(Ident); ok {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Numbers returns every numeric literal in e, in source order.
func Numbers(e Expr) []Number {
	var out []Number
	Walk(e, func(n Expr) bool {
		if num, ok := n.(Number); ok {
			out = append(out, num)
		}
		return true
	})
	return out
}
