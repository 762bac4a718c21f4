// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the token kinds of the measurement formula language.
package token

// Token represents a formula token type.
type Token int

const (
	EOF Token = iota
	ILLEGAL

	NUMBER // 12.5, 1e-3
	IDENT  // Line_A_B, @waist, sin
	STRING // "message" (only valid as a warning() argument)

	// Operators
	PLUS     // +
	MINUS    // -
	MUL      // *
	DIV      // /
	POW      // ^
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	EQ       // ==
	NE       // !=
	AND      // &&
	OR       // ||
	QUESTION // ?
	COLON    // :

	LPAREN // (
	RPAREN // )
	ARGSEP // ; in canonical form
)

// Canonical separators. Formulas are always stored and evaluated with these.
const (
	CanonicalDecimal = '.'
	CanonicalArgSep  = ';'
	CanonicalGroup   = ','
)

var names = [...]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	NUMBER:   "NUMBER",
	IDENT:    "IDENT",
	STRING:   "STRING",
	PLUS:     "+",
	MINUS:    "-",
	MUL:      "*",
	DIV:      "/",
	POW:      "^",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	EQ:       "==",
	NE:       "!=",
	AND:      "&&",
	OR:       "||",
	QUESTION: "?",
	COLON:    ":",
	LPAREN:   "(",
	RPAREN:   ")",
	ARGSEP:   ";",
}

// String returns the string representation of a token.
func (t Token) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

// IsComparison returns true for the relational and equality operators.
func (t Token) IsComparison() bool {
	switch t {
	case LT, GT, LE, GE, EQ, NE:
		return true
	}
	return false
}

// IsOperator returns true if the token is a binary or ternary operator.
func (t Token) IsOperator() bool {
	return t >= PLUS && t <= COLON
}
