// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a Unicode-aware lexer for measurement formulas.
package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"nickandperla.net/patterncalc/internal/token"
)

// Separators selects the characters used for the decimal point and the
// function argument separator.
type Separators struct {
	Decimal rune
	Arg     rune
}

// Canonical is the separator set formulas are stored and evaluated with.
var Canonical = Separators{Decimal: token.CanonicalDecimal, Arg: token.CanonicalArgSep}

// Scanner tokenizes a formula rune-by-rune.
type Scanner struct {
	src    string
	pos    int // byte offset of the next unread rune
	sep    Separators
	peeked *Item
}

// Item represents a scanned token with its value.
type Item struct {
	Token token.Token
	Value string
	Pos   int // Byte offset where this token started
}

// End returns the byte offset just past the token.
func (i *Item) End() int {
	return i.Pos + len(i.Value)
}

// New creates a Scanner over src using the canonical separators.
func New(src string) *Scanner {
	return NewWithSeparators(src, Canonical)
}

// NewWithSeparators creates a Scanner that reads numbers and argument
// lists with the given separators.
func NewWithSeparators(src string, sep Separators) *Scanner {
	if sep.Decimal == 0 {
		sep.Decimal = token.CanonicalDecimal
	}
	if sep.Arg == 0 {
		sep.Arg = token.CanonicalArgSep
	}
	return &Scanner{src: src, sep: sep}
}

// Separators returns the separator set the scanner was built with.
func (s *Scanner) Separators() Separators {
	return s.sep
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() *Item {
	if s.peeked == nil {
		s.peeked = s.scan()
	}
	return s.peeked
}

// Next returns the next token from the input.
func (s *Scanner) Next() *Item {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item
	}
	return s.scan()
}

// All drains the scanner, returning every item up to and including EOF.
func (s *Scanner) All() []*Item {
	var items []*Item
	for {
		item := s.Next()
		items = append(items, item)
		if item.Token == token.EOF {
			return items
		}
	}
}

func (s *Scanner) peekRune(off int) rune {
	if s.pos+off >= len(s.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos+off:])
	return r
}

func (s *Scanner) scan() *Item {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		s.pos += size
	}
	start := s.pos
	if start >= len(s.src) {
		return &Item{Token: token.EOF, Pos: start}
	}

	r, size := utf8.DecodeRuneInString(s.src[start:])
	switch {
	case isDigit(r) || (r == s.sep.Decimal && isDigit(s.peekRune(size))):
		return s.scanNumber(start)
	case IsIdentStart(r):
		return s.scanIdent(start)
	case r == '"':
		return s.scanString(start)
	case r == s.sep.Arg:
		s.pos += size
		return &Item{Token: token.ARGSEP, Value: string(r), Pos: start}
	}

	s.pos += size
	two := func(next rune, tok token.Token) (*Item, bool) {
		if s.peekRune(0) == next {
			s.pos++
			return &Item{Token: tok, Value: s.src[start:s.pos], Pos: start}, true
		}
		return nil, false
	}
	single := func(tok token.Token) *Item {
		return &Item{Token: tok, Value: string(r), Pos: start}
	}

	switch r {
	case '+':
		return single(token.PLUS)
	case '-':
		return single(token.MINUS)
	case '*':
		return single(token.MUL)
	case '/':
		return single(token.DIV)
	case '^':
		return single(token.POW)
	case '(':
		return single(token.LPAREN)
	case ')':
		return single(token.RPAREN)
	case '?':
		return single(token.QUESTION)
	case ':':
		return single(token.COLON)
	case '<':
		if item, ok := two('=', token.LE); ok {
			return item
		}
		return single(token.LT)
	case '>':
		if item, ok := two('=', token.GE); ok {
			return item
		}
		return single(token.GT)
	case '=':
		if item, ok := two('=', token.EQ); ok {
			return item
		}
	case '!':
		if item, ok := two('=', token.NE); ok {
			return item
		}
	case '&':
		if item, ok := two('&', token.AND); ok {
			return item
		}
	case '|':
		if item, ok := two('|', token.OR); ok {
			return item
		}
	}
	return single(token.ILLEGAL)
}

func (s *Scanner) scanNumber(start int) *Item {
	s.digits()
	if s.peekRune(0) == s.sep.Decimal {
		s.pos += utf8.RuneLen(s.sep.Decimal)
		s.digits()
	}
	// Exponent only when digits follow, so "2e" leaves the e for the next token.
	if c := s.peekRune(0); c == 'e' || c == 'E' {
		off := 1
		if sign := s.peekRune(1); sign == '+' || sign == '-' {
			off = 2
		}
		if isDigit(s.peekRune(off)) {
			s.pos += off
			s.digits()
		}
	}
	return &Item{Token: token.NUMBER, Value: s.src[start:s.pos], Pos: start}
}

func (s *Scanner) digits() {
	for s.pos < len(s.src) && isDigit(rune(s.src[s.pos])) {
		s.pos++
	}
}

func (s *Scanner) scanIdent(start int) *Item {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !IsIdentChar(r) {
			break
		}
		s.pos += size
	}
	return &Item{Token: token.IDENT, Value: s.src[start:s.pos], Pos: start}
}

func (s *Scanner) scanString(start int) *Item {
	s.pos++ // opening quote
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\\' && s.pos+1 < len(s.src) {
			s.pos += 2
			continue
		}
		s.pos++
		if c == '"' {
			return &Item{Token: token.STRING, Value: s.src[start:s.pos], Pos: start}
		}
	}
	// Unterminated
	return &Item{Token: token.ILLEGAL, Value: s.src[start:], Pos: start}
}

// Unquote strips the quotes and escapes from a STRING item value.
func Unquote(v string) string {
	v = strings.TrimPrefix(v, `"`)
	v = strings.TrimSuffix(v, `"`)
	return strings.ReplaceAll(v, `\"`, `"`)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IsIdentStart returns true if r may begin a name. Names never start with a
// digit.
func IsIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '@' || r == '#' || r == '\'' || r == '\\'
}

// IsIdentChar returns true if the rune is valid inside a name.
func IsIdentChar(r rune) bool {
	return IsIdentStart(r) || unicode.IsDigit(r)
}

// IsName reports whether s is a single well-formed name token.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !IsIdentStart(r) {
			return false
		}
		if !IsIdentChar(r) {
			return false
		}
	}
	return true
}
