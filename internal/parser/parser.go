// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser builds expression trees from formula text.
//
// Operator precedence, lowest first:
//
//	?:            ternary, right associative
//	||
//	&&
//	== !=
//	< > <= >=
//	+ -
//	* /
//	unary - +
//	^             right associative, binds tighter than unary minus
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/patterncalc/internal/expr"
	"nickandperla.net/patterncalc/internal/scanner"
	"nickandperla.net/patterncalc/internal/token"
)

// Error describes a syntax error at a byte offset of the formula.
type Error struct {
	Pos   int
	Token string
	Msg   string
}

func (e *Error) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s at position %d: %q", e.Msg, e.Pos, e.Token)
	}
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Parser is a recursive-descent parser over a scanner.
type Parser struct {
	s   *scanner.Scanner
	sep scanner.Separators
}

// Parse parses a canonical formula.
func Parse(formula string) (expr.Expr, error) {
	return ParseWithSeparators(formula, scanner.Canonical)
}

// ParseWithSeparators parses a formula written with the given separators.
func ParseWithSeparators(formula string, sep scanner.Separators) (expr.Expr, error) {
	p := &Parser{s: scanner.NewWithSeparators(formula, sep), sep: sep}
	if p.s.Peek().Token == token.EOF {
		return nil, &Error{Pos: 0, Msg: "formula is empty"}
	}
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if item := p.s.Peek(); item.Token != token.EOF {
		return nil, &Error{Pos: item.Pos, Token: item.Value, Msg: "unexpected token after expression"}
	}
	return e, nil
}

func (p *Parser) parseTernary() (expr.Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.s.Peek().Token != token.QUESTION {
		return cond, nil
	}
	p.s.Next()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if item := p.s.Next(); item.Token != token.COLON {
		return nil, unexpected(item, "expected ':' in conditional")
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return expr.Ternary{Cond: cond, Then: then, Else: els}, nil
}

// binaryLevel parses a left-associative chain of operators accepted by ok.
func (p *Parser) binaryLevel(next func() (expr.Expr, error), ok func(token.Token) bool) (expr.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for ok(p.s.Peek().Token) {
		op := p.s.Next().Token
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *Parser) parseOr() (expr.Expr, error) {
	return p.binaryLevel(p.parseAnd, func(t token.Token) bool { return t == token.OR })
}

func (p *Parser) parseAnd() (expr.Expr, error) {
	return p.binaryLevel(p.parseEquality, func(t token.Token) bool { return t == token.AND })
}

func (p *Parser) parseEquality() (expr.Expr, error) {
	return p.binaryLevel(p.parseRelational, func(t token.Token) bool { return t == token.EQ || t == token.NE })
}

func (p *Parser) parseRelational() (expr.Expr, error) {
	return p.binaryLevel(p.parseAdditive, func(t token.Token) bool {
		return t == token.LT || t == token.GT || t == token.LE || t == token.GE
	})
}

func (p *Parser) parseAdditive() (expr.Expr, error) {
	return p.binaryLevel(p.parseMultiplicative, func(t token.Token) bool { return t == token.PLUS || t == token.MINUS })
}

func (p *Parser) parseMultiplicative() (expr.Expr, error) {
	return p.binaryLevel(p.parseUnary, func(t token.Token) bool { return t == token.MUL || t == token.DIV })
}

func (p *Parser) parseUnary() (expr.Expr, error) {
	item := p.s.Peek()
	if item.Token == token.MINUS || item.Token == token.PLUS {
		p.s.Next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary{Op: item.Token, X: x, At: item.Pos}, nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (expr.Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.s.Peek().Token != token.POW {
		return base, nil
	}
	p.s.Next()
	// The exponent may carry its own sign: 2^-1.
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return expr.Binary{Op: token.POW, X: base, Y: exp}, nil
}

func (p *Parser) parsePrimary() (expr.Expr, error) {
	item := p.s.Next()
	switch item.Token {
	case token.NUMBER:
		return p.number(item)
	case token.STRING:
		return expr.Str{Value: scanner.Unquote(item.Value), At: item.Pos}, nil
	case token.IDENT:
		if p.s.Peek().Token == token.LPAREN {
			return p.parseCall(item)
		}
		return expr.Ident{Name: item.Value, At: item.Pos}, nil
	case token.LPAREN:
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if closing := p.s.Next(); closing.Token != token.RPAREN {
			return nil, unexpected(closing, "missing closing parenthesis")
		}
		return e, nil
	case token.EOF:
		return nil, &Error{Pos: item.Pos, Msg: "unexpected end of formula"}
	}
	return nil, unexpected(item, "unexpected token")
}

func (p *Parser) parseCall(name *scanner.Item) (expr.Expr, error) {
	p.s.Next() // (
	call := expr.Call{Name: name.Value, At: name.Pos}
	if p.s.Peek().Token == token.RPAREN {
		p.s.Next()
		return call, nil
	}
	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		item := p.s.Next()
		switch item.Token {
		case token.ARGSEP:
			continue
		case token.RPAREN:
			return call, nil
		}
		return nil, unexpected(item, "expected argument separator or ')'")
	}
}

func (p *Parser) number(item *scanner.Item) (expr.Expr, error) {
	text := item.Value
	if p.sep.Decimal != token.CanonicalDecimal {
		text = strings.ReplaceAll(text, string(p.sep.Decimal), ".")
	}
	v, err := strconv.ParseFloat(text, 64)
	// Out of range literals become ±Inf and are rejected after evaluation.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, &Error{Pos: item.Pos, Token: item.Value, Msg: "malformed number"}
	}
	return expr.Number{Value: v, Text: item.Value, At: item.Pos}, nil
}

func unexpected(item *scanner.Item, msg string) *Error {
	if item.Token == token.EOF {
		return &Error{Pos: item.Pos, Msg: "unexpected end of formula"}
	}
	return &Error{Pos: item.Pos, Token: item.Value, Msg: msg}
}
