// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import "fmt"

// Code classifies a formula failure.
type Code int

const (
	// CodeParse covers syntax errors, unknown functions and wrong argument
	// counts.
	CodeParse Code = iota + 1
	// CodeUnassignableToken is a name that resolves to no variable.
	CodeUnassignableToken
	// CodeInvalidResult is a result that is infinite, NaN or fails a
	// caller supplied check.
	CodeInvalidResult
	// CodeWarning is a warning() call evaluated in pedantic mode.
	CodeWarning
)

func (c Code) String() string {
	switch c {
	case CodeParse:
		return "parse error"
	case CodeUnassignableToken:
		return "unassignable token"
	case CodeInvalidResult:
		return "invalid result"
	case CodeWarning:
		return "warning"
	}
	return "unknown"
}

// FormulaError reports why a formula could not produce a value.
type FormulaError struct {
	Code    Code
	Formula string
	Token   string
	Pos     int
	Msg     string
}

func (e *FormulaError) Error() string {
	switch {
	case e.Token != "":
		return fmt.Sprintf("%s: %s %q at position %d in %q", e.Code, e.Msg, e.Token, e.Pos, e.Formula)
	case e.Formula != "":
		return fmt.Sprintf("%s: %s in %q", e.Code, e.Msg, e.Formula)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is matches any FormulaError with the same code, so callers can write
// errors.Is(err, eval.ErrUnassignableToken).
func (e *FormulaError) Is(target error) bool {
	t, ok := target.(*FormulaError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrParse             = &FormulaError{Code: CodeParse, Msg: "formula cannot be parsed"}
	ErrUnassignableToken = &FormulaError{Code: CodeUnassignableToken, Msg: "unknown name"}
	ErrInvalidResult     = &FormulaError{Code: CodeInvalidResult, Msg: "invalid result"}
	ErrWarning           = &FormulaError{Code: CodeWarning, Msg: "calculation warning"}
)
