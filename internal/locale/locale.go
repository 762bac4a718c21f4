// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package locale translates formulas between the canonical form they are
// stored and evaluated in and the form a user types and reads.
//
// Only number literals change: the decimal point becomes the user's decimal
// separator. Names, operators and the ';' argument separator are the same
// in both forms.
package locale

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"nickandperla.net/patterncalc/internal/scanner"
	"nickandperla.net/patterncalc/internal/token"
)

// Separators are the number punctuation of a locale. Group is zero when the
// locale does not group digits.
type Separators struct {
	Decimal rune
	Group   rune
}

// Canonical is the punctuation of stored formulas.
var Canonical = Separators{Decimal: token.CanonicalDecimal, Group: token.CanonicalGroup}

// ForTag derives the separators of a BCP 47 language tag.
func ForTag(tag string) (Separators, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return Separators{}, fmt.Errorf("parsing locale %q: %w", tag, err)
	}
	return forLanguage(t), nil
}

func forLanguage(t language.Tag) Separators {
	s := message.NewPrinter(t).Sprint(number.Decimal(1234567.5, number.MinFractionDigits(1)))
	runes := []rune(s)
	sep := Canonical
	if n := len(runes); n >= 2 {
		sep.Decimal = runes[n-2]
	}
	sep.Group = 0
	if len(runes) >= 2 && !isDigit(runes[1]) {
		sep.Group = runes[1]
	}
	return sep
}

// Translator converts formulas at the UI boundary.
type Translator struct {
	tag language.Tag
	sep Separators
}

// New creates a Translator for tag. When osSeparator is false users type
// canonical formulas and no conversion happens.
func New(tag string, osSeparator bool) (*Translator, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", tag, err)
	}
	tr := &Translator{tag: t, sep: Canonical}
	if osSeparator {
		tr.sep = forLanguage(t)
	}
	return tr, nil
}

// CanonicalTranslator returns a Translator that leaves formulas untouched.
func CanonicalTranslator() *Translator {
	return &Translator{tag: language.Und, sep: Canonical}
}

// Separators returns the user separators.
func (t *Translator) Separators() Separators { return t.sep }

func (t *Translator) identity() bool {
	return t.sep.Decimal == token.CanonicalDecimal
}

// ToUser rewrites a canonical formula for display.
func (t *Translator) ToUser(formula string) string {
	if t.identity() {
		return formula
	}
	return rewriteNumbers(formula, scanner.Canonical, func(num string) string {
		return strings.Replace(num, string(token.CanonicalDecimal), string(t.sep.Decimal), 1)
	})
}

// FromUser rewrites user input into canonical form. Group separators
// between digits are dropped.
func (t *Translator) FromUser(formula string) string {
	if t.identity() {
		return formula
	}
	sep := scanner.Separators{Decimal: t.sep.Decimal, Arg: token.CanonicalArgSep}
	if t.sep.Group != 0 {
		formula = stripGroups(formula, sep, t.sep.Group)
	}
	return rewriteNumbers(formula, sep, func(num string) string {
		return strings.Replace(num, string(t.sep.Decimal), string(token.CanonicalDecimal), 1)
	})
}

// FormatValue renders a computed value for display with grouping.
func (t *Translator) FormatValue(v float64, prec int) string {
	if t.identity() {
		return fmt.Sprintf("%.*f", prec, v)
	}
	return message.NewPrinter(t.tag).Sprint(number.Decimal(v,
		number.MinFractionDigits(prec), number.MaxFractionDigits(prec)))
}

// rewriteNumbers copies formula, passing number literals through fn. Text
// between tokens is kept verbatim.
func rewriteNumbers(formula string, sep scanner.Separators, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, item := range scanner.NewWithSeparators(formula, sep).All() {
		if item.Token != token.NUMBER {
			continue
		}
		b.WriteString(formula[last:item.Pos])
		b.WriteString(fn(item.Value))
		last = item.End()
	}
	b.WriteString(formula[last:])
	return b.String()
}

// stripGroups drops group separators outside string literals.
func stripGroups(formula string, sep scanner.Separators, group rune) string {
	var b strings.Builder
	last := 0
	for _, item := range scanner.NewWithSeparators(formula, sep).All() {
		if item.Token != token.STRING {
			continue
		}
		b.WriteString(stripDigitGroups(formula[last:item.Pos], group))
		b.WriteString(formula[item.Pos:item.End()])
		last = item.End()
	}
	b.WriteString(stripDigitGroups(formula[last:], group))
	return b.String()
}

func stripDigitGroups(s string, group rune) string {
	var b strings.Builder
	prev := rune(-1)
	for i, r := range s {
		if r == group && isDigit(prev) {
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			if isDigit(next) {
				continue
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
