// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package usage finds and rewrites variable references in stored formulas.
//
// Matching is token exact: a name is used by a formula only when the formula
// parses and one of its variable tokens equals the name. Substring matches
// such as "a" inside "ab" never count.
package usage

import (
	"sort"
	"strings"

	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/expr"
	"nickandperla.net/patterncalc/internal/parser"
	"nickandperla.net/patterncalc/internal/variable"
)

// Field is one stored formula attribute of a pattern object.
type Field struct {
	OwnerID uint32
	Attr    string
	Formula string
}

// Tokens returns the variable tokens of formula keyed by byte offset.
// Function names and builtin constants are not variable tokens.
func Tokens(formula string) (map[int]string, error) {
	tree, err := parser.Parse(formula)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string)
	for _, id := range expr.Idents(tree) {
		if eval.IsConstant(id.Name) {
			continue
		}
		out[id.At] = id.Name
	}
	return out, nil
}

// Names returns the distinct variable names formula refers to, sorted.
func Names(formula string) ([]string, error) {
	toks, err := Tokens(formula)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(toks))
	for _, n := range toks {
		seen[n] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Uses reports whether formula refers to name. A formula that does not
// parse is treated as not using the name.
func Uses(formula, name string) bool {
	// Cheap prefilter before tokenizing.
	if !strings.Contains(formula, name) {
		return false
	}
	toks, err := Tokens(formula)
	if err != nil {
		return false
	}
	for _, t := range toks {
		if t == name {
			return true
		}
	}
	return false
}

// IsUsed reports whether any field refers to name.
func IsUsed(name string, fields []Field) bool {
	for _, f := range fields {
		if Uses(f.Formula, name) {
			return true
		}
	}
	return false
}

// Users returns the fields that refer to name, in input order.
func Users(name string, fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if Uses(f.Formula, name) {
			out = append(out, f)
		}
	}
	return out
}

// Replace substitutes every variable token equal to oldName with newName.
// It reports whether anything changed. Formulas that do not parse are
// returned unchanged.
func Replace(formula, oldName, newName string) (string, bool) {
	if oldName == newName || !strings.Contains(formula, oldName) {
		return formula, false
	}
	toks, err := Tokens(formula)
	if err != nil {
		return formula, false
	}
	return rewrite(formula, toks, func(tok string) (string, bool) {
		return newName, tok == oldName
	})
}

// ReplaceAll applies Replace to a copy of fields. It returns the rewritten
// copy and the number of fields that changed; the input is not modified.
func ReplaceAll(fields []Field, oldName, newName string) ([]Field, int) {
	out := make([]Field, len(fields))
	changed := 0
	for i, f := range fields {
		out[i] = f
		if s, ok := Replace(f.Formula, oldName, newName); ok {
			out[i].Formula = s
			changed++
		}
	}
	return out, changed
}

// RenameLabel rewrites derived variable names after a point is relabelled,
// so Line_A_B becomes Line_C_B when A is renamed to C.
func RenameLabel(formula, oldLabel, newLabel string) (string, bool) {
	if oldLabel == newLabel || !strings.Contains(formula, oldLabel) {
		return formula, false
	}
	toks, err := Tokens(formula)
	if err != nil {
		return formula, false
	}
	return rewrite(formula, toks, func(tok string) (string, bool) {
		return relabel(tok, oldLabel, newLabel)
	})
}

func relabel(name, oldLabel, newLabel string) (string, bool) {
	prefix := ""
	for _, p := range variable.BuiltinPrefixes {
		if strings.HasPrefix(name, p) && len(p) > len(prefix) {
			prefix = p
		}
	}
	if prefix == "" {
		return name, false
	}
	parts := strings.Split(strings.TrimPrefix(name, prefix), "_")
	changed := false
	for i, part := range parts {
		if part == oldLabel {
			parts[i] = newLabel
			changed = true
		}
	}
	if !changed {
		return name, false
	}
	return prefix + strings.Join(parts, "_"), true
}

// rewrite replaces tokens from the end of the formula backwards so earlier
// offsets stay valid.
func rewrite(formula string, toks map[int]string, replace func(string) (string, bool)) (string, bool) {
	positions := make([]int, 0, len(toks))
	for pos := range toks {
		positions = append(positions, pos)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))

	out := formula
	changed := false
	for _, pos := range positions {
		tok := toks[pos]
		repl, ok := replace(tok)
		if !ok {
			continue
		}
		out = out[:pos] + repl + out[pos+len(tok):]
		changed = true
	}
	return out, changed
}
