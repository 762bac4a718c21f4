// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package graph tracks which formula-backed variables depend on which names
// and orders their evaluation.
package graph

import (
	"errors"
	"sort"
	"strings"

	"nickandperla.net/patterncalc/internal/usage"
)

// ErrCycle matches any *CycleError.
var ErrCycle = errors.New("dependency cycle")

// CycleError reports formulas that reference themselves through a chain of
// other formulas. Path is one such chain, first name repeated at the end.
// Blocked lists every name that cannot be ordered: the cycle members and
// everything depending on them.
type CycleError struct {
	Path    []string
	Blocked []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

type node struct {
	formula    string
	defined    bool // has a formula of its own, as opposed to a leaf name
	precedents map[string]struct{}
	dependents map[string]struct{}
	dirty      bool
}

// Graph is a name-level dependency graph. Edges point from a formula to the
// names it reads. The zero value is not usable; call New.
type Graph struct {
	nodes map[string]*node
	dirty map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
		dirty: make(map[string]struct{}),
	}
}

func (g *Graph) getOrCreate(name string) *node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &node{
		precedents: make(map[string]struct{}),
		dependents: make(map[string]struct{}),
	}
	g.nodes[name] = n
	return n
}

// SetFormula defines name by formula, replacing any previous definition,
// and marks it dirty. A formula that does not parse is kept with no
// precedents; the parse error is returned so callers can report it.
func (g *Graph) SetFormula(name, formula string) error {
	deps, err := usage.Names(formula)
	g.Define(name, formula, deps)
	return err
}

// Define sets the formula text and precedents of name directly.
func (g *Graph) Define(name, formula string, precedents []string) {
	n := g.getOrCreate(name)
	g.clearPrecedents(name, n)
	n.formula = formula
	n.defined = true
	for _, p := range precedents {
		pn := g.getOrCreate(p)
		n.precedents[p] = struct{}{}
		pn.dependents[name] = struct{}{}
	}
	g.MarkDirty(name)
}

func (g *Graph) clearPrecedents(name string, n *node) {
	for p := range n.precedents {
		if pn, ok := g.nodes[p]; ok {
			delete(pn.dependents, name)
			g.cleanup(p)
		}
	}
	n.precedents = make(map[string]struct{})
}

// Remove drops the definition of name. Formulas that still read name keep
// their edge to it, so name remains as a leaf when it has dependents.
func (g *Graph) Remove(name string) {
	n, ok := g.nodes[name]
	if !ok {
		return
	}
	g.clearPrecedents(name, n)
	n.defined = false
	n.formula = ""
	delete(g.dirty, name)
	n.dirty = false
	g.cleanup(name)
}

// cleanup removes a node that has neither a formula nor dependents.
func (g *Graph) cleanup(name string) {
	n, ok := g.nodes[name]
	if !ok || n.defined || len(n.dependents) > 0 {
		return
	}
	delete(g.nodes, name)
	delete(g.dirty, name)
}

// Rename moves the node of oldName, with all its edges, to newName.
// Dependents are updated to point at the new name. Formula text is not
// rewritten here.
func (g *Graph) Rename(oldName, newName string) {
	n, ok := g.nodes[oldName]
	if !ok || oldName == newName {
		return
	}
	if existing, ok := g.nodes[newName]; ok {
		// newName was a dangling leaf; inherit its dependents.
		for d := range existing.dependents {
			n.dependents[d] = struct{}{}
		}
	}
	delete(g.nodes, oldName)
	g.nodes[newName] = n
	for p := range n.precedents {
		if pn, ok := g.nodes[p]; ok {
			delete(pn.dependents, oldName)
			pn.dependents[newName] = struct{}{}
		}
	}
	for d := range n.dependents {
		if dn, ok := g.nodes[d]; ok {
			delete(dn.precedents, oldName)
			dn.precedents[newName] = struct{}{}
		}
	}
	if _, ok := g.dirty[oldName]; ok {
		delete(g.dirty, oldName)
		g.dirty[newName] = struct{}{}
	}
}

// Formula returns the formula name was defined with.
func (g *Graph) Formula(name string) (string, bool) {
	n, ok := g.nodes[name]
	if !ok || !n.defined {
		return "", false
	}
	return n.formula, true
}

// Defined reports whether name has a formula in the graph.
func (g *Graph) Defined(name string) bool {
	n, ok := g.nodes[name]
	return ok && n.defined
}

// Precedents returns the names name reads, sorted.
func (g *Graph) Precedents(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return sortedKeys(n.precedents)
}

// Dependents returns the formulas that read name directly, sorted.
func (g *Graph) Dependents(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return sortedKeys(n.dependents)
}

// Affected returns names together with everything that transitively
// depends on them, sorted.
func (g *Graph) Affected(names ...string) []string {
	seen := make(map[string]struct{})
	var walk func(string)
	walk = func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		if n, ok := g.nodes[name]; ok {
			for d := range n.dependents {
				walk(d)
			}
		}
	}
	for _, name := range names {
		walk(name)
	}
	return sortedKeys(seen)
}

// MarkDirty flags name for recalculation.
func (g *Graph) MarkDirty(name string) {
	g.dirty[name] = struct{}{}
	if n, ok := g.nodes[name]; ok {
		n.dirty = true
	}
}

// Dirty returns the names flagged for recalculation, sorted.
func (g *Graph) Dirty() []string {
	return sortedKeys(g.dirty)
}

// IsDirty reports whether name is flagged for recalculation.
func (g *Graph) IsDirty(name string) bool {
	_, ok := g.dirty[name]
	return ok
}

// ClearDirty resets every dirty flag.
func (g *Graph) ClearDirty() {
	g.dirty = make(map[string]struct{})
	for _, n := range g.nodes {
		n.dirty = false
	}
}

// Len returns the number of defined nodes.
func (g *Graph) Len() int {
	count := 0
	for _, n := range g.nodes {
		if n.defined {
			count++
		}
	}
	return count
}

// Clear removes every node.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*node)
	g.dirty = make(map[string]struct{})
}

// Order returns defined names in evaluation order: every formula comes
// after the formulas it reads. With no arguments all defined names are
// ordered; otherwise only the given names and their dependents are.
//
// When some formulas form a cycle the remaining names are still ordered
// and returned together with a *CycleError.
func (g *Graph) Order(names ...string) ([]string, error) {
	var want map[string]struct{}
	if len(names) > 0 {
		want = make(map[string]struct{})
		for _, n := range g.Affected(names...) {
			want[n] = struct{}{}
		}
	}

	sccs := g.components()

	blocked := make(map[string]struct{})
	var path []string
	for _, scc := range sccs {
		if len(scc) == 1 {
			n := g.nodes[scc[0]]
			if _, self := n.precedents[scc[0]]; !self {
				continue
			}
		}
		if path == nil {
			path = g.cyclePath(scc)
		}
		for _, name := range g.Affected(scc...) {
			blocked[name] = struct{}{}
		}
	}

	var order []string
	for _, scc := range sccs {
		for _, name := range scc {
			if !g.nodes[name].defined {
				continue
			}
			if _, ok := blocked[name]; ok {
				continue
			}
			if want != nil {
				if _, ok := want[name]; !ok {
					continue
				}
			}
			order = append(order, name)
		}
	}

	if path == nil {
		return order, nil
	}
	var out []string
	for _, name := range sortedKeys(blocked) {
		if want != nil {
			if _, ok := want[name]; !ok {
				continue
			}
		}
		if g.nodes[name] != nil && g.nodes[name].defined {
			out = append(out, name)
		}
	}
	if want != nil && len(out) == 0 {
		return order, nil
	}
	return order, &CycleError{Path: path, Blocked: out}
}

// components returns the strongly connected components in an order where
// every component comes after the components it reads.
func (g *Graph) components() [][]string {
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var out [][]string
	next := 0

	var strong func(string)
	strong = func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range sortedKeys(g.nodes[v].precedents) {
			if _, seen := index[w]; !seen {
				strong(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			out = append(out, scc)
		}
	}

	for _, name := range sortedKeys(g.nodes) {
		if _, seen := index[name]; !seen {
			strong(name)
		}
	}
	return out
}

// cyclePath walks precedents inside scc from its first member back to
// itself.
func (g *Graph) cyclePath(scc []string) []string {
	members := make(map[string]struct{}, len(scc))
	for _, s := range scc {
		members[s] = struct{}{}
	}
	start := scc[0]
	visited := make(map[string]bool)
	var path []string
	var dfs func(string) bool
	dfs = func(v string) bool {
		path = append(path, v)
		visited[v] = true
		for _, w := range sortedKeys(g.nodes[v].precedents) {
			if _, ok := members[w]; !ok {
				continue
			}
			if w == start {
				path = append(path, start)
				return true
			}
			if !visited[w] && dfs(w) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	dfs(start)
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
