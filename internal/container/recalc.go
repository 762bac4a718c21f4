// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package container

import (
	"errors"

	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/graph"
	"nickandperla.net/patterncalc/internal/variable"
)

// Failure is a variable whose formula could not be evaluated.
type Failure struct {
	Name string
	Err  error
}

// Recalculate evaluates the dirty formulas and everything depending on
// them, in dependency order, then clears the dirty set. Variables that fail
// are flagged not evaluable and reported; the rest are still computed.
func (c *Container) Recalculate(ev *eval.Evaluator) []Failure {
	dirty := c.deps.Dirty()
	if len(dirty) == 0 {
		return nil
	}
	return c.recalculate(ev, dirty)
}

// RecalculateAll evaluates every formula of the container.
func (c *Container) RecalculateAll(ev *eval.Evaluator) []Failure {
	var names []string
	for _, f := range c.Formulas() {
		names = append(names, f.Attr)
	}
	for _, m := range c.Variables(variable.Measurement) {
		names = append(names, m.Name())
	}
	return c.recalculate(ev, names)
}

func (c *Container) recalculate(ev *eval.Evaluator, names []string) []Failure {
	order, err := c.deps.Order(names...)

	var failures []Failure
	var cerr *graph.CycleError
	if errors.As(err, &cerr) {
		for _, name := range cerr.Blocked {
			if v, err := c.Variable(name); err == nil {
				v.SetEvaluable(false)
			}
			failures = append(failures, Failure{Name: name, Err: cerr})
		}
		c.log.Warn().Strs("path", cerr.Path).Int("blocked", len(cerr.Blocked)).Msg("dependency cycle")
	}

	for _, name := range order {
		v, err := c.Variable(name, variable.Increment, variable.Measurement)
		if err != nil {
			continue
		}
		if err := c.evaluate(ev, v); err != nil {
			failures = append(failures, Failure{Name: name, Err: err})
		}
	}
	c.deps.ClearDirty()
	return failures
}

// evaluate computes one variable in the scope its table allows.
func (c *Container) evaluate(ev *eval.Evaluator, v *variable.Variable) error {
	scope := ScopeIncrements
	switch {
	case v.Kind() == variable.Measurement:
		if v.Formula() == "" {
			v.SetValue(v.Measurement().Base)
			return nil
		}
		scope = ScopeMeasurements
	case v.Increment().PreviewCalculation:
		scope = ScopeAll
	}

	x, err := ev.EvalWith(v.Formula(), c.View(scope))
	if err != nil {
		v.SetEvaluable(false)
		c.log.Debug().Str("variable", v.Name()).Err(err).Msg("evaluation failed")
		return err
	}
	v.SetValue(x)
	return nil
}
