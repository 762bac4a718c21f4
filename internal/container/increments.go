// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package container

import (
	"fmt"
	"sort"

	"nickandperla.net/patterncalc/internal/variable"
)

var errBadOrder = fmt.Errorf("%w: order must list every row of the table once", ErrBadIdentifier)

// AddIncrement appends an increment to its table, the preview table when
// data.PreviewCalculation is set. The index is assigned by the container.
func (c *Container) AddIncrement(name string, data variable.IncrementData) (*variable.Variable, error) {
	name = trimName(name)
	if err := c.ValidateName(name); err != nil {
		return nil, err
	}
	data.Index = len(c.table(data.PreviewCalculation))
	h := c.insert(variable.NewIncrement(name, data))
	c.define(name, data.Formula)
	c.log.Debug().Str("increment", name).Str("formula", data.Formula).Msg("increment added")
	return &c.slots[h].v, nil
}

// AddSeparator appends a separator row. An empty name gets a generated one.
func (c *Container) AddSeparator(name, description string, preview bool) (*variable.Variable, error) {
	name = trimName(name)
	if name == "" {
		name = c.CustomName(DefaultSeparatorPrefix)
	}
	if err := c.ValidateName(name); err != nil {
		return nil, err
	}
	v := variable.NewSeparator(name, description, len(c.table(preview)))
	v.Increment().PreviewCalculation = preview
	h := c.insert(v)
	return &c.slots[h].v, nil
}

// AddMeasurement adds a body measurement. A measurement with a formula is
// computed from other measurements; otherwise its base value is used.
func (c *Container) AddMeasurement(name string, data variable.MeasurementData) (*variable.Variable, error) {
	name = trimName(name)
	if err := c.ValidateName(name); err != nil {
		return nil, err
	}
	data.Index = len(c.Variables(variable.Measurement))
	h := c.insert(variable.NewMeasurement(name, data))
	c.define(name, data.Formula)
	return &c.slots[h].v, nil
}

// SetMeasurementBase changes the base value of a measurement.
func (c *Container) SetMeasurementBase(name string, base float64) error {
	v, err := c.Variable(name, variable.Measurement)
	if err != nil {
		return err
	}
	v.Measurement().Base = base
	if v.Formula() == "" {
		v.SetValue(base)
	}
	c.deps.MarkDirty(name)
	return nil
}

// define records the formula of name in the dependency graph. Variables
// without a formula only need their dependents refreshed.
func (c *Container) define(name, formula string) {
	if formula == "" {
		c.deps.Remove(name)
		c.deps.MarkDirty(name)
		return
	}
	if err := c.deps.SetFormula(name, formula); err != nil {
		c.log.Debug().Str("variable", name).Err(err).Msg("formula does not parse")
	}
}

// SetFormula replaces the formula of an increment or measurement. The new
// value is computed on the next Recalculate.
func (c *Container) SetFormula(name, formula string) error {
	v, err := c.Variable(name, variable.Increment, variable.Measurement)
	if err != nil {
		return err
	}
	v.SetFormula(formula)
	if v.Kind() == variable.Measurement && formula == "" {
		v.SetValue(v.Measurement().Base)
	}
	c.define(name, formula)
	return nil
}

// SetDescription changes the description of an increment, separator or
// measurement.
func (c *Container) SetDescription(name, description string) error {
	v, err := c.Variable(name, variable.Increment, variable.Separator, variable.Measurement)
	if err != nil {
		return err
	}
	if inc := v.Increment(); inc != nil {
		inc.Description = description
	} else {
		v.Measurement().Description = description
	}
	return nil
}

// SetSpecialUnits marks an increment as measured in degrees.
func (c *Container) SetSpecialUnits(name string, special bool) error {
	v, err := c.Variable(name, variable.Increment)
	if err != nil {
		return err
	}
	v.Increment().SpecialUnits = special
	return nil
}

// Increments returns the rows of the increment table, or of the preview
// table, ordered by index. Separators are included.
func (c *Container) Increments(preview bool) []*variable.Variable {
	return c.table(preview)
}

// Measurements returns the measurements ordered by index.
func (c *Container) Measurements() []*variable.Variable {
	ms := c.Variables(variable.Measurement)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Measurement().Index < ms[j].Measurement().Index })
	return ms
}

func (c *Container) table(preview bool) []*variable.Variable {
	var rows []*variable.Variable
	for _, v := range c.Variables(variable.Increment, variable.Separator) {
		if v.Increment().PreviewCalculation == preview {
			rows = append(rows, v)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Increment().Index < rows[j].Increment().Index })
	return rows
}

// Move places the increment or separator name at position to of its table,
// shifting the rows in between. Out of range positions are clamped.
func (c *Container) Move(name string, to int) error {
	v, err := c.Variable(name, variable.Increment, variable.Separator)
	if err != nil {
		return err
	}
	rows := c.table(v.Increment().PreviewCalculation)
	from := v.Increment().Index
	for i, r := range rows {
		if r == v {
			from = i
		}
	}
	to = max(0, min(to, len(rows)-1))
	if from == to {
		return nil
	}
	rows = append(rows[:from], rows[from+1:]...)
	rows = append(rows[:to], append([]*variable.Variable{v}, rows[to:]...)...)
	reindex(rows)
	return nil
}

// MoveUp moves name one row towards the top of its table.
func (c *Container) MoveUp(name string) error {
	v, err := c.Variable(name, variable.Increment, variable.Separator)
	if err != nil {
		return err
	}
	return c.Move(name, v.Increment().Index-1)
}

// MoveDown moves name one row towards the bottom of its table.
func (c *Container) MoveDown(name string) error {
	v, err := c.Variable(name, variable.Increment, variable.Separator)
	if err != nil {
		return err
	}
	return c.Move(name, v.Increment().Index+1)
}

// Reorder sets the order of a table from a full list of its names.
func (c *Container) Reorder(preview bool, names []string) error {
	rows := c.table(preview)
	if len(names) != len(rows) {
		return errBadOrder
	}
	ordered := make([]*variable.Variable, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		v, err := c.Variable(n, variable.Increment, variable.Separator)
		if err != nil {
			return err
		}
		if v.Increment().PreviewCalculation != preview || seen[n] {
			return errBadOrder
		}
		seen[n] = true
		ordered = append(ordered, v)
	}
	reindex(ordered)
	return nil
}

func reindex(rows []*variable.Variable) {
	for i, r := range rows {
		r.Increment().Index = i
	}
}
