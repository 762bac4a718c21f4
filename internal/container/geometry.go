// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package container

import (
	"fmt"

	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/variable"
)

// addDerived stores a geometric variable. Re-adding a name of the same kind
// updates the value in place, which is how geometry changes propagate.
func (c *Container) addDerived(v variable.Variable) error {
	if h, ok := c.byName[v.Name()]; ok {
		old := &c.slots[h].v
		if old.Kind() != v.Kind() {
			return fmt.Errorf("%w: %q is already a %s", ErrNotUnique, v.Name(), old.Kind())
		}
		*old = v
	} else {
		c.insert(v)
	}
	c.deps.MarkDirty(v.Name())
	return nil
}

func (c *Container) addAll(vs ...variable.Variable) error {
	for _, v := range vs {
		if err := c.addDerived(v); err != nil {
			return err
		}
	}
	return nil
}

// degenerate either fails or logs, depending on pedantic mode.
func (c *Container) degenerate(what, name string) error {
	if c.pedantic {
		return fmt.Errorf("%s %s: %w", what, name, geom.ErrDegenerate)
	}
	c.log.Warn().Str(what, name).Msg("degenerate geometry")
	return nil
}

// AddLine registers the length and angle of the line from p1 to p2.
func (c *Container) AddLine(p1, p2 geom.Point, p1ID, p2ID uint32) error {
	if (geom.Line{P1: p1, P2: p2}).IsNull() {
		if err := c.degenerate("line", variable.LineName(p1.Label, p2.Label)); err != nil {
			return err
		}
	}
	return c.addAll(
		variable.NewLineLength(p1, p2, p1ID, p2ID, c.unit),
		variable.NewLineAngle(p1, p2, p1ID, p2ID),
	)
}

// AddArc registers the length, end angles and radius of a circular arc.
func (c *Container) AddArc(a geom.Arc, id, parentID uint32) error {
	if a.Radius <= 0 {
		if err := c.degenerate("arc", a.Name()); err != nil {
			return err
		}
	}
	return c.addAll(
		variable.NewCurveLength(a, id, parentID, c.unit),
		variable.NewCurveAngle(a, id, parentID, variable.Start),
		variable.NewCurveAngle(a, id, parentID, variable.Finish),
		variable.NewArcRadius(a, id, parentID, c.unit),
	)
}

// AddEllipticalArc registers an elliptical arc: length, end angles, both
// radii and rotation.
func (c *Container) AddEllipticalArc(e geom.EllipticalArc, id, parentID uint32) error {
	if e.Radius1 <= 0 || e.Radius2 <= 0 {
		if err := c.degenerate("arc", e.Name()); err != nil {
			return err
		}
	}
	return c.addAll(
		variable.NewCurveLength(e, id, parentID, c.unit),
		variable.NewCurveAngle(e, id, parentID, variable.Start),
		variable.NewCurveAngle(e, id, parentID, variable.Finish),
		variable.NewEllipticalRadius(e, id, parentID, variable.Start, c.unit),
		variable.NewEllipticalRadius(e, id, parentID, variable.Finish, c.unit),
		variable.NewRotation(e, id, parentID),
	)
}

// AddSpline registers the length, end angles and control lengths of a
// cubic spline.
func (c *Container) AddSpline(s geom.Spline, id, parentID uint32) error {
	return c.addAll(bezierVariables(s, id, parentID, c.unit)...)
}

// AddSplinePath registers a spline path and each of its segments.
func (c *Container) AddSplinePath(p geom.SplinePath, id, parentID uint32) error {
	if len(p.Segments) == 0 {
		return c.degenerate("path", p.Name())
	}
	if err := c.addAll(bezierVariables(p, id, parentID, c.unit)...); err != nil {
		return err
	}
	for n := 1; n <= len(p.Segments); n++ {
		if err := c.addAll(variable.NewSegmentVariables(p, n, id, parentID, c.unit)...); err != nil {
			return err
		}
	}
	return nil
}

func bezierVariables(b geom.Bezier, id, parentID uint32, unit geom.Unit) []variable.Variable {
	return []variable.Variable{
		variable.NewCurveLength(b, id, parentID, unit),
		variable.NewCurveAngle(b, id, parentID, variable.Start),
		variable.NewCurveAngle(b, id, parentID, variable.Finish),
		variable.NewCurveCLength(b, id, parentID, variable.Start, unit),
		variable.NewCurveCLength(b, id, parentID, variable.Finish, unit),
	}
}

// AddPieceArea registers the area of a piece outline.
func (c *Container) AddPieceArea(piece string, id uint32, outline []geom.Point, area variable.AreaKind) error {
	if len(outline) < 3 {
		if err := c.degenerate("piece", piece); err != nil {
			return err
		}
	}
	return c.addDerived(variable.NewPieceArea(piece, id, outline, area, c.unit))
}

// RemoveDerived drops the geometric variables of pattern object id: curve
// variables it owns and lines ending at it. It returns how many were
// removed. Formulas reading them are marked for recalculation.
func (c *Container) RemoveDerived(id uint32) int {
	removed := 0
	for i := range c.slots {
		s := &c.slots[i]
		if !s.used || !s.v.Kind().Geometric() {
			continue
		}
		o := s.v.Owner()
		if o.ID != id && o.P1 != id && o.P2 != id {
			continue
		}
		c.deps.MarkDirty(s.v.Name())
		c.release(Handle(i))
		removed++
	}
	return removed
}

// ClearVariables removes every variable of the given kinds. With no kinds,
// or with Unknown among them, everything is removed.
func (c *Container) ClearVariables(kinds ...variable.Kind) {
	want := kindSet(kinds)
	if want == nil {
		c.Clear()
		return
	}
	for i := range c.slots {
		s := &c.slots[i]
		if !s.used || !want[s.v.Kind()] {
			continue
		}
		c.deps.Remove(s.v.Name())
		c.release(Handle(i))
	}
}

// ClearForFullParse drops everything a full document parse rebuilds:
// increments, separators and all geometric variables. Measurements stay.
func (c *Container) ClearForFullParse() {
	c.log.Debug().Msg("clearing container for full parse")
	c.ClearVariables(
		variable.Increment, variable.Separator,
		variable.LineLength, variable.LineAngle,
		variable.CurveLength, variable.CurveAngle, variable.CurveToControlLength,
		variable.ArcRadius, variable.PieceArea,
	)
}
