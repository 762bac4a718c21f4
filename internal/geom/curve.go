// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package geom

import (
	"fmt"
	"math"
)

// Curve is a named pattern curve that exposes length and end tangents.
type Curve interface {
	Name() string
	Length() float64
	StartAngle() float64
	EndAngle() float64
}

// Bezier is a curve with control handles at both ends.
type Bezier interface {
	Curve
	C1Length() float64
	C2Length() float64
}

// Arc is a circular arc from angle F1 to F2 counter-clockwise.
type Arc struct {
	Center Point
	Radius float64
	F1, F2 float64
	Label  string
}

// Name returns the label, or Arc_<center> when none was assigned.
func (a Arc) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return "Arc_" + a.Center.Label
}

// Sweep returns the arc extent in degrees, in (0, 360].
func (a Arc) Sweep() float64 {
	s := math.Mod(a.F2-a.F1, 360)
	if s < 0 {
		s += 360
	}
	if s == 0 && a.F1 != a.F2 {
		s = 360
	}
	return s
}

func (a Arc) Length() float64     { return degToRad(a.Sweep()) * a.Radius }
func (a Arc) StartAngle() float64 { return a.F1 }
func (a Arc) EndAngle() float64   { return a.F2 }

// EllipticalArc is an arc of an ellipse rotated by Rotation degrees.
type EllipticalArc struct {
	Center           Point
	Radius1, Radius2 float64
	F1, F2, Rotation float64
	Label            string
}

func (e EllipticalArc) Name() string {
	if e.Label != "" {
		return e.Label
	}
	return "ElArc_" + e.Center.Label
}

func (e EllipticalArc) StartAngle() float64 { return math.Mod(e.F1+e.Rotation, 360) }
func (e EllipticalArc) EndAngle() float64   { return math.Mod(e.F2+e.Rotation, 360) }

// Length integrates the arc numerically.
func (e EllipticalArc) Length() float64 {
	sweep := Arc{F1: e.F1, F2: e.F2}.Sweep()
	const steps = 720
	var sum float64
	prev := e.at(e.F1)
	for i := 1; i <= steps; i++ {
		p := e.at(e.F1 + sweep*float64(i)/steps)
		sum += Distance(prev, p)
		prev = p
	}
	return sum
}

func (e EllipticalArc) at(deg float64) Point {
	t := degToRad(deg)
	x := e.Radius1 * math.Cos(t)
	y := e.Radius2 * math.Sin(t)
	r := degToRad(e.Rotation)
	// y axis points down on screen
	return Point{
		X: e.Center.X + x*math.Cos(r) - y*math.Sin(r),
		Y: e.Center.Y - (x*math.Sin(r) + y*math.Cos(r)),
	}
}

// Spline is a cubic Bézier from P1 to P4 with controls C1 and C2.
type Spline struct {
	P1, C1, C2, P4 Point
	Label          string
}

// Name returns the label, or Spl_<first>_<last> when none was assigned.
func (s Spline) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("Spl_%s_%s", s.P1.Label, s.P4.Label)
}

func (s Spline) StartAngle() float64 { return Line{s.P1, s.C1}.Angle() }
func (s Spline) EndAngle() float64   { return Line{s.P4, s.C2}.Angle() }
func (s Spline) C1Length() float64   { return Distance(s.P1, s.C1) }
func (s Spline) C2Length() float64   { return Distance(s.P4, s.C2) }

// Length approximates the arc length by adaptive subdivision.
func (s Spline) Length() float64 {
	return bezierLength(s.P1, s.C1, s.C2, s.P4, 0)
}

func bezierLength(p0, p1, p2, p3 Point, depth int) float64 {
	chord := Distance(p0, p3)
	poly := Distance(p0, p1) + Distance(p1, p2) + Distance(p2, p3)
	if poly-chord < 1e-7 || depth >= 24 {
		return (chord + poly) / 2
	}
	// de Casteljau split at t = 0.5
	a := p0.lerp(p1, 0.5)
	b := p1.lerp(p2, 0.5)
	c := p2.lerp(p3, 0.5)
	d := a.lerp(b, 0.5)
	e := b.lerp(c, 0.5)
	m := d.lerp(e, 0.5)
	return bezierLength(p0, a, d, m, depth+1) + bezierLength(m, e, c, p3, depth+1)
}

// SplinePath is a chain of splines sharing end points.
type SplinePath struct {
	Segments []Spline
	Label    string
}

// Name returns the label, or SplPath_<first>_<last> when none was assigned.
func (p SplinePath) Name() string {
	if p.Label != "" {
		return p.Label
	}
	if len(p.Segments) == 0 {
		return "SplPath"
	}
	return fmt.Sprintf("SplPath_%s_%s", p.Segments[0].P1.Label, p.Segments[len(p.Segments)-1].P4.Label)
}

func (p SplinePath) Length() float64 {
	var sum float64
	for _, s := range p.Segments {
		sum += s.Length()
	}
	return sum
}

func (p SplinePath) StartAngle() float64 {
	if len(p.Segments) == 0 {
		return 0
	}
	return p.Segments[0].StartAngle()
}

func (p SplinePath) EndAngle() float64 {
	if len(p.Segments) == 0 {
		return 0
	}
	return p.Segments[len(p.Segments)-1].EndAngle()
}

func (p SplinePath) C1Length() float64 {
	if len(p.Segments) == 0 {
		return 0
	}
	return p.Segments[0].C1Length()
}

func (p SplinePath) C2Length() float64 {
	if len(p.Segments) == 0 {
		return 0
	}
	return p.Segments[len(p.Segments)-1].C2Length()
}
