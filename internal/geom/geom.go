// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package geom provides the planar geometry behind pattern variables.
//
// Coordinates are in device pixels at PrintDPI with the y axis pointing
// down, matching the drawing scene. Angles are degrees, counter-clockwise
// from the positive x axis as seen on screen, in [0, 360).
package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PrintDPI is the resolution the internal pixel unit is defined against.
const PrintDPI = 96.0

// ErrDegenerate is returned in pedantic mode when a construction has no
// well defined result, such as a line between coincident points.
var ErrDegenerate = errors.New("degenerate geometry")

// Unit is a pattern measurement unit.
type Unit int

const (
	Cm Unit = iota
	Mm
	Inch
	Px
)

// ParseUnit converts a unit name to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm", "":
		return Cm, nil
	case "mm":
		return Mm, nil
	case "inch", "in":
		return Inch, nil
	case "px":
		return Px, nil
	}
	return Cm, fmt.Errorf("unknown unit %q", s)
}

func (u Unit) String() string {
	switch u {
	case Mm:
		return "mm"
	case Inch:
		return "inch"
	case Px:
		return "px"
	}
	return "cm"
}

// FromPixel converts a pixel distance to the unit.
func FromPixel(px float64, u Unit) float64 {
	switch u {
	case Mm:
		return px / PrintDPI * 25.4
	case Cm:
		return px / PrintDPI * 2.54
	case Inch:
		return px / PrintDPI
	}
	return px
}

// ToPixel converts a distance in the unit to pixels.
func ToPixel(v float64, u Unit) float64 {
	switch u {
	case Mm:
		return v / 25.4 * PrintDPI
	case Cm:
		return v / 2.54 * PrintDPI
	case Inch:
		return v * PrintDPI
	}
	return v
}

// Point is a labelled pattern point.
type Point struct {
	X, Y  float64
	Label string
}

// Pt returns an unlabelled point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) add(q Point) Point     { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) sub(q Point) Point     { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }
func (p Point) lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Line is a directed segment from P1 to P2.
type Line struct {
	P1, P2 Point
}

// IsNull reports whether both end points coincide.
func (l Line) IsNull() bool {
	return fuzzyIsNull(l.P2.X-l.P1.X) && fuzzyIsNull(l.P2.Y-l.P1.Y)
}

// Length returns the length of the line in pixels.
func (l Line) Length() float64 {
	return Distance(l.P1, l.P2)
}

// Angle returns the direction of the line. A null line has angle 0.
func (l Line) Angle() float64 {
	dx := l.P2.X - l.P1.X
	dy := l.P2.Y - l.P1.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	theta := radToDeg(math.Atan2(-dy, dx))
	if theta < 0 {
		theta += 360
	}
	if fuzzyCompare(theta, 360) {
		return 0
	}
	return theta
}

// SetAngle rotates P2 around P1 keeping the length.
func (l *Line) SetAngle(deg float64) {
	length := l.Length()
	rad := degToRad(deg)
	l.P2 = Point{X: l.P1.X + math.Cos(rad)*length, Y: l.P1.Y - math.Sin(rad)*length}
}

// SetLength moves P2 along the line direction. A null line is unchanged.
func (l *Line) SetLength(length float64) {
	cur := l.Length()
	if cur == 0 {
		return
	}
	l.P2 = l.P1.add(l.P2.sub(l.P1).scale(length / cur))
}

// Intersect returns the crossing point of the two infinite lines.
// ok is false for parallel lines.
func (l Line) Intersect(o Line) (p Point, ok bool) {
	a := l.P2.sub(l.P1)
	b := o.P1.sub(o.P2)
	c := l.P1.sub(o.P1)
	denom := a.Y*b.X - a.X*b.Y
	if denom == 0 || math.IsInf(denom, 0) || math.IsNaN(denom) {
		return Point{}, false
	}
	na := (b.Y*c.X - b.X*c.Y) / denom
	return l.P1.add(a.scale(na)), true
}

// AngleTo returns the counter-clockwise angle from l to o.
func (l Line) AngleTo(o Line) float64 {
	if l.IsNull() || o.IsNull() {
		return 0
	}
	delta := o.Angle() - l.Angle()
	if delta < 0 {
		delta += 360
	}
	if fuzzyCompare(delta, 360) {
		return 0
	}
	return delta
}

// RoundAngle rounds an angle to five decimals and folds 360 back to 0 so
// directions that only differ by floating point noise compare equal.
func RoundAngle(deg float64) float64 {
	r := math.Round(deg*1e5) / 1e5
	if r >= 360 || r == 0 {
		return 0
	}
	return r
}

// PolygonArea returns the unsigned area of a closed polygon in pixels².
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

func fuzzyIsNull(d float64) bool {
	return math.Abs(d) <= 1e-12
}

func fuzzyCompare(a, b float64) bool {
	return math.Abs(a-b)*1e12 <= math.Min(math.Abs(a), math.Abs(b))
}
