// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package variable

import (
	"strconv"

	"nickandperla.net/patterncalc/internal/geom"
)

// End selects one end of a curve.
type End int

const (
	Start End = iota + 1
	Finish
)

func (e End) prefix() string {
	if e == Finish {
		return "2"
	}
	return "1"
}

// LineName returns the conventional length variable name of a line.
func LineName(p1, p2 string) string { return "Line_" + p1 + "_" + p2 }

// LineAngleName returns the conventional angle variable name of a line.
func LineAngleName(p1, p2 string) string { return "AngleLine_" + p1 + "_" + p2 }

// NewLineLength measures the segment between two points in the pattern unit.
func NewLineLength(p1, p2 geom.Point, p1ID, p2ID uint32, unit geom.Unit) Variable {
	v := New(LineLength, LineName(p1.Label, p2.Label), geom.FromPixel(geom.Distance(p1, p2), unit))
	v.owner = Owner{P1: p1ID, P2: p2ID}
	return v
}

// NewLineAngle records the direction from p1 to p2, rounded so that points
// which coincide by construction give exactly 0.
func NewLineAngle(p1, p2 geom.Point, p1ID, p2ID uint32) Variable {
	v := New(LineAngle, LineAngleName(p1.Label, p2.Label), geom.RoundAngle(geom.Line{P1: p1, P2: p2}.Angle()))
	v.owner = Owner{P1: p1ID, P2: p2ID}
	return v
}

// NewCurveLength measures a curve in the pattern unit.
func NewCurveLength(c geom.Curve, id, parentID uint32, unit geom.Unit) Variable {
	v := New(CurveLength, c.Name(), geom.FromPixel(c.Length(), unit))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// NewCurveAngle records the tangent direction at one end of a curve.
func NewCurveAngle(c geom.Curve, id, parentID uint32, end End) Variable {
	angle := c.StartAngle()
	if end == Finish {
		angle = c.EndAngle()
	}
	v := New(CurveAngle, "Angle"+end.prefix()+c.Name(), geom.RoundAngle(angle))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// NewCurveCLength measures the control handle at one end of a Bézier curve.
func NewCurveCLength(c geom.Bezier, id, parentID uint32, end End, unit geom.Unit) Variable {
	length := c.C1Length()
	if end == Finish {
		length = c.C2Length()
	}
	v := New(CurveToControlLength, "C"+end.prefix()+"Length"+c.Name(), geom.FromPixel(length, unit))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// NewArcRadius records the radius of a circular arc.
func NewArcRadius(a geom.Arc, id, parentID uint32, unit geom.Unit) Variable {
	v := New(ArcRadius, "Radius"+a.Name(), geom.FromPixel(a.Radius, unit))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// NewEllipticalRadius records one of the two radii of an elliptical arc.
func NewEllipticalRadius(e geom.EllipticalArc, id, parentID uint32, end End, unit geom.Unit) Variable {
	r := e.Radius1
	if end == Finish {
		r = e.Radius2
	}
	v := New(ArcRadius, "Radius"+end.prefix()+e.Name(), geom.FromPixel(r, unit))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// NewRotation records the rotation of an elliptical arc.
func NewRotation(e geom.EllipticalArc, id, parentID uint32) Variable {
	v := New(CurveAngle, "Rotation"+e.Name(), geom.RoundAngle(e.Rotation))
	v.owner = Owner{ID: id, ParentID: parentID}
	return v
}

// SegmentName returns the name a path segment's variables are built on.
func SegmentName(path string, segment int) string {
	return "Seg_" + path + "_" + strconv.Itoa(segment)
}

// segmentCurve renames a spline to its path segment name.
type segmentCurve struct {
	geom.Spline
	name string
}

func (s segmentCurve) Name() string { return s.name }

// NewSegmentVariables derives the length, end angles and control lengths of
// segment n (1-based) of a spline path.
func NewSegmentVariables(path geom.SplinePath, n int, id, parentID uint32, unit geom.Unit) []Variable {
	seg := segmentCurve{Spline: path.Segments[n-1], name: SegmentName(path.Name(), n)}
	return []Variable{
		NewCurveLength(seg, id, parentID, unit),
		NewCurveAngle(seg, id, parentID, Start),
		NewCurveAngle(seg, id, parentID, Finish),
		NewCurveCLength(seg, id, parentID, Start, unit),
		NewCurveCLength(seg, id, parentID, Finish, unit),
	}
}

// AreaKind selects which outline of a piece an area is measured on.
type AreaKind int

const (
	ExternalArea AreaKind = iota
	SeamLineArea
)

// NewPieceArea measures a piece outline in square pattern units.
func NewPieceArea(piece string, pieceID uint32, outline []geom.Point, area AreaKind, unit geom.Unit) Variable {
	name := "PieceArea_" + piece
	if area == SeamLineArea {
		name = "PieceSeamLineArea_" + piece
	}
	px := geom.PolygonArea(outline)
	// Convert one dimension at a time.
	value := geom.FromPixel(geom.FromPixel(px, unit), unit)
	v := New(PieceArea, name, value)
	v.owner = Owner{ID: pieceID}
	return v
}
