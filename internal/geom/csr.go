// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package geom

import "math"

const csrMaxIterations = 1000

// CSR solves the cut, split and rotate construction: a piece of the given
// length is cut, moved apart by split and rotated so the gap forms an arc of
// arcLength. It returns the rotation angle in degrees, or 0 when no solution
// exists. All distances are pixels.
func CSR(length, split, arcLength float64) float64 {
	length = math.Abs(length)
	arcLength = math.Abs(arcLength)
	if fuzzyIsNull(length) || fuzzyIsNull(split) || fuzzyIsNull(arcLength) {
		return 0
	}
	sign := math.Copysign(1, split)

	line := Line{Pt(0, 0), Pt(0, length)}

	tmp := line
	tmp.SetAngle(tmp.Angle() + 90*sign)
	tmp.SetLength(split)
	p1 := tmp.P2

	tmp = Line{Pt(0, length), Pt(0, 0)}
	tmp.SetAngle(tmp.Angle() - 90*sign)
	tmp.SetLength(split)
	p2 := tmp.P2

	line2 := Line{p1, p2}
	tolerance := (0.5 / 25.4) * PrintDPI

	angle := 180.0
	arcL := float64(math.MaxInt32)
	for i := 0; i < csrMaxIterations; i++ {
		switch {
		case arcL > arcLength:
			angle -= angle / 2
		case arcL < arcLength:
			angle += angle / 2
		default:
			return angle
		}
		if angle < 0.00001 || angle >= 360 {
			return 0
		}

		tmp = line2
		tmp.SetAngle(tmp.Angle() + angle*sign)
		cross, ok := line.Intersect(tmp)
		if !ok {
			return 0
		}
		radius := Line{cross, tmp.P2}
		var arcAngle float64
		if sign > 0 {
			arcAngle = line.AngleTo(radius)
		} else {
			arcAngle = radius.AngleTo(line)
		}
		arcL = math.Pi * radius.Length() / 180 * arcAngle
		if math.Abs(arcL-arcLength) <= tolerance {
			return angle
		}
	}
	return 0
}

// CSRCm runs CSR with arguments in centimetres.
func CSRCm(length, split, arcLength float64) float64 {
	return CSR(ToPixel(length, Cm), ToPixel(split, Cm), ToPixel(arcLength, Cm))
}

// CSRInch runs CSR with arguments in inches.
func CSRInch(length, split, arcLength float64) float64 {
	return CSR(ToPixel(length, Inch), ToPixel(split, Inch), ToPixel(arcLength, Inch))
}
