package variable

import (
	"math"
	"testing"

	"nickandperla.net/patterncalc/internal/geom"
)

func TestValueStorageIdentity(t *testing.T) {
	v := NewIncrement("#a", IncrementData{Formula: "1+1"})
	*v.ValuePtr() = 4.5
	if v.Value() != 4.5 {
		t.Errorf("expected write through ValuePtr to be visible, got %v", v.Value())
	}
	if v.IsEvaluable() {
		t.Error("expected a fresh increment to be not evaluable")
	}
	v.SetValue(2)
	if !v.IsEvaluable() || v.Value() != 2 {
		t.Errorf("expected evaluable 2, got %v (%v)", v.Value(), v.IsEvaluable())
	}
}

func TestLineVariables(t *testing.T) {
	a := geom.Point{X: 0, Y: 0, Label: "A"}
	b := geom.Point{X: 96, Y: 0, Label: "B"}

	length := NewLineLength(a, b, 1, 2, geom.Inch)
	if length.Name() != "Line_A_B" || length.Value() != 1 {
		t.Errorf("expected Line_A_B = 1, got %s = %v", length.Name(), length.Value())
	}
	angle := NewLineAngle(a, b, 1, 2)
	if angle.Name() != "AngleLine_A_B" || angle.Value() != 0 {
		t.Errorf("expected AngleLine_A_B = 0, got %s = %v", angle.Name(), angle.Value())
	}

	for _, v := range []Variable{length, angle} {
		if !v.Filter(1) || !v.Filter(2) {
			t.Errorf("%s: expected Filter true for both end points", v.Name())
		}
		if v.Filter(3) {
			t.Errorf("%s: expected Filter false for unrelated id", v.Name())
		}
	}
}

func TestCurveVariables(t *testing.T) {
	spl := geom.Spline{
		P1: geom.Point{Label: "A"}, C1: geom.Pt(10, 0),
		C2: geom.Pt(20, 0), P4: geom.Point{X: 30, Label: "B"},
	}
	length := NewCurveLength(spl, 7, 0, geom.Px)
	if length.Name() != "Spl_A_B" || math.Abs(length.Value()-30) > 1e-9 {
		t.Errorf("expected Spl_A_B = 30, got %s = %v", length.Name(), length.Value())
	}
	c1 := NewCurveCLength(spl, 7, 0, Start, geom.Px)
	if c1.Name() != "C1LengthSpl_A_B" || c1.Value() != 10 {
		t.Errorf("expected C1LengthSpl_A_B = 10, got %s = %v", c1.Name(), c1.Value())
	}
	end := NewCurveAngle(spl, 7, 0, Finish)
	if end.Name() != "Angle2Spl_A_B" || end.Value() != 180 {
		t.Errorf("expected Angle2Spl_A_B = 180, got %s = %v", end.Name(), end.Value())
	}
	if !length.Filter(7) || length.Filter(0) {
		t.Error("expected curve filter to match its own id only when no parent")
	}

	child := NewCurveLength(spl, 8, 7, geom.Px)
	if !child.Filter(7) || !child.Filter(8) {
		t.Error("expected derived curve to match both its id and parent id")
	}

	arc := geom.Arc{Center: geom.Point{Label: "C"}, Radius: 96, F1: 0, F2: 90}
	radius := NewArcRadius(arc, 9, 0, geom.Inch)
	if radius.Name() != "RadiusArc_C" || radius.Value() != 1 {
		t.Errorf("expected RadiusArc_C = 1, got %s = %v", radius.Name(), radius.Value())
	}
}

func TestSegmentVariables(t *testing.T) {
	spl := geom.Spline{P1: geom.Point{Label: "A"}, C1: geom.Pt(10, 0), C2: geom.Pt(20, 0), P4: geom.Point{X: 30, Label: "B"}}
	path := geom.SplinePath{Segments: []geom.Spline{spl, spl}}
	vars := NewSegmentVariables(path, 2, 5, 0, geom.Px)
	names := []string{"Seg_SplPath_A_B_2", "Angle1Seg_SplPath_A_B_2", "Angle2Seg_SplPath_A_B_2", "C1LengthSeg_SplPath_A_B_2", "C2LengthSeg_SplPath_A_B_2"}
	if len(vars) != len(names) {
		t.Fatalf("expected %d variables, got %d", len(names), len(vars))
	}
	for i, n := range names {
		if vars[i].Name() != n {
			t.Errorf("variable %d: expected '%s', got '%s'", i, n, vars[i].Name())
		}
	}
}

func TestPieceArea(t *testing.T) {
	sq := []geom.Point{geom.Pt(0, 0), geom.Pt(96, 0), geom.Pt(96, 96), geom.Pt(0, 96)}
	v := NewPieceArea("Front", 3, sq, ExternalArea, geom.Inch)
	if v.Name() != "PieceArea_Front" || v.Value() != 1 {
		t.Errorf("expected PieceArea_Front = 1, got %s = %v", v.Name(), v.Value())
	}
	if !v.Filter(3) || v.Filter(4) {
		t.Error("expected piece area to filter on piece id")
	}
	seam := NewPieceArea("Front", 3, sq, SeamLineArea, geom.Inch)
	if seam.Name() != "PieceSeamLineArea_Front" {
		t.Errorf("expected PieceSeamLineArea_Front, got %s", seam.Name())
	}
}

func TestAuthoringKindsNeverFilter(t *testing.T) {
	vars := []Variable{
		NewIncrement("#a", IncrementData{}),
		NewSeparator("#sep", "", 0),
		NewMeasurement("@m", MeasurementData{Base: 10}),
	}
	for _, v := range vars {
		if v.Filter(0) || v.Filter(1) {
			t.Errorf("%s: expected Filter false", v.Kind())
		}
	}
}

func TestHasBuiltinPrefix(t *testing.T) {
	if !HasBuiltinPrefix("Line_A_B") || !HasBuiltinPrefix("AngleLine_X") {
		t.Error("expected derived names to be reserved")
	}
	if HasBuiltinPrefix("#waist") || HasBuiltinPrefix("Lines") {
		t.Error("expected user names to be accepted")
	}
}
