package container

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/usage"
	"nickandperla.net/patterncalc/internal/variable"
)

func mustIncrement(t *testing.T, c *Container, name, formula string) {
	t.Helper()
	if _, err := c.AddIncrement(name, variable.IncrementData{Formula: formula}); err != nil {
		t.Fatalf("AddIncrement(%s) failed: %v", name, err)
	}
}

func TestRemoveGuardedByUsage(t *testing.T) {
	c := New()
	mustIncrement(t, c, "@inc1", "3")
	corpus := []usage.Field{{OwnerID: 7, Attr: "length", Formula: "@inc1*2"}}

	err := c.Remove("@inc1", corpus)
	if !errors.Is(err, ErrVariableInUse) {
		t.Fatalf("expected VariableInUse, got %v", err)
	}
	var inUse *InUseError
	if !errors.As(err, &inUse) || len(inUse.Users) != 1 || inUse.Users[0].OwnerID != 7 {
		t.Errorf("expected owner 7 to be reported, got %+v", inUse)
	}
	if c.IsUnique("@inc1") {
		t.Error("expected @inc1 to survive a refused removal")
	}

	corpus[0].Formula = "5*2"
	if err := c.Remove("@inc1", corpus); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !c.IsUnique("@inc1") {
		t.Error("expected @inc1 to be unique after removal")
	}
}

func TestRemoveSubstringOnly(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	mustIncrement(t, c, "#ab", "2")
	// #ab contains #a only as a substring.
	corpus := []usage.Field{{OwnerID: 1, Formula: "#ab + 1"}}
	if err := c.Remove("#a", corpus); err != nil {
		t.Errorf("expected removal to succeed, got %v", err)
	}
}

func TestRemoveBlockedByOwnFormula(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	mustIncrement(t, c, "#b", "#a*2")
	if err := c.Remove("#a", nil); !errors.Is(err, ErrVariableInUse) {
		t.Errorf("expected VariableInUse from #b, got %v", err)
	}
}

func TestIsUnique(t *testing.T) {
	c := New()
	if !c.IsUnique("#waist") {
		t.Fatal("expected empty container to accept #waist")
	}
	mustIncrement(t, c, "#waist", "1")
	if c.IsUnique("#waist") {
		t.Error("expected #waist taken after insert")
	}
	if c.IsUnique("sin") || c.IsUnique("_pi") {
		t.Error("expected builtin names to be reserved")
	}
	if _, err := c.AddIncrement("#waist", variable.IncrementData{}); !errors.Is(err, ErrNotUnique) {
		t.Errorf("expected ErrNotUnique, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	c := New()
	for _, name := range []string{"", "1abc", "a b", "Line_A_B", "a+b"} {
		if err := c.ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
	if err := c.ValidateName("sum"); !errors.Is(err, ErrNotUnique) {
		t.Errorf("expected function name to be taken, got %v", err)
	}
}

func TestVariableBadIdentifier(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	if _, err := c.Variable("#missing"); !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("expected BadIdentifier for missing name, got %v", err)
	}
	if _, err := c.Variable("#a", variable.Measurement); !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("expected BadIdentifier for wrong kind, got %v", err)
	}
	if v, err := c.Variable("#a", variable.Increment); err != nil || v.Name() != "#a" {
		t.Errorf("expected #a, got %v (%v)", v, err)
	}
}

func TestCustomName(t *testing.T) {
	c := New()
	first := c.CustomName(DefaultIncrementPrefix)
	if first != "@custom_increment_1" {
		t.Fatalf("expected @custom_increment_1, got %s", first)
	}
	mustIncrement(t, c, first, "1")
	mustIncrement(t, c, "@custom_increment_3", "1")
	if got := c.CustomName(DefaultIncrementPrefix); got != "@custom_increment_2" {
		t.Errorf("expected @custom_increment_2, got %s", got)
	}
	mustIncrement(t, c, "@custom_increment_2", "1")
	if got := c.CustomName(DefaultIncrementPrefix); got != "@custom_increment_4" {
		t.Errorf("expected @custom_increment_4, got %s", got)
	}
}

func TestRename(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "2")
	mustIncrement(t, c, "#b", "#a*3 + #ab")
	mustIncrement(t, c, "#ab", "1")
	corpus := []usage.Field{{OwnerID: 4, Formula: "#a/2"}, {OwnerID: 5, Formula: "#ab"}}

	res, out, err := c.Rename("#a", "#width", corpus)
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if res.Name != "#width" || !res.Literal || res.Rewritten != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if out[0].Formula != "#width/2" || out[1].Formula != "#ab" {
		t.Errorf("unexpected corpus %+v", out)
	}
	if corpus[0].Formula != "#a/2" {
		t.Errorf("expected input corpus untouched, got %q", corpus[0].Formula)
	}
	b, _ := c.Variable("#b")
	if b.Formula() != "#width*3 + #ab" {
		t.Errorf("expected own formula rewritten, got %q", b.Formula())
	}
	if !c.IsUnique("#a") || c.IsUnique("#width") {
		t.Error("expected name index updated")
	}

	// Round trip restores every formula.
	_, back, err := c.Rename("#width", "#a", out)
	if err != nil {
		t.Fatalf("Rename back failed: %v", err)
	}
	if back[0].Formula != corpus[0].Formula {
		t.Errorf("expected %q, got %q", corpus[0].Formula, back[0].Formula)
	}
	b, _ = c.Variable("#b")
	if b.Formula() != "#a*3 + #ab" {
		t.Errorf("expected own formula restored, got %q", b.Formula())
	}
}

func TestRenameDisambiguates(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	mustIncrement(t, c, "#b", "2")
	mustIncrement(t, c, "#b_2", "3")

	res, _, err := c.Rename("#a", "#b", nil)
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if res.Name != "#b_3" || res.Literal {
		t.Errorf("expected non-literal #b_3, got %+v", res)
	}
}

func TestRenameRejected(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")

	e := c.BeginRename("#a", "Line_A_B")
	if e.State() != Editing {
		t.Fatalf("expected editing state, got %s", e.State())
	}
	if err := c.Apply(e, nil); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if e.State() != Rejected || e.Err() == nil {
		t.Errorf("expected rejected edit, got %s", e.State())
	}
	if err := c.Apply(e, nil); err == nil {
		t.Error("expected closed edit to refuse a second apply")
	}
	if c.IsUnique("#a") {
		t.Error("expected #a untouched")
	}

	if _, _, err := c.Rename("#nope", "#x", nil); !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("expected BadIdentifier, got %v", err)
	}
}

func TestRenameEmptyGeneratesName(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	res, _, err := c.Rename("#a", "  ", nil)
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if res.Name != "@custom_increment_1" || res.Literal {
		t.Errorf("expected generated name, got %+v", res)
	}
}

func TestRecalculate(t *testing.T) {
	c := New()
	if _, err := c.AddMeasurement("waist", variable.MeasurementData{Base: 80}); err != nil {
		t.Fatalf("AddMeasurement failed: %v", err)
	}
	mustIncrement(t, c, "#half", "waist/2")
	mustIncrement(t, c, "#quarter", "#half/2")
	ev := eval.New()

	if failures := c.Recalculate(ev); len(failures) != 0 {
		t.Fatalf("unexpected failures %+v", failures)
	}
	q, _ := c.Variable("#quarter")
	if q.Value() != 20 || !q.IsEvaluable() {
		t.Errorf("expected 20, got %v", q.Value())
	}

	if err := c.SetMeasurementBase("waist", 100); err != nil {
		t.Fatalf("SetMeasurementBase failed: %v", err)
	}
	c.Recalculate(ev)
	q, _ = c.Variable("#quarter")
	if q.Value() != 25 {
		t.Errorf("expected 25 after change, got %v", q.Value())
	}
}

func TestRecalculateScopes(t *testing.T) {
	c := New()
	c.AddMeasurement("waist", variable.MeasurementData{Base: 80})
	mustIncrement(t, c, "#ease", "2")
	c.AddMeasurement("hip", variable.MeasurementData{Formula: "waist + #ease"})
	c.AddIncrement("#scratch", variable.IncrementData{Formula: "#ease*10", PreviewCalculation: true})
	mustIncrement(t, c, "#bad", "#scratch + 1")

	failures := c.Recalculate(eval.New())
	failed := make(map[string]error)
	for _, f := range failures {
		failed[f.Name] = f.Err
	}
	if !errors.Is(failed["hip"], eval.ErrUnassignableToken) {
		t.Errorf("expected measurement formula unable to read increments, got %v", failed["hip"])
	}
	if !errors.Is(failed["#bad"], eval.ErrUnassignableToken) {
		t.Errorf("expected increment unable to read preview calculation, got %v", failed["#bad"])
	}
	s, _ := c.Variable("#scratch")
	if s.Value() != 20 {
		t.Errorf("expected preview to read increments, got %v", s.Value())
	}
}

func TestRecalculateCycle(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "#b+1")
	mustIncrement(t, c, "#b", "#a+1")
	mustIncrement(t, c, "#c", "3")

	failures := c.Recalculate(eval.New())
	if len(failures) != 2 {
		t.Fatalf("expected two blocked variables, got %+v", failures)
	}
	a, _ := c.Variable("#a")
	if a.IsEvaluable() {
		t.Error("expected #a flagged not evaluable")
	}
	cv, _ := c.Variable("#c")
	if cv.Value() != 3 {
		t.Errorf("expected #c computed, got %v", cv.Value())
	}
}

func TestGeometry(t *testing.T) {
	c := New(WithUnit(geom.Cm))
	a := geom.Point{X: 0, Y: 0, Label: "A"}
	b := geom.Point{X: geom.ToPixel(10, geom.Cm), Y: 0, Label: "B"}
	if err := c.AddLine(a, b, 1, 2); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}
	mustIncrement(t, c, "#len", "Line_A_B*2")
	c.Recalculate(eval.New())
	l, _ := c.Variable("#len")
	if math.Abs(l.Value()-20) > 1e-9 {
		t.Errorf("expected 20, got %v", l.Value())
	}

	// Moving B updates the line in place and its readers on recalc.
	b.X = geom.ToPixel(5, geom.Cm)
	if err := c.AddLine(a, b, 1, 2); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}
	c.Recalculate(eval.New())
	l, _ = c.Variable("#len")
	if math.Abs(l.Value()-10) > 1e-9 {
		t.Errorf("expected 10 after move, got %v", l.Value())
	}

	angle, err := c.Variable("AngleLine_A_B", variable.LineAngle)
	if err != nil || angle.Value() != 0 {
		t.Errorf("expected angle 0, got %v (%v)", angle, err)
	}

	if n := len(c.Candidates(2)); n != 1 {
		t.Errorf("expected only #len offered to an object on line A_B, got %d", n)
	}

	if n := c.RemoveDerived(2); n != 2 {
		t.Errorf("expected 2 line variables removed, got %d", n)
	}
	failures := c.Recalculate(eval.New())
	if len(failures) != 1 || !errors.Is(failures[0].Err, eval.ErrUnassignableToken) {
		t.Errorf("expected stale reference to fail, got %+v", failures)
	}
}

func TestDegenerateLine(t *testing.T) {
	p := geom.Point{X: 1, Y: 1, Label: "A"}
	q := geom.Point{X: 1, Y: 1, Label: "B"}

	var buf bytes.Buffer
	lenient := New(WithLogger(zerolog.New(&buf)))
	if err := lenient.AddLine(p, q, 1, 2); err != nil {
		t.Fatalf("expected lenient AddLine to pass, got %v", err)
	}
	if !strings.Contains(buf.String(), "degenerate geometry") {
		t.Errorf("expected warning logged, got %q", buf.String())
	}

	strict := New(WithPedantic(true))
	if err := strict.AddLine(p, q, 1, 2); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("expected ErrDegenerate, got %v", err)
	}
}

func TestCurves(t *testing.T) {
	c := New()
	arc := geom.Arc{Center: geom.Point{Label: "O"}, Radius: geom.ToPixel(2, geom.Cm), F1: 0, F2: 90}
	if err := c.AddArc(arc, 10, 0); err != nil {
		t.Fatalf("AddArc failed: %v", err)
	}
	r, err := c.Variable("RadiusArc_O", variable.ArcRadius)
	if err != nil || math.Abs(r.Value()-2) > 1e-9 {
		t.Errorf("expected radius 2, got %v (%v)", r, err)
	}

	el := geom.EllipticalArc{
		Center:  geom.Point{Label: "O"},
		Radius1: geom.ToPixel(2, geom.Cm), Radius2: geom.ToPixel(2, geom.Cm),
		F1: 0, F2: 90, Rotation: 30,
	}
	if err := c.AddEllipticalArc(el, 30, 0); err != nil {
		t.Fatalf("AddEllipticalArc failed: %v", err)
	}
	elTests := []struct {
		name string
		want float64
		tol  float64
	}{
		{"ElArc_O", math.Pi, 1e-3},
		{"Radius1ElArc_O", 2, 1e-9},
		{"Radius2ElArc_O", 2, 1e-9},
		{"RotationElArc_O", 30, 1e-9},
		{"Angle1ElArc_O", 30, 1e-9},
		{"Angle2ElArc_O", 120, 1e-9},
	}
	for _, tc := range elTests {
		v, err := c.Variable(tc.name)
		if err != nil {
			t.Errorf("expected %s, got %v", tc.name, err)
			continue
		}
		if math.Abs(v.Value()-tc.want) > tc.tol {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, v.Value())
		}
		if !v.Filter(30) {
			t.Errorf("%s: expected filter to match its arc", tc.name)
		}
	}

	flat := el
	flat.Radius2 = 0
	if err := New(WithPedantic(true)).AddEllipticalArc(flat, 31, 0); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("expected ErrDegenerate for a zero radius, got %v", err)
	}
	if err := New().AddEllipticalArc(flat, 31, 0); err != nil {
		t.Errorf("expected lenient AddEllipticalArc to pass, got %v", err)
	}

	s := geom.Spline{
		P1: geom.Point{Label: "A"}, C1: geom.Pt(10, 0),
		C2: geom.Pt(90, 0), P4: geom.Point{X: 100, Label: "B"},
	}
	path := geom.SplinePath{Segments: []geom.Spline{s, s}}
	if err := c.AddSplinePath(path, 20, 0); err != nil {
		t.Fatalf("AddSplinePath failed: %v", err)
	}
	if _, err := c.Variable(variable.SegmentName(path.Name(), 2)); err != nil {
		t.Errorf("expected segment 2 variables, got %v", err)
	}

	c.ClearForFullParse()
	if c.Len() != 0 {
		t.Errorf("expected geometric variables cleared, got %d left", c.Len())
	}
}

func TestClearForFullParseKeepsMeasurements(t *testing.T) {
	c := New()
	c.AddMeasurement("waist", variable.MeasurementData{Base: 80})
	mustIncrement(t, c, "#a", "1")
	c.AddSeparator("", "section", false)
	c.ClearForFullParse()
	if _, err := c.Variable("waist"); err != nil {
		t.Errorf("expected measurement kept, got %v", err)
	}
	if !c.IsUnique("#a") {
		t.Error("expected increment cleared")
	}
}

func TestMoveAndReorder(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "1")
	mustIncrement(t, c, "#b", "2")
	if _, err := c.AddSeparator("", "section", false); err != nil {
		t.Fatalf("AddSeparator failed: %v", err)
	}
	mustIncrement(t, c, "#c", "3")

	names := func() string {
		var out []string
		for _, v := range c.Increments(false) {
			out = append(out, v.Name())
		}
		return strings.Join(out, ",")
	}
	if got := names(); got != "#a,#b,@separator_1,#c" {
		t.Fatalf("unexpected order %s", got)
	}
	if err := c.Move("#c", 0); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := names(); got != "#c,#a,#b,@separator_1" {
		t.Errorf("unexpected order after Move %s", got)
	}
	c.MoveDown("#c")
	c.MoveUp("@separator_1")
	if got := names(); got != "#a,#c,@separator_1,#b" {
		t.Errorf("unexpected order after MoveUp/MoveDown %s", got)
	}
	if err := c.Reorder(false, []string{"#a", "#b"}); err == nil {
		t.Error("expected partial reorder to fail")
	}
	if err := c.Reorder(false, []string{"#b", "#a", "#c", "@separator_1"}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	c.Remove("#a", nil)
	if got := names(); got != "#b,#c,@separator_1" {
		t.Errorf("unexpected order after removal %s", got)
	}
	for i, v := range c.Increments(false) {
		if v.Increment().Index != i {
			t.Errorf("expected contiguous index %d, got %d", i, v.Increment().Index)
		}
	}
}

func TestRenameLabel(t *testing.T) {
	c := New()
	mustIncrement(t, c, "#a", "Line_A_B/2")
	out, n := c.RenameLabel("A", "C", []usage.Field{{OwnerID: 9, Formula: "AngleLine_B_A"}})
	if n != 2 || out[0].Formula != "AngleLine_B_C" {
		t.Errorf("unexpected result %d %+v", n, out)
	}
	v, _ := c.Variable("#a")
	if v.Formula() != "Line_C_B/2" {
		t.Errorf("expected own formula relabelled, got %q", v.Formula())
	}
}

func TestNamespace(t *testing.T) {
	a, b := New(), New()
	if a.Namespace() == "" || a.Namespace() == b.Namespace() {
		t.Errorf("expected distinct namespaces, got %q and %q", a.Namespace(), b.Namespace())
	}
	if got := New(WithNamespace("fixed")).Namespace(); got != "fixed" {
		t.Errorf("expected restored namespace, got %q", got)
	}
}
