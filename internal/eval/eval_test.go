package eval

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestEvalArithmetic(t *testing.T) {
	vars := Values{"A": 10, "B": 5}
	tests := []struct {
		formula string
		want    float64
	}{
		{"A+B*2", 20},
		{"(A+B)*2", 30},
		{"-2^2", -4},
		{"2^3^2", 512},
		{"2^-1", 0.5},
		{"A/B - 1", 1},
		{"42", 42},
		{"  -1.5e1 ", -15},
		{".5", 0.5},
		{"A > B", 1},
		{"A <= B", 0},
		{"A == 10 && B != 4", 1},
		{"0 || 0", 0},
		{"A > B ? A : B", 10},
		{"A < B ? A : B", 5},
		{"_pi", math.Pi},
	}
	for _, tc := range tests {
		got, err := Evaluate(tc.formula, vars, Config{})
		if err != nil {
			t.Errorf("Evaluate(%q) failed: %v", tc.formula, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Evaluate(%q): expected %v, got %v", tc.formula, tc.want, got)
		}
	}
}

func TestEvalFunctions(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"sin(0)", 0},
		{"cosD(60)", 0.5},
		{"asinD(1)", 90},
		{"degTorad(180)", math.Pi},
		{"radTodeg(_pi)", 180},
		{"atan2(1; 1)", math.Pi / 4},
		{"sqrt(16)", 4},
		{"log(1000)", 3},
		{"log2(8)", 3},
		{"ln(_e)", 1},
		{"abs(-3)", 3},
		{"sign(-0.2)", -1},
		{"rint(2.5)", 3},
		{"rint(-2.5)", -2},
		{"r2cm(1.24)", 1.2},
		{"fmod(7; 3)", 1},
		{"sum(1; 2; 3)", 6},
		{"avg(2; 4)", 3},
		{"min(3; 1; 2)", 1},
		{"max(3; 1; 2)", 3},
		{"csrCm(0; 1; 1)", 0},
	}
	for _, tc := range tests {
		got, err := Evaluate(tc.formula, nil, Config{})
		if err != nil {
			t.Errorf("Evaluate(%q) failed: %v", tc.formula, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Evaluate(%q): expected %v, got %v", tc.formula, tc.want, got)
		}
	}
}

func TestEvalInvalidResult(t *testing.T) {
	for _, f := range []string{"1/0", "sqrt(-1)", "1e400", "0/0"} {
		_, err := Evaluate(f, nil, Config{})
		if !errors.Is(err, ErrInvalidResult) {
			t.Errorf("Evaluate(%q): expected InvalidResult, got %v", f, err)
		}
	}
}

func TestEvalUnassignableToken(t *testing.T) {
	_, err := Evaluate("unknownVar+1", Values{}, Config{})
	if !errors.Is(err, ErrUnassignableToken) {
		t.Fatalf("expected UnassignableToken, got %v", err)
	}
	var ferr *FormulaError
	if !errors.As(err, &ferr) || ferr.Token != "unknownVar" || ferr.Pos != 0 {
		t.Errorf("expected token 'unknownVar' at 0, got %+v", ferr)
	}
}

func TestEvalPlaceholderSigil(t *testing.T) {
	// An undefined custom measurement is a NaN placeholder, so the result is
	// a definite InvalidResult rather than an unknown name.
	_, err := Evaluate("@hips*2", Values{}, Config{Sigils: DefaultSigils})
	if !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected InvalidResult, got %v", err)
	}
	got, err := Evaluate("1 ? 3 : @hips", Values{}, Config{Sigils: DefaultSigils})
	if err != nil || got != 3 {
		t.Errorf("expected 3 from the taken branch, got %v (%v)", got, err)
	}
	_, err = Evaluate("@hips*2", Values{}, Config{})
	if !errors.Is(err, ErrUnassignableToken) {
		t.Errorf("expected UnassignableToken without sigils, got %v", err)
	}
}

func TestEvalParseErrors(t *testing.T) {
	for _, f := range []string{"", "1+", "sum()", "sin(1; 2)", "nosuch(1)", `"text"`, "max(1, 2)", `warning(1; 2)`,
		"1 ? 2 : nosuch(1)", "0 ? sin(1;2) : 3", "0 && max()", `1 ? 2 : "x"`, `1 || warning(1; 2)`} {
		_, err := Evaluate(f, nil, Config{})
		if !errors.Is(err, ErrParse) {
			t.Errorf("Evaluate(%q): expected ParseError, got %v", f, err)
		}
	}
}

func TestEvalNumberLiterals(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20000; i++ {
		var n float64
		switch i % 3 {
		case 0:
			n = rng.NormFloat64() * math.Pow(10, float64(rng.Intn(40)-20))
		case 1:
			n = float64(rng.Int63n(1_000_000)) / 100
		default:
			n = math.Float64frombits(rng.Uint64())
			if math.IsNaN(n) || math.IsInf(n, 0) {
				continue
			}
		}
		for _, format := range []byte{'g', 'e', 'f'} {
			s := strconv.FormatFloat(n, format, -1, 64)
			got, err := Evaluate(s, nil, Config{})
			if err != nil || got != n {
				t.Fatalf("Evaluate(%q): expected %v, got %v (%v)", s, n, got, err)
			}
		}
	}
}

func TestEvalWarning(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	ev := New(WithLogger(log))
	got, err := ev.EvalWith(`warning("seam too wide"; 4)`, nil)
	if err != nil || got != 4 {
		t.Fatalf("expected lenient warning to pass 4 through, got %v (%v)", got, err)
	}
	if !strings.Contains(buf.String(), "seam too wide") {
		t.Errorf("expected warning to be logged, got %q", buf.String())
	}

	strict := New(WithPedantic(true))
	_, err = strict.EvalWith(`warning("seam too wide"; 4)`, nil)
	if !errors.Is(err, ErrWarning) {
		t.Fatalf("expected Warning error, got %v", err)
	}
	if !strings.Contains(err.Error(), "seam too wide") {
		t.Errorf("expected message in error, got %v", err)
	}
}

func TestEvalDoesNotMutateLookup(t *testing.T) {
	vars := Values{"a": 2}
	for i := 0; i < 3; i++ {
		got, err := Evaluate("a*a + a", vars, Config{})
		if err != nil || got != 6 {
			t.Fatalf("expected 6, got %v (%v)", got, err)
		}
	}
	if vars["a"] != 2 || len(vars) != 1 {
		t.Errorf("expected lookup unchanged, got %v", vars)
	}
}

func TestCheck(t *testing.T) {
	ev := New()
	if _, err := ev.Check("  ", nil, CheckOptions{}); !errors.Is(err, ErrParse) {
		t.Errorf("expected empty formula to be a ParseError, got %v", err)
	}
	if _, err := ev.Check("1-1", nil, CheckOptions{Zero: true}); !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected zero check to fail, got %v", err)
	}
	if _, err := ev.Check("1-2", nil, CheckOptions{LessThanZero: true}); !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected negative check to fail, got %v", err)
	}
	if v, err := ev.Check("1-2", nil, CheckOptions{Zero: true}); err != nil || v != -1 {
		t.Errorf("expected -1, got %v (%v)", v, err)
	}
}

func TestReserved(t *testing.T) {
	for _, n := range []string{"sin", "sum", "warning", "_pi", "csrInch"} {
		if !Reserved(n) {
			t.Errorf("expected %s to be reserved", n)
		}
	}
	if Reserved("waist") {
		t.Error("expected waist not to be reserved")
	}
	fns := Functions()
	if len(fns) == 0 || fns[0] > fns[len(fns)-1] {
		t.Errorf("expected sorted function list, got %v", fns)
	}
}
