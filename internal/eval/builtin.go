package eval

import (
	"fmt"
	"math"
	"sort"

	"nickandperla.net/patterncalc/internal/geom"
)

// variadic marks a builtin that accepts any number of arguments >= min.
const variadic = -1

// BuiltinFunc is the signature for builtin numeric functions.
type BuiltinFunc func(args []float64) (float64, error)

type builtin struct {
	min, max int
	fn       BuiltinFunc
}

// warningFunc takes a message string and is handled by the evaluator.
const warningFunc = "warning"

var constants = map[string]float64{
	"_pi": math.Pi,
	"_e":  math.E,
}

var builtins = map[string]builtin{
	"degTorad": unary(func(x float64) float64 { return x * math.Pi / 180 }),
	"radTodeg": unary(func(x float64) float64 { return x * 180 / math.Pi }),

	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"atan2": binary(math.Atan2),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"asinh": unary(math.Asinh),
	"acosh": unary(math.Acosh),
	"atanh": unary(math.Atanh),

	"sinD":  unary(func(x float64) float64 { return math.Sin(x * math.Pi / 180) }),
	"cosD":  unary(func(x float64) float64 { return math.Cos(x * math.Pi / 180) }),
	"tanD":  unary(func(x float64) float64 { return math.Tan(x * math.Pi / 180) }),
	"asinD": unary(func(x float64) float64 { return math.Asin(x) * 180 / math.Pi }),
	"acosD": unary(func(x float64) float64 { return math.Acos(x) * 180 / math.Pi }),
	"atanD": unary(func(x float64) float64 { return math.Atan(x) * 180 / math.Pi }),

	"log2":  unary(math.Log2),
	"log10": unary(math.Log10),
	"log":   unary(math.Log10),
	"ln":    unary(math.Log),
	"exp":   unary(math.Exp),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"sign":  unary(sign),
	"rint":  unary(rint),
	"r2cm":  unary(func(x float64) float64 { return rint(x*10) / 10 }),
	"fmod":  binary(math.Mod),

	"csrCm":   ternary(geom.CSRCm),
	"csrInch": ternary(geom.CSRInch),

	"sum": {min: 1, max: variadic, fn: func(a []float64) (float64, error) {
		var s float64
		for _, v := range a {
			s += v
		}
		return s, nil
	}},
	"avg": {min: 1, max: variadic, fn: func(a []float64) (float64, error) {
		var s float64
		for _, v := range a {
			s += v
		}
		return s / float64(len(a)), nil
	}},
	"min": {min: 1, max: variadic, fn: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"max": {min: 1, max: variadic, fn: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},

	warningFunc: {min: 2, max: 2},
}

func unary(f func(float64) float64) builtin {
	return builtin{min: 1, max: 1, fn: func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func binary(f func(float64, float64) float64) builtin {
	return builtin{min: 2, max: 2, fn: func(a []float64) (float64, error) { return f(a[0], a[1]), nil }}
}

func ternary(f func(float64, float64, float64) float64) builtin {
	return builtin{min: 3, max: 3, fn: func(a []float64) (float64, error) { return f(a[0], a[1], a[2]), nil }}
}

func sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func rint(v float64) float64 {
	return math.Floor(v + 0.5)
}

// getBuiltin returns the builtin for the given name.
func getBuiltin(name string) (builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

func (b builtin) checkArity(name string, n int) error {
	switch {
	case n < b.min:
		return fmt.Errorf("too few arguments for function %s", name)
	case b.max != variadic && n > b.max:
		return fmt.Errorf("too many arguments for function %s", name)
	}
	return nil
}

// IsFunction reports whether name is a builtin function.
func IsFunction(name string) bool {
	_, ok := builtins[name]
	return ok
}

// IsConstant reports whether name is a builtin constant.
func IsConstant(name string) bool {
	_, ok := constants[name]
	return ok
}

// Reserved reports whether name belongs to the formula language itself.
func Reserved(name string) bool {
	return IsFunction(name) || IsConstant(name)
}

// Functions returns the builtin function names in sorted order.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
