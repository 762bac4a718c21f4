package eval

import "strings"

// CheckOptions adds domain checks on top of evaluation, for formulas that
// feed lengths or counts.
type CheckOptions struct {
	Zero         bool // reject 0
	LessThanZero bool // reject negative results
}

// Check evaluates formula and applies the requested result checks.
func (e *Evaluator) Check(formula string, vars Lookup, opts CheckOptions) (float64, error) {
	if strings.TrimSpace(formula) == "" {
		return 0, &FormulaError{Code: CodeParse, Formula: formula, Msg: "formula is empty"}
	}
	v, err := e.EvalWith(formula, vars)
	if err != nil {
		return 0, err
	}
	switch {
	case opts.Zero && v == 0:
		return 0, &FormulaError{Code: CodeInvalidResult, Formula: formula, Msg: "result is zero"}
	case opts.LessThanZero && v < 0:
		return 0, &FormulaError{Code: CodeInvalidResult, Formula: formula, Msg: "result is less than zero"}
	}
	return v, nil
}
