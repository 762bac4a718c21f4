// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package variable defines the named values formulas can refer to.
//
// A Variable is a closed variant selected by Kind. Geometric kinds are
// derived from pattern objects and carry the ids of the objects they hang
// off; increments and measurements carry authoring data.
package variable

import (
	"strings"
)

// Kind selects the variant of a Variable.
type Kind int

const (
	Increment Kind = iota
	Separator
	Measurement
	LineLength
	LineAngle
	CurveLength
	CurveAngle
	CurveToControlLength
	ArcRadius
	PieceArea
	Unknown
)

var kindNames = [...]string{
	Increment:            "increment",
	Separator:            "separator",
	Measurement:          "measurement",
	LineLength:           "line-length",
	LineAngle:            "line-angle",
	CurveLength:          "curve-length",
	CurveAngle:           "curve-angle",
	CurveToControlLength: "curve-control-length",
	ArcRadius:            "arc-radius",
	PieceArea:            "piece-area",
	Unknown:              "unknown",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Geometric reports whether the kind is derived from pattern geometry.
func (k Kind) Geometric() bool {
	switch k {
	case LineLength, LineAngle, CurveLength, CurveAngle, CurveToControlLength, ArcRadius, PieceArea:
		return true
	}
	return false
}

// Owner identifies the pattern objects a geometric variable was derived from.
// Zero ids are unset.
type Owner struct {
	ID       uint32
	ParentID uint32
	P1       uint32
	P2       uint32
}

// IncrementData is the authoring data of an increment or separator row.
type IncrementData struct {
	Formula            string
	Description        string
	Index              int
	PreviewCalculation bool
	SpecialUnits       bool // value is in degrees rather than the pattern unit
}

// MeasurementData is the authoring data of a body measurement.
type MeasurementData struct {
	Base        float64
	Formula     string // optional, overrides Base once evaluated
	FullName    string
	Description string
	Index       int
}

// Variable is a named numeric value. A Variable is owned by its container;
// pointers returned by the container stay valid until the next mutation.
type Variable struct {
	kind      Kind
	name      string
	alias     string
	value     float64
	evaluable bool
	owner     Owner
	inc       *IncrementData
	meas      *MeasurementData
}

// Kind returns the variant tag.
func (v *Variable) Kind() Kind { return v.kind }

// Name returns the unique name formulas use to refer to the variable.
func (v *Variable) Name() string { return v.name }

// SetName changes the name. Callers must keep the container index in sync.
func (v *Variable) SetName(name string) { v.name = name }

// Alias returns the secondary name, if any.
func (v *Variable) Alias() string { return v.alias }

// SetAlias sets the secondary name.
func (v *Variable) SetAlias(alias string) { v.alias = alias }

// Value returns the current value.
func (v *Variable) Value() float64 { return v.value }

// ValuePtr returns the storage cell backing Value. Writes through it are
// visible through Value.
func (v *Variable) ValuePtr() *float64 { return &v.value }

// SetValue stores a value and marks the variable evaluable.
func (v *Variable) SetValue(x float64) {
	v.value = x
	v.evaluable = true
}

// IsEvaluable reports whether the last evaluation produced a usable value.
func (v *Variable) IsEvaluable() bool { return v.evaluable }

// SetEvaluable flags the variable as usable or not.
func (v *Variable) SetEvaluable(ok bool) { v.evaluable = ok }

// Owner returns the geometric ownership ids.
func (v *Variable) Owner() Owner { return v.owner }

// Increment returns the increment data, or nil for other kinds.
func (v *Variable) Increment() *IncrementData { return v.inc }

// Measurement returns the measurement data, or nil for other kinds.
func (v *Variable) Measurement() *MeasurementData { return v.meas }

// Formula returns the formula text backing the value, if any.
func (v *Variable) Formula() string {
	switch {
	case v.inc != nil:
		return v.inc.Formula
	case v.meas != nil:
		return v.meas.Formula
	}
	return ""
}

// SetFormula replaces the formula of an increment or measurement. It is a
// no-op for derived kinds.
func (v *Variable) SetFormula(formula string) {
	switch {
	case v.inc != nil:
		v.inc.Formula = formula
	case v.meas != nil:
		v.meas.Formula = formula
	}
}

// Clone returns a deep copy.
func (v *Variable) Clone() Variable {
	c := *v
	if v.inc != nil {
		inc := *v.inc
		c.inc = &inc
	}
	if v.meas != nil {
		m := *v.meas
		c.meas = &m
	}
	return c
}

// Filter reports whether the variable depends on the pattern object id.
func (v *Variable) Filter(id uint32) bool {
	if f, ok := filters[v.kind]; ok {
		return f(v.owner, id)
	}
	return false
}

var filters = map[Kind]func(Owner, uint32) bool{
	LineLength:           byEndPoint,
	LineAngle:            byEndPoint,
	CurveLength:          byCurve,
	CurveAngle:           byCurve,
	CurveToControlLength: byCurve,
	ArcRadius:            byCurve,
	PieceArea:            func(o Owner, id uint32) bool { return o.ID == id },
}

func byEndPoint(o Owner, id uint32) bool {
	return id == o.P1 || id == o.P2
}

func byCurve(o Owner, id uint32) bool {
	if id == o.ID {
		return true
	}
	return o.ParentID != 0 && id == o.ParentID
}

// New builds a bare variable of the given kind, used for fixed values and
// restoring persisted rows.
func New(kind Kind, name string, value float64) Variable {
	return Variable{kind: kind, name: name, value: value, evaluable: true}
}

// NewIncrement builds an increment row. Its value is unset until evaluated.
func NewIncrement(name string, data IncrementData) Variable {
	return Variable{kind: Increment, name: name, inc: &data}
}

// NewSeparator builds a table separator row. Separators carry no value.
func NewSeparator(name, description string, index int) Variable {
	return Variable{kind: Separator, name: name, inc: &IncrementData{Description: description, Index: index}}
}

// NewMeasurement builds a body measurement holding its base value.
func NewMeasurement(name string, data MeasurementData) Variable {
	return Variable{kind: Measurement, name: name, value: data.Base, evaluable: true, meas: &data}
}

// Reserved name prefixes of derived variables. User names may not start
// with any of them.
var BuiltinPrefixes = []string{
	"Line_", "AngleLine_", "Arc_", "ElArc_", "Spl_", "SplPath", "Seg_",
	"RadiusArc_", "Radius1ElArc_", "Radius2ElArc_",
	"Angle1Arc_", "Angle2Arc_", "Angle1ElArc_", "Angle2ElArc_",
	"Angle1Spl_", "Angle2Spl_", "Angle1SplPath", "Angle2SplPath",
	"C1LengthSpl_", "C2LengthSpl_", "C1LengthSplPath", "C2LengthSplPath",
	"RotationElArc_", "PieceArea_", "PieceSeamLineArea_",
	"CurrentLength", "CurrentSeamAllowance", "M_", "Increment_",
}

// HasBuiltinPrefix reports whether name collides with a derived-variable
// prefix.
func HasBuiltinPrefix(name string) bool {
	for _, p := range BuiltinPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
