// Package runtime implements the tree-walking interpreter and runtime value
// system for Lox.
package runtime

import (
	"strconv"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NilVal represents the absence of a value.
type NilVal struct{}

func (v NilVal) TypeName() string { return "nil" }
func (v NilVal) String() string   { return "nil" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NumberVal represents a Lox number: IEEE-754 double precision, no separate
// integer type.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }

// String prints integral-valued numbers without a trailing ".0" and every
// other number in standard floating-point form.
func (v NumberVal) String() string {
	f := float64(v)
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// ---- Truthiness & equality ----

// IsTruthy reports Lox truthiness: nil and false are falsey, everything else
// (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case nil, NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// IsEqual implements Lox's structural equality: nil equals only nil; numbers,
// strings and bools compare by value; everything else (functions, classes,
// instances) compares by identity.
func IsEqual(a, b Value) bool {
	_, aNil := a.(NilVal)
	_, bNil := b.(NilVal)
	if aNil || bNil {
		return aNil && bNil
	}
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	default:
		return a == b
	}
}

// Stringify renders a value the way 'print' writes it to stdout.
func Stringify(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}

