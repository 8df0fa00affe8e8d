package matcher

import (
	"strconv"
	"strings"
)

// Kind identifies the type carried by a Value.
type Kind int

const (
	// KindString is a plain string value (file stems, regex captures, untyped template fields).
	KindString Kind = iota
	// KindInt is an integer produced by a typed template field such as {n:d}.
	KindInt
	// KindFloat is a floating point number produced by {x:f} or {x:g}.
	KindFloat
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Value is a sort key. It is either a string or a typed number.
//
// Ordering policy: two numeric values compare numerically; every other
// combination compares the decimal/string forms lexically.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// IntValue wraps an integer.
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// FloatValue wraps a float.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Kind reports the type of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// String returns the plain textual form of the value.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// Repr returns the value the way it is shown in reports: strings quoted,
// numbers bare.
func (v Value) Repr() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.String()
}

// Interface returns the underlying Go value (string, int64 or float64).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// MarshalYAML emits the underlying typed value.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal
// to, or after other.
func (v Value) Compare(other Value) int {
	if v.IsNumeric() && other.IsNumeric() {
		if v.kind == KindInt && other.kind == KindInt {
			switch {
			case v.i < other.i:
				return -1
			case v.i > other.i:
				return 1
			default:
				return 0
			}
		}
		a, b := v.float(), other.float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(v.String(), other.String())
}

// Less reports whether v sorts strictly before other.
func (v Value) Less(other Value) bool {
	return v.Compare(other) < 0
}

func (v Value) float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}
