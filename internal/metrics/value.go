package metrics

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a rate that may be absent, e.g. when its divisor was zero.
// The zero Value is absent.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present value. Non-finite inputs yield an absent value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Absent returns a value that is not available.
func Absent() Value { return Value{} }

// Ratio returns num/den, absent when den is not positive.
func Ratio(num, den float64) Value {
	if den <= 0 {
		return Value{}
	}
	return Some(num / den)
}

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// Present reports whether the value is available.
func (v Value) Present() bool { return v.ok }

// Or returns the value, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.ok {
		return fallback
	}
	return v.v
}

// Map applies f to a present value.
func (v Value) Map(f func(float64) float64) Value {
	if !v.ok {
		return v
	}
	return Some(f(v.v))
}

// String renders absent values as "n/a".
func (v Value) String() string {
	if !v.ok {
		return "n/a"
	}
	return strconv.FormatFloat(v.v, 'f', 6, 64)
}

// MarshalJSON encodes absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
