package model

import (
	"encoding/json"
	"math"
)

// Value is an indicator cell that may be undefined.
type Value struct {
	V     float64
	Valid bool
}

// Undefined is the cell used where a window lacks history.
var Undefined = Value{}

// Defined wraps v. NaN is mapped to Undefined.
func Defined(v float64) Value {
	if math.IsNaN(v) {
		return Undefined
	}
	return Value{V: v, Valid: true}
}

// Float returns the value or NaN when undefined, for renderers that need a float.
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.V
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Undefineds returns n undefined cells.
func Undefineds(n int) []Value {
	return make([]Value, n)
}
