package domain

import (
	"encoding/json"
	"math"
)

// NullFloat64 is a float that may be missing. The zero value is missing.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float wraps a present value. NaN and infinities are treated as missing.
func Float(v float64) NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat64{}
	}
	return NullFloat64{Float64: v, Valid: true}
}

// Missing returns an explicitly absent value
func Missing() NullFloat64 {
	return NullFloat64{}
}

// OrZero returns the value, or 0 when missing
func (n NullFloat64) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}

// MarshalJSON encodes missing values as null
func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null
func (n *NullFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat64{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
