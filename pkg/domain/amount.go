package domain

import (
	"fmt"

	"lukechampine.com/uint128"
)

// Amount is an unsigned 128-bit currency quantity (wei-style base units).
// The zero value is zero.
type Amount struct {
	v uint128.Uint128
}

// NewAmount converts a uint64 into an Amount.
func NewAmount(v uint64) Amount {
	return Amount{v: uint128.From64(v)}
}

// ParseAmount parses a base-10 string.
func ParseAmount(s string) (Amount, error) {
	v, err := uint128.FromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{v: v}, nil
}

// MustAmount parses s and panics on failure. Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b. ok is false on overflow.
func (a Amount) Add(b Amount) (sum Amount, ok bool) {
	s := a.v.AddWrap(b.v)
	if s.Cmp(a.v) < 0 {
		return Amount{}, false
	}
	return Amount{v: s}, true
}

// Sub returns a-b. ok is false when b > a.
func (a Amount) Sub(b Amount) (diff Amount, ok bool) {
	if a.v.Cmp(b.v) < 0 {
		return Amount{}, false
	}
	return Amount{v: a.v.SubWrap(b.v)}, true
}

// Cmp compares a and b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Equals(b.v) }

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) String() string { return a.v.String() }

// MarshalText encodes the amount as a decimal string so JSON snapshots keep
// full 128-bit precision.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.String()), nil
}

// UnmarshalText decodes a decimal string.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
