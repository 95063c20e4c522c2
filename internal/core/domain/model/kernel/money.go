package kernel

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// Money represents a monetary amount in integer minor currency units (kobo, cents).
// All money arithmetic in the domain is performed on integers to avoid the rounding
// drift that floating point arithmetic introduces into settlement calculations.
//
// Money is a value object: immutable, comparable, and safe for concurrent use.
// Negative amounts are invalid; subtraction that would produce a negative result
// returns an error instead of a negative value.
//
// Example usage:
//
//	subtotal, _ := kernel.NewMoney(1000)
//	fee, _ := kernel.NewMoney(250)
//	total := subtotal.Add(fee) // 1250 minor units
type Money int64

// NewMoney creates a Money value from an amount of minor currency units.
// Returns an error if the amount is negative.
func NewMoney(units int64) (Money, error) {
	m := Money(units)
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m, nil
}

// Units returns the amount as an int64 of minor currency units.
func (m Money) Units() int64 {
	return int64(m)
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns the difference of two amounts.
// Returns an error if the result would be negative.
func (m Money) Sub(other Money) (Money, error) {
	if other > m {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"money",
			fmt.Errorf("subtracting %d from %d yields a negative amount", other, m),
		)
	}
	return m - other, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m == 0
}

// IsEqual compares two amounts for equality.
func (m Money) IsEqual(other Money) bool {
	return m == other
}

// Validate checks that the amount is not negative.
func (m Money) Validate() error {
	if m < 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"money",
			fmt.Errorf("%d is negative", m),
		)
	}
	return nil
}

// String returns the amount formatted as minor units, e.g. "1250".
func (m Money) String() string {
	return fmt.Sprintf("%d", int64(m))
}
