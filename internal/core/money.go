// Package core provides the expense domain model shared by all layers.
//
// This file contains the Money value type. Amounts are carried in minor
// currency units (cents) end to end; floating point only appears at the
// display boundary.
package core

import (
	"errors"
	"fmt"
)

// Money is an amount in minor currency units.
type Money struct {
	Cents int64
}

var ErrNegativeAmount = errors.New("negative amount")

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// String formats the amount with two decimals, e.g. 1234 -> "12.34".
func (m Money) String() string {
	return FormatCents(m.Cents)
}

// FormatCents renders minor units as a decimal string for display.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
