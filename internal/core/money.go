// Package core provides money parsing and handling utilities.
//
// This file contains the parsers used when a user types an amount or a cap,
// as opposed to the lenient coercion applied to imported files.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a typed amount to a decimal.
//
// The input is trimmed and must then pass the amount rule: no sign, no exponent,
// no thousands separators, no leading zeros and at most two decimals.
//
// Examples:
//
//	ParseAmount("12.50") -> 12.5, nil
//	ParseAmount("012.5") -> error
//	ParseAmount("12.500") -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !Validate(FieldAmount, s) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return decimal.NewFromString(s)
}

// ParseCap reads a spending cap. Empty input clears the cap; any other value
// must be a finite, non-negative number.
func ParseCap(s string) (decimal.Decimal, error) {
	f, ok := parseNumber(s)
	if !ok || f < 0 {
		return decimal.Decimal{}, ErrInvalidCap
	}
	return decimal.NewFromFloat(f), nil
}
