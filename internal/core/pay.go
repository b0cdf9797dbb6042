// Package core provides the work-record model and pay handling utilities.
//
// This file contains functions for parsing pay amounts from user input
// and formatting won values for display.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidPay = errors.New("invalid pay amount")

// ParseWon converts free-form pay input to integer won. Any non-digit
// characters (currency marks, grouping commas) are dropped first, so
// "110,000원" and "110000" both parse to 110000. Returns an error when
// the input holds no digits or the amount is zero.
func ParseWon(s string) (int64, error) {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, ErrInvalidPay
	}
	won, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidPay
	}
	if won <= 0 {
		return 0, ErrInvalidPay
	}
	return won, nil
}

// FormatWon renders an amount with thousands grouping and the won mark,
// e.g. 110000 -> "110,000원".
func FormatWon(won int64) string {
	s := strconv.FormatInt(won, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + "원"
}

// FormatManwon renders the ten-thousands display form used next to won
// amounts, e.g. 110000 -> "(11.0만원)".
func FormatManwon(won int64) string {
	manwon := float64(won) / 10000.0
	return "(" + strconv.FormatFloat(manwon, 'f', 1, 64) + "만원)"
}
