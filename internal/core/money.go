// Package core holds the royalty domain types shared by every layer.
//
// This file contains functions for parsing monetary amounts from form input
// and converting between cents and Namibian dollar representations.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in cents of Namibian dollars.
type Money struct {
	Cents int64
}

// ParseCents converts a decimal string to cents with half-up rounding on the
// third decimal place. Dot and comma separators are accepted, as is a leading
// "N$" currency prefix. Negative values are rejected, zero is allowed.
//
//	ParseCents("12.34")   -> 1234, nil
//	ParseCents("N$12,34") -> 1234, nil
//	ParseCents("12.345")  -> 1235, nil
//	ParseCents("0")       -> 0, nil
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "N$"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}

// ParseMoney is ParseCents wrapped in a Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// Dollars returns the value as a float64 for display and charts only.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// Times multiplies the amount by a play or usage count.
func (m Money) Times(n int) Money {
	return Money{Cents: m.Cents * int64(n)}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%sN$%d.%02d", sign, c/100, c%100)
}
