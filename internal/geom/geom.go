// Package geom evaluates the coordinate expressions used by drawing scripts.
//
// A coordinate is either a literal integer or a string of digit runs joined
// by + and - ("64-26+5"). Negative results are wrapped into the axis so that
// scripts can address positions relative to the far edge of the display.
package geom

import (
	"fmt"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// Resolve evaluates expr, adds offset, and wraps the sum into [0, axisLength]
// when axisLength > 0.
//
// expr is either an int (including the float64 the JSON decoder produces for
// numeric literals) or a string expression. Characters in a string expression
// that are neither digits nor + / - end the current digit run and are
// otherwise ignored, so callers may pass impure tokens.
//
// Wrapping is by repeated addition/subtraction of axisLength, not modulo: a
// value exactly equal to axisLength stays at axisLength.
func Resolve(expr any, axisLength, offset int) (int, error) {
	res := offset
	switch v := expr.(type) {
	case int:
		res += v
	case float64:
		res += int(v)
	case string:
		res += sum(v)
	default:
		return 0, fmt.Errorf("%w: coordinate must be a number or string, got %T", apperr.ErrMalformedDocument, expr)
	}
	if axisLength > 0 {
		for res < 0 {
			res += axisLength
		}
		for res > axisLength {
			res -= axisLength
		}
	}
	return res, nil
}

// sum evaluates a signed-sum expression left to right over + and - only.
func sum(s string) int {
	res := 0
	accum := 0
	neg := false
	flush := func() {
		if neg {
			res -= accum
		} else {
			res += accum
		}
		accum = 0
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			accum = accum*10 + int(c-'0')
		case c == '+':
			flush()
			neg = false
		case c == '-':
			flush()
			neg = true
		default:
			// Foreign character: terminates the digit run, then ignored.
			flush()
		}
	}
	flush()
	return res
}
