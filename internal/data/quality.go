package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Sanitize replaces NaN, infinite and negative samples with 0 in place and returns
// how many samples were replaced.
func Sanitize(series []float64) int {
	n := 0
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			series[i] = 0
			n++
		}
	}
	return n
}

// SanitizeHousehold returns h with invalid samples replaced by 0 and the number replaced.
// The series are copied only when something needs replacing, so h is never modified.
func SanitizeHousehold(h Household) (Household, int) {
	if countInvalid(h.Load)+countInvalid(h.PV) == 0 {
		return h, 0
	}
	h.Load = append([]float64(nil), h.Load...)
	h.PV = append([]float64(nil), h.PV...)
	return h, Sanitize(h.Load) + Sanitize(h.PV)
}

func countInvalid(series []float64) int {
	n := 0
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			n++
		}
	}
	return n
}

// Inspect reports degenerate series of a household. It never fails; callers surface the
// messages as warnings and keep using the series.
func Inspect(h Household) []string {
	var out []string
	switch {
	case isConstantZero(h.Load):
		out = append(out, fmt.Sprintf("household %s: load is constant zero", h.ID))
	case len(h.Load) > 1 && stat.Variance(h.Load, nil) == 0:
		out = append(out, fmt.Sprintf("household %s: load has zero variance", h.ID))
	}
	return out
}

func isConstantZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
