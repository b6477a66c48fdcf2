package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of per-building values.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P05    float64 `json:"p05"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
}

// Distributions shows how evenly the market served the community.
// SellRatio is market sell / offered per selling building, BuyRatio is
// market purchase / requested per buying building.
type Distributions struct {
	SellRatio Summary `json:"sell_ratio"`
	BuyRatio  Summary `json:"buy_ratio"`
}

// Summarize computes the summary of values. Percentiles interpolate linearly on the
// empirical distribution (gonum stat.LinInterp).
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	if len(sorted) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	s.P05 = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	s.P95 = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	return s
}

// RatioDistributions summarizes sell and buy ratios. Buildings that never offered
// (or never requested) are left out of the respective sample.
func RatioDistributions(sold, offered, bought, requested []float64) Distributions {
	return Distributions{
		SellRatio: Summarize(ratios(sold, offered)),
		BuyRatio:  Summarize(ratios(bought, requested)),
	}
}

func ratios(num, den []float64) []float64 {
	out := make([]float64, 0, len(num))
	for i := range num {
		if i < len(den) && den[i] > 0 {
			out = append(out, num[i]/den[i])
		}
	}
	return out
}
