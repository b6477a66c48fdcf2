package analysis

import "sort"

// BuildingSavings is one building's cost with and without the community market.
type BuildingSavings struct {
	Node           string
	CostWithLEC    float64
	CostWithoutLEC float64
	Savings        float64
}

// RankBySavings sorts buildings descending by savings; ties keep node order.
func RankBySavings(nodes []string, withLEC, withoutLEC []float64) []BuildingSavings {
	out := make([]BuildingSavings, 0, len(nodes))
	for i, n := range nodes {
		if i >= len(withLEC) || i >= len(withoutLEC) {
			break
		}
		out = append(out, BuildingSavings{
			Node:           n,
			CostWithLEC:    withLEC[i],
			CostWithoutLEC: withoutLEC[i],
			Savings:        withoutLEC[i] - withLEC[i],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Savings > out[j].Savings
	})
	return out
}
