package loadshift

import "sort"

// findPeaks returns indices of local maxima of xs that are at least minDistance samples
// apart and whose topographic prominence is at least minProminence. Flat tops report
// their middle sample. The result is in ascending index order.
func findPeaks(xs []float64, minProminence float64, minDistance int) []int {
	peaks := localMaxima(xs)
	if minDistance > 1 {
		peaks = filterByDistance(xs, peaks, minDistance)
	}
	out := peaks[:0]
	for _, p := range peaks {
		if prominence(xs, p) >= minProminence {
			out = append(out, p)
		}
	}
	return out
}

func localMaxima(xs []float64) []int {
	var peaks []int
	n := len(xs)
	for i := 1; i < n-1; {
		if xs[i] <= xs[i-1] {
			i++
			continue
		}
		j := i + 1
		for j < n && xs[j] == xs[i] {
			j++
		}
		if j < n && xs[j] < xs[i] {
			peaks = append(peaks, (i+j-1)/2)
		}
		i = j
	}
	return peaks
}

// filterByDistance keeps the higher of any two peaks closer than minDistance.
func filterByDistance(xs []float64, peaks []int, minDistance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[peaks[order[a]]] > xs[peaks[order[b]]] })

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, k := range order {
		if !keep[k] {
			continue
		}
		for j := k - 1; j >= 0 && peaks[k]-peaks[j] < minDistance; j-- {
			keep[j] = false
		}
		for j := k + 1; j < len(peaks) && peaks[j]-peaks[k] < minDistance; j++ {
			keep[j] = false
		}
	}
	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// prominence is the peak height above the higher of its two surrounding bases.
func prominence(xs []float64, p int) float64 {
	h := xs[p]
	leftMin := h
	for i := p - 1; i >= 0 && xs[i] <= h; i-- {
		if xs[i] < leftMin {
			leftMin = xs[i]
		}
	}
	rightMin := h
	for i := p + 1; i < len(xs) && xs[i] <= h; i++ {
		if xs[i] < rightMin {
			rightMin = xs[i]
		}
	}
	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return h - base
}
