package synth

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// sortedCategories returns the category names in deterministic order.
// Weighted draws must never iterate the map directly: Go map order is
// randomized and would break reproducibility.
func sortedCategories(weights map[string]float64) []string {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// weightedChoice draws one category proportionally to its weight.
// Weights need not sum to 1. Zero-weight categories are never drawn.
func weightedChoice(rng *rand.Rand, weights map[string]float64) string {
	names := sortedCategories(weights)
	total := 0.0
	for _, name := range names {
		total += weights[name]
	}
	target := rng.Float64() * total
	cum := 0.0
	for _, name := range names {
		cum += weights[name]
		if target < cum {
			return name
		}
	}
	// Floating point edge: fall back to the last positive-weight category.
	for i := len(names) - 1; i >= 0; i-- {
		if weights[names[i]] > 0 {
			return names[i]
		}
	}
	return names[len(names)-1]
}

// weightedSample draws up to k distinct categories without replacement.
func weightedSample(rng *rand.Rand, weights map[string]float64, k int) []string {
	remaining := make(map[string]float64, len(weights))
	positive := 0
	for name, w := range weights {
		remaining[name] = w
		if w > 0 {
			positive++
		}
	}
	if k > positive {
		k = positive
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		pick := weightedChoice(rng, remaining)
		out = append(out, pick)
		delete(remaining, pick)
	}
	sort.Strings(out)
	return out
}

// clippedNormal draws from N(mean, stddev) clamped to [min, max].
func clippedNormal(rng *rand.Rand, mean, stddev, min, max float64) float64 {
	v := mean + rng.NormFloat64()*stddev
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

// poisson draws a Poisson-distributed count with the given mean using
// Knuth's method, switching to a clamped normal approximation for large
// means where exp(-mean) underflows.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 500 {
		v := math.Round(mean + rng.NormFloat64()*math.Sqrt(mean))
		if v < 0 {
			v = 0
		}
		return int(v)
	}
	limit := math.Exp(-mean)
	count := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return count
		}
		count++
	}
}

// uniformDate draws a whole day uniformly from [start, end] inclusive.
// Both bounds must be midnight UTC.
func uniformDate(rng *rand.Rand, start, end time.Time) time.Time {
	days := daysBetween(start, end)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, rng.Intn(days+1))
}

// daysBetween returns the number of whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// roundCents rounds to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
