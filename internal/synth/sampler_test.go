package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedChoiceProportions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	weights := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2, "zero": 0}

	const draws = 20000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		counts[weightedChoice(rng, weights)]++
	}

	assert.Zero(t, counts["zero"], "zero-weight categories must never be drawn")
	assert.InDelta(t, 0.5, float64(counts["a"])/draws, 0.02)
	assert.InDelta(t, 0.3, float64(counts["b"])/draws, 0.02)
	assert.InDelta(t, 0.2, float64(counts["c"])/draws, 0.02)
}

func TestWeightedChoiceSingleCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		assert.Equal(t, "only", weightedChoice(rng, map[string]float64{"only": 3.5}))
	}
}

func TestWeightedSample(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	weights := map[string]float64{"a": 1, "b": 1, "c": 1, "d": 0}

	got := weightedSample(rng, weights, 10)
	assert.Equal(t, []string{"a", "b", "c"}, got, "k is capped at the positive-weight category count and output is sorted")

	got = weightedSample(rng, weights, 2)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
	assert.NotContains(t, got, "d")
}

func TestClippedNormalBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		v := clippedNormal(rng, 42, 12, 18, 75)
		assert.GreaterOrEqual(t, v, 18.0)
		assert.LessOrEqual(t, v, 75.0)
	}
}

func TestPoissonMean(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	tests := []float64{0.5, 2.5, 30, 800}
	for _, mean := range tests {
		const draws = 5000
		sum := 0
		for i := 0; i < draws; i++ {
			sum += poisson(rng, mean)
		}
		got := float64(sum) / draws
		// Tolerance of 5 standard errors of the sample mean.
		tol := 5 * math.Sqrt(mean/draws)
		assert.InDelta(t, mean, got, tol, "mean %v", mean)
	}

	assert.Zero(t, poisson(rng, 0))
	assert.Zero(t, poisson(rng, -1))
}

func TestUniformDateInclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	start := date("2023-03-01")
	end := date("2023-03-04")

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		d := uniformDate(rng, start, end)
		assert.False(t, d.Before(start))
		assert.False(t, d.After(end))
		seen[d.Format("2006-01-02")] = true
	}
	assert.Len(t, seen, 4, "all four days including both bounds should be drawn")

	assert.Equal(t, start, uniformDate(rng, start, start))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, daysBetween(date("2023-01-01"), date("2023-01-01")))
	assert.Equal(t, 30, daysBetween(date("2023-01-01"), date("2023-01-31")))
	assert.Equal(t, -1, daysBetween(date("2023-01-02"), date("2023-01-01")))
	assert.Equal(t, 364, daysBetween(date("2023-01-01"), date("2023-12-31")))
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 10.56, roundCents(10.555))
	assert.Equal(t, 10.0, roundCents(10.0001))
	assert.Equal(t, 0.0, roundCents(0))
}
