package indices

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeSparkline_FixedLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := SynthesizeSparkline(150.0, 1.69, SparklinePoints, rng)
	assert.Len(t, points, SparklinePoints)
}

func TestSynthesizeSparkline_DeterministicForFixedSeed(t *testing.T) {
	a := SynthesizeSparkline(150.0, 1.69, SparklinePoints, rand.New(rand.NewSource(42)))
	b := SynthesizeSparkline(150.0, 1.69, SparklinePoints, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestSynthesizeSparkline_PointsStayNearImpliedStart(t *testing.T) {
	const (
		current   = 150.0
		changePct = 1.69
	)
	implied := current / (1 + changePct/100)

	points := SynthesizeSparkline(current, changePct, SparklinePoints, rand.New(rand.NewSource(3)))
	require.Len(t, points, SparklinePoints)

	// Noise is bounded by ±0.5% and the trend tops out at half the change.
	lo := implied * (1 - 0.006)
	hi := implied * (1 + 0.006 + changePct/200)
	for i, p := range points {
		assert.GreaterOrEqual(t, p, lo, "point %d", i)
		assert.LessOrEqual(t, p, hi, "point %d", i)
	}

	assert.InDelta(t, implied, points[0], implied*0.006)
}

func TestSynthesizeSparkline_NonPositiveCount(t *testing.T) {
	assert.Nil(t, SynthesizeSparkline(150.0, 1.0, 0, rand.New(rand.NewSource(1))))
	assert.Nil(t, SynthesizeSparkline(150.0, 1.0, -5, rand.New(rand.NewSource(1))))
}

func TestFlatSparkline_AllZeros(t *testing.T) {
	points := flatSparkline(SparklinePoints)
	require.Len(t, points, SparklinePoints)
	for _, p := range points {
		assert.Zero(t, p)
	}
}
