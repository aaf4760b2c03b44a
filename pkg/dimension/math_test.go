package dimension

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNormalize_UnitNorm(t *testing.T) {
	v := []float32{3, 4}
	out := Normalize(v)
	assert.InDelta(t, 1.0, l2norm(out), 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	out := Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestScaleEmbedding_Downsample(t *testing.T) {
	v := make([]float32, 8)
	for i := range v {
		v[i] = float32(i + 1)
	}
	out := ScaleEmbedding(v, 4)
	require.Len(t, out, 4)
	assert.InDelta(t, 1.0, l2norm(out), 1e-6)
}

func TestScaleEmbedding_Upsample(t *testing.T) {
	v := []float32{1, 2, 3, 4}
	out := ScaleEmbedding(v, 8)
	require.Len(t, out, 8)
	assert.InDelta(t, 1.0, l2norm(out), 1e-6)
}

func TestScaleEmbedding_SameDimension(t *testing.T) {
	v := []float32{1, 2, 3}
	out := ScaleEmbedding(v, 3)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, l2norm(out), 1e-6)
}

func TestScaleEmbedding_RoundTripShapeStable(t *testing.T) {
	v := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	down := ScaleEmbedding(v, 4)
	roundTrip := ScaleEmbedding(down, 8)
	assert.Len(t, roundTrip, len(v))
	assert.InDelta(t, 1.0, l2norm(roundTrip), 1e-6)
}

func TestScaleEmbedding_EmptyTarget(t *testing.T) {
	v := []float32{1, 2, 3}
	out := ScaleEmbedding(v, 0)
	assert.Empty(t, out)
}
