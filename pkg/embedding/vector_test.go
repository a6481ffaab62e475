package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0, -1.5, 3.25, float32(math.Pi)}

	back, err := Decode(Encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, back)

	assert.Nil(t, Encode(nil))
	assert.Nil(t, Encode([]float32{}))
	empty, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
