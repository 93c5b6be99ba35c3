package stance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedForward(t *testing.T) {
	t.Parallel()

	t.Run("rejects too few layers", func(t *testing.T) {
		t.Parallel()
		_, err := NewFeedForward([]int{6}, 1)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive widths", func(t *testing.T) {
		t.Parallel()
		_, err := NewFeedForward([]int{6, 0, 2}, 1)
		assert.Error(t, err)
	})

	t.Run("reports widths", func(t *testing.T) {
		t.Parallel()
		net, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)
		assert.Equal(t, 6, net.InputWidth())
		assert.Equal(t, 2, net.OutputWidth())
	})
}

func TestFeedForwardForward(t *testing.T) {
	t.Parallel()

	features := []float64{0.1, -0.2, 0.15, -0.1, 0.5, 0.9}

	t.Run("rejects wrong feature count", func(t *testing.T) {
		t.Parallel()
		net, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)
		_, err = net.Forward([]float64{1, 2})
		assert.Error(t, err)
	})

	t.Run("outputs are sigmoid-bounded", func(t *testing.T) {
		t.Parallel()
		net, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)
		out, err := net.Forward(features)
		require.NoError(t, err)
		require.Len(t, out, 2)
		for _, v := range out {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	})

	t.Run("same seed reproduces the same network", func(t *testing.T) {
		t.Parallel()
		a, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)
		b, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)

		outA, err := a.Forward(features)
		require.NoError(t, err)
		outB, err := b.Forward(features)
		require.NoError(t, err)
		assert.Equal(t, outA, outB)
	})

	t.Run("different seeds differ", func(t *testing.T) {
		t.Parallel()
		a, err := NewFeedForward(DefaultLayerWidths, 42)
		require.NoError(t, err)
		b, err := NewFeedForward(DefaultLayerWidths, 43)
		require.NoError(t, err)

		outA, err := a.Forward(features)
		require.NoError(t, err)
		outB, err := b.Forward(features)
		require.NoError(t, err)
		assert.NotEqual(t, outA, outB)
	})
}
