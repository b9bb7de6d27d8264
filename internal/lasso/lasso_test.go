package lasso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spikeview/internal/featuregrid"
)

func unitSquare(p *Polygon) {
	p.Add(-0.5, -0.5)
	p.Add(0.5, -0.5)
	p.Add(0.5, 0.5)
	p.Add(-0.5, 0.5)
}

func TestContains(t *testing.T) {
	t.Parallel()

	p := New()
	unitSquare(p)

	assert.True(t, p.Contains(0, 0))
	assert.True(t, p.Contains(0.49, -0.49))
	assert.False(t, p.Contains(0.6, 0))
	assert.False(t, p.Contains(0, -0.51))
}

func TestContainsNeedsThreePoints(t *testing.T) {
	t.Parallel()

	p := New()
	assert.False(t, p.Contains(0, 0))
	p.Add(0, 0)
	p.Add(1, 0)
	assert.False(t, p.Contains(0.5, 0))
}

func TestContainsConcave(t *testing.T) {
	t.Parallel()

	// An L shape: the notch at the top right is outside.
	p := New()
	p.Add(0, 0)
	p.Add(2, 0)
	p.Add(2, 1)
	p.Add(1, 1)
	p.Add(1, 2)
	p.Add(0, 2)

	assert.True(t, p.Contains(0.5, 1.5))
	assert.True(t, p.Contains(1.5, 0.5))
	assert.False(t, p.Contains(1.5, 1.5))
}

func TestClearOnBoxOrRowsChange(t *testing.T) {
	t.Parallel()

	p := New()
	p.SetRows(2)
	p.SetBox(0, 1)
	unitSquare(p)
	require.Equal(t, 4, p.Count())

	p.SetBox(0, 1) // same box keeps the polygon
	assert.Equal(t, 4, p.Count())

	p.SetBox(1, 1)
	assert.Zero(t, p.Count())

	unitSquare(p)
	p.SetRows(2) // same size keeps the polygon
	assert.Equal(t, 4, p.Count())
	p.SetRows(3)
	assert.Zero(t, p.Count())
}

func TestPointsCopy(t *testing.T) {
	t.Parallel()

	p := New()
	unitSquare(p)
	pts := p.Points()
	pts[0] = [2]float32{9, 9}
	assert.Equal(t, [2]float32{-0.5, -0.5}, p.Points()[0])
}

func TestSelect(t *testing.T) {
	t.Parallel()

	// A 2x2 grid over 3 spikes; the lasso sits on box (0, 1) and the
	// square catches only the spike projected near the origin there.
	data := []float32{
		0.0, 0.0, // spike 0: channels 0, 1
		0.9, 0.9, // spike 1
		0.2, -0.2, // spike 2
	}
	tensor, err := featuregrid.NewFeatureMatrix(data, 3, 2)
	require.NoError(t, err)
	matrix, err := featuregrid.ResolveMatrix([]featuregrid.Dimension{
		featuregrid.ChannelFeature(0, 0), featuregrid.ChannelFeature(1, 0),
	}, 2, 1)
	require.NoError(t, err)

	buf, err := featuregrid.Bake(featuregrid.BakeInput{Features: tensor, Matrix: matrix}, featuregrid.BakeCaps{})
	require.NoError(t, err)

	p := New()
	p.SetRows(2)
	p.SetBox(0, 1)
	unitSquare(p)

	assert.Equal(t, []int{0, 2}, p.Select(buf))

	// Without a polygon nothing is selected.
	p.Clear()
	assert.Nil(t, p.Select(buf))
}
