package featuregrid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterOrderOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{5, 9}, ClusterOrderOf([]int{5, 5, 9}))
	assert.Equal(t, []int{1, 2, 3}, ClusterOrderOf([]int{3, 1, 2, 1}))
	assert.Empty(t, ClusterOrderOf(nil))
}

func TestBakeShapes(t *testing.T) {
	t.Parallel()

	const nSpikes = 5
	tensor := seqTensor(t, nSpikes, 2, 2)
	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0), ChannelFeature(1, 1)}, 2, 2)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{Features: tensor, Matrix: matrix}, BakeCaps{WithMasks: true, WithClusters: true})
	require.NoError(t, err)

	nPoints := 4 * nSpikes
	assert.Len(t, buf.Positions, 2*nPoints)
	assert.Len(t, buf.Boxes, nPoints)
	assert.Len(t, buf.Masks, nPoints)
	assert.Len(t, buf.Clusters, nPoints)
	assert.Equal(t, 2, buf.Rows)
	assert.Equal(t, nSpikes, buf.Spikes)
	assert.Equal(t, nPoints, buf.NPoints())

	// Box indices run 0..3 in contiguous row-major blocks of nSpikes.
	for box := 0; box < 4; box++ {
		for s := 0; s < nSpikes; s++ {
			assert.Equal(t, float32(box), buf.Boxes[box*nSpikes+s], "box %d spike %d", box, s)
		}
	}
}

func TestBakeMaskFromYDimension(t *testing.T) {
	t.Parallel()

	// Three channels with distinct mask columns so the source is traceable.
	const nSpikes = 2
	tensor := seqTensor(t, nSpikes, 3, 1)
	maskData := []float32{
		0.0, 0.4, 0.9,
		0.1, 0.5, 1.0,
	}
	masks, err := NewMaskMatrix(maskData, nSpikes, 3)
	require.NoError(t, err)

	matrix, err := NewDimensionsMatrix([]DimensionPair{
		{X: ChannelFeature(0, 0), Y: ChannelFeature(2, 0)},
	}, 1)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{Features: tensor, Masks: masks, Matrix: matrix}, BakeCaps{WithMasks: true})
	require.NoError(t, err)

	// Mask column of channel 2, the y dimension. The x channel plays no part.
	if diff := cmp.Diff([]float32{0.9, 1.0}, buf.Masks); diff != "" {
		t.Errorf("mask buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestBakeTimeYDimensionFullyVisible(t *testing.T) {
	t.Parallel()

	const nSpikes = 3
	tensor := seqTensor(t, nSpikes, 1, 1)
	masks, err := NewMaskMatrix([]float32{0.2, 0.2, 0.2}, nSpikes, 1)
	require.NoError(t, err)

	matrix, err := NewDimensionsMatrix([]DimensionPair{
		{X: ChannelFeature(0, 0), Y: TimeDim()},
	}, 1)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{Features: tensor, Masks: masks, Matrix: matrix}, BakeCaps{WithMasks: true})
	require.NoError(t, err)
	if diff := cmp.Diff([]float32{1, 1, 1}, buf.Masks); diff != "" {
		t.Errorf("time y mask mismatch (-want +got):\n%s", diff)
	}
}

func TestBakeClusterTiling(t *testing.T) {
	t.Parallel()

	tensor := seqTensor(t, 3, 2, 1)
	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0), ChannelFeature(1, 0)}, 2, 1)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{
		Features:      tensor,
		Matrix:        matrix,
		SpikeClusters: []int{5, 5, 9},
		ClusterOrder:  []int{5, 9},
	}, BakeCaps{WithClusters: true})
	require.NoError(t, err)

	assert.Equal(t, 2, buf.ClusterCount)
	want := make([]float32, 0, 4*3)
	for box := 0; box < 4; box++ {
		want = append(want, 0, 0, 1)
	}
	if diff := cmp.Diff(want, buf.Clusters); diff != "" {
		t.Errorf("cluster buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestBakeClusterMissingFromOrder(t *testing.T) {
	t.Parallel()

	tensor := seqTensor(t, 2, 1, 2)
	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0)}, 1, 2)
	require.NoError(t, err)

	_, err = Bake(BakeInput{
		Features:      tensor,
		Matrix:        matrix,
		SpikeClusters: []int{5, 9},
		ClusterOrder:  []int{5},
	}, BakeCaps{WithClusters: true})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBakePositionValues(t *testing.T) {
	t.Parallel()

	tensor := seqTensor(t, 2, 2, 1)
	matrix, err := NewDimensionsMatrix([]DimensionPair{
		{X: ChannelFeature(0, 0), Y: ChannelFeature(1, 0)},
	}, 1)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{Features: tensor, Matrix: matrix}, BakeCaps{})
	require.NoError(t, err)
	if diff := cmp.Diff([]float32{0, 1, 2, 3}, buf.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	// A background-style bake carries no mask or cluster buffers.
	assert.Nil(t, buf.Masks)
	assert.Nil(t, buf.Clusters)
}

func TestBakeValidation(t *testing.T) {
	t.Parallel()

	tensor := seqTensor(t, 2, 2, 1)
	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0)}, 2, 1)
	require.NoError(t, err)

	t.Run("missing tensor", func(t *testing.T) {
		_, err := Bake(BakeInput{Matrix: matrix}, BakeCaps{})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("missing matrix", func(t *testing.T) {
		_, err := Bake(BakeInput{Features: tensor}, BakeCaps{})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("matrix out of range for tensor", func(t *testing.T) {
		wide, err := NewDimensionsMatrix([]DimensionPair{
			{X: ChannelFeature(0, 0), Y: ChannelFeature(5, 0)},
		}, 1)
		require.NoError(t, err)
		_, err = Bake(BakeInput{Features: tensor, Matrix: wide}, BakeCaps{})
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("mask shape", func(t *testing.T) {
		masks, err := NewMaskMatrix([]float32{1, 1, 1}, 3, 1)
		require.NoError(t, err)
		_, err = Bake(BakeInput{Features: tensor, Masks: masks, Matrix: matrix}, BakeCaps{WithMasks: true})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("cluster length", func(t *testing.T) {
		_, err := Bake(BakeInput{
			Features:      tensor,
			Matrix:        matrix,
			SpikeClusters: []int{1},
		}, BakeCaps{WithClusters: true})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestBakeDefaultsMasksAndClusters(t *testing.T) {
	t.Parallel()

	tensor := seqTensor(t, 2, 1, 2)
	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0)}, 1, 2)
	require.NoError(t, err)

	buf, err := Bake(BakeInput{Features: tensor, Matrix: matrix}, BakeCaps{WithMasks: true, WithClusters: true})
	require.NoError(t, err)
	if diff := cmp.Diff([]float32{1, 1}, buf.Masks); diff != "" {
		t.Errorf("default mask mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{0, 0}, buf.Clusters); diff != "" {
		t.Errorf("default cluster mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, buf.ClusterCount)
}
