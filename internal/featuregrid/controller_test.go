package featuregrid

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Mock collaborators
// ---------------------------------------------------------------------------

type mockRenderer struct {
	primary        *BakedBuffers
	background     *BakedBuffers
	uniforms       Uniforms
	colors         []color.RGBA
	draws          int
	primaryUpdates int
}

func (m *mockRenderer) UpdatePrimary(b *BakedBuffers) { m.primary = b; m.primaryUpdates++ }

func (m *mockRenderer) UpdateBackground(b *BakedBuffers) { m.background = b }

func (m *mockRenderer) SetUniforms(u Uniforms) { m.uniforms = u }

func (m *mockRenderer) SetClusterColors(c []color.RGBA) { m.colors = c }

func (m *mockRenderer) RequestDraw() { m.draws++ }

type mockPanZoom struct {
	rows           int
	table          ConstraintTable
	applied        int
	boxRow, boxCol int
	wx, wy         float32
}

func (m *mockPanZoom) SetRows(r int) { m.rows = r }

func (m *mockPanZoom) ApplyConstraints(t ConstraintTable) { m.table = t; m.applied++ }

func (m *mockPanZoom) BoxAt(x, y, w, h float64) (int, int) {
	return m.boxRow, m.boxCol
}

func (m *mockPanZoom) WorldAt(x, y, w, h float64) (float32, float32) {
	return m.wx, m.wy
}

type mockLasso struct {
	rows           int
	boxRow, boxCol int
	points         [][2]float32
	clears         int
}

func (m *mockLasso) SetRows(r int) { m.rows = r }

func (m *mockLasso) SetBox(row, col int) { m.boxRow, m.boxCol = row, col }

func (m *mockLasso) Add(x, y float32) { m.points = append(m.points, [2]float32{x, y}) }

func (m *mockLasso) Clear() { m.points = nil; m.clears++ }

func newTestController(t *testing.T) (*Controller, *mockRenderer, *mockPanZoom, *mockLasso) {
	t.Helper()
	r := &mockRenderer{}
	pz := &mockPanZoom{}
	l := &mockLasso{}
	c := NewController(Collaborators{Renderer: r, PanZoom: pz, Lasso: l})
	return c, r, pz, l
}

// ---------------------------------------------------------------------------
// SetData
// ---------------------------------------------------------------------------

func TestSetDataDefaults(t *testing.T) {
	t.Parallel()

	c, r, pz, l := newTestController(t)
	tensor := seqTensor(t, 3, 2, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	// Default dimension request is channel 0 feature 0, resolved to a 1x1
	// matrix with the alternative on y.
	require.NotNil(t, c.Matrix())
	assert.Equal(t, 1, c.Rows())
	want := DimensionPair{X: ChannelFeature(0, 0), Y: ChannelFeature(0, 1)}
	assert.Equal(t, want, c.Matrix().At(0, 0))

	// All spikes fall into the single default cluster.
	assert.Equal(t, 1, c.ClusterCount())
	assert.Equal(t, []int{0}, c.ClusterOrder())
	assert.Len(t, c.Colors(), 1)

	// Renderer received buffers, colors and uniforms, and was asked to draw.
	require.NotNil(t, r.primary)
	assert.Same(t, c.Buffers(), r.primary)
	assert.Nil(t, r.background)
	assert.Equal(t, Uniforms{Rows: 1, ClusterCount: 1, MarkerSize: DefaultMarkerSize}, r.uniforms)
	assert.Len(t, r.colors, 1)
	assert.Equal(t, 1, r.draws)

	// Default masks are fully visible.
	if diff := cmp.Diff([]float32{1, 1, 1}, r.primary.Masks); diff != "" {
		t.Errorf("default mask mismatch (-want +got):\n%s", diff)
	}

	// Navigation collaborators got the row count and constraint table.
	assert.Equal(t, 1, pz.rows)
	assert.Equal(t, 1, pz.applied)
	assert.Equal(t, 0, pz.table.DefaultBox)
	assert.Equal(t, 1, l.rows)
}

func TestSetDataRequiresFeaturesOnce(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t)
	assert.ErrorIs(t, c.SetData(DataUpdate{}), ErrInvalidConfiguration)

	tensor := seqTensor(t, 2, 2, 1)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	// Later updates may omit the tensor to keep the current one.
	require.NoError(t, c.SetData(DataUpdate{SpikeClusters: []int{1, 2}}))
	assert.Equal(t, 2, c.ClusterCount())
}

func TestSetDataLastGoodOnFailure(t *testing.T) {
	t.Parallel()

	c, r, _, _ := newTestController(t)
	tensor := seqTensor(t, 3, 2, 1)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	before := c.Buffers()
	require.NotNil(t, before)
	updatesBefore := r.primaryUpdates

	err := c.SetData(DataUpdate{SpikeClusters: []int{1, 2}}) // wrong length
	assert.ErrorIs(t, err, ErrShapeMismatch)

	assert.Same(t, before, c.Buffers(), "failed update must not replace buffers")
	assert.Equal(t, before.BakeID, c.Buffers().BakeID)
	assert.Equal(t, updatesBefore, r.primaryUpdates, "failed update must not notify the renderer")
	assert.Equal(t, 1, c.ClusterCount())
}

func TestSetDataValidation(t *testing.T) {
	t.Parallel()

	tensor := func(t *testing.T) *FeatureTensor { return seqTensor(t, 2, 2, 1) }

	t.Run("mask shape", func(t *testing.T) {
		c, _, _, _ := newTestController(t)
		masks, err := NewMaskMatrix([]float32{1, 1, 1}, 1, 3)
		require.NoError(t, err)
		assert.ErrorIs(t, c.SetData(DataUpdate{Features: tensor(t), Masks: masks}), ErrShapeMismatch)
	})

	t.Run("times length", func(t *testing.T) {
		c, _, _, _ := newTestController(t)
		err := c.SetData(DataUpdate{Features: tensor(t), SpikeTimes: []float64{1}})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("colors length", func(t *testing.T) {
		c, _, _, _ := newTestController(t)
		err := c.SetData(DataUpdate{
			Features:      tensor(t),
			SpikeClusters: []int{3, 7},
			Colors:        []color.RGBA{{R: 255, A: 255}},
		})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("background channels", func(t *testing.T) {
		c, _, _, _ := newTestController(t)
		bg := seqTensor(t, 4, 3, 1)
		err := c.SetData(DataUpdate{Features: tensor(t), Background: bg})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("background times length", func(t *testing.T) {
		c, _, _, _ := newTestController(t)
		bg := seqTensor(t, 4, 2, 1)
		err := c.SetData(DataUpdate{
			Features:        tensor(t),
			Background:      bg,
			BackgroundTimes: []float64{1, 2},
		})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestSetDataBackground(t *testing.T) {
	t.Parallel()

	c, r, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 2, 1)
	bg := seqTensor(t, 5, 2, 1)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor, Background: bg}))

	under := c.BackgroundBuffers()
	require.NotNil(t, under)
	assert.Same(t, under, r.background)
	assert.Equal(t, 5, under.Spikes)
	assert.Nil(t, under.Masks, "background bake carries no masks")
	assert.Nil(t, under.Clusters, "background bake carries no clusters")

	// The background tensor persists across updates that do not replace it.
	require.NoError(t, c.SetData(DataUpdate{SpikeClusters: []int{1, 2}}))
	assert.NotNil(t, c.BackgroundBuffers())
}

func TestSetDataResolvesMatrixOnlyOnce(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 2, 2)
	dims := []Dimension{ChannelFeature(0, 0), ChannelFeature(1, 1)}
	require.NoError(t, c.SetData(DataUpdate{Features: tensor, Dimensions: dims}))
	assert.Equal(t, 2, c.Rows())

	// A fresh dimensions request on a later update is ignored while a matrix
	// is installed; changing dimensions goes through SetDimensions.
	require.NoError(t, c.SetData(DataUpdate{Dimensions: []Dimension{TimeDim()}}))
	assert.Equal(t, 2, c.Rows())
}

// ---------------------------------------------------------------------------
// SetDimensionsMatrix / SetDimensions
// ---------------------------------------------------------------------------

func TestSetDimensionsMatrixRebakes(t *testing.T) {
	t.Parallel()

	c, r, pz, l := newTestController(t)
	tensor := seqTensor(t, 2, 2, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))
	firstID := c.Buffers().BakeID

	matrix, err := ResolveMatrix([]Dimension{ChannelFeature(0, 0), TimeDim()}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, c.SetDimensionsMatrix(matrix))

	assert.Equal(t, 2, c.Rows())
	assert.NotEqual(t, firstID, c.Buffers().BakeID, "matrix change must rebake")
	assert.Equal(t, 2, r.uniforms.Rows)
	assert.Equal(t, 2, pz.rows)
	assert.Equal(t, 2, l.rows)
	assert.Equal(t, 2, pz.table.Rows)
}

func TestSetDimensionsMatrixInvalidRetainsPrevious(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 2, 1)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	prevMatrix := c.Matrix()
	prevID := c.Buffers().BakeID

	bad, err := NewDimensionsMatrix([]DimensionPair{
		{X: ChannelFeature(0, 0), Y: ChannelFeature(9, 0)},
	}, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetDimensionsMatrix(bad), ErrInvalidDimension)
	assert.Same(t, prevMatrix, c.Matrix(), "invalid matrix must not replace the previous one")
	assert.Equal(t, prevID, c.Buffers().BakeID)
}

func TestSetDimensions(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 3, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	require.NoError(t, c.SetDimensions([]Dimension{ChannelFeature(0, 0), ChannelFeature(1, 0), TimeDim()}))
	assert.Equal(t, 3, c.Rows())

	assert.ErrorIs(t, c.SetDimensions([]Dimension{ChannelFeature(7, 0)}), ErrInvalidDimension)
	assert.Equal(t, 3, c.Rows())
}

// ---------------------------------------------------------------------------
// Marker size
// ---------------------------------------------------------------------------

func TestMarkerSizeClamp(t *testing.T) {
	t.Parallel()

	c, r, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 1, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	prevID := c.Buffers().BakeID
	drawsBefore := r.draws

	c.SetMarkerSize(0.01)
	assert.Equal(t, MinMarkerSize, c.MarkerSize())

	c.SetMarkerSize(1e6)
	assert.Equal(t, MaxMarkerSize, c.MarkerSize())

	c.SetMarkerSize(7.5)
	assert.Equal(t, float32(7.5), c.MarkerSize())
	assert.Equal(t, float32(7.5), r.uniforms.MarkerSize)

	// Marker size changes redraw but never rebake.
	assert.Equal(t, prevID, c.Buffers().BakeID)
	assert.Equal(t, drawsBefore+3, r.draws)
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func TestPointerPressLasso(t *testing.T) {
	t.Parallel()

	c, r, pz, l := newTestController(t)
	tensor := seqTensor(t, 2, 2, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	pz.boxRow, pz.boxCol = 0, 0
	pz.wx, pz.wy = 0.25, -0.5
	drawsBefore := r.draws

	c.PointerPress(PointerEvent{X: 10, Y: 20, Width: 100, Height: 100, Button: ButtonLeft, Modifiers: ModShift})
	require.Len(t, l.points, 1)
	assert.Equal(t, [2]float32{0.25, -0.5}, l.points[0])
	assert.Equal(t, drawsBefore+1, r.draws)

	c.PointerPress(PointerEvent{Button: ButtonRight, Modifiers: ModShift})
	assert.Empty(t, l.points)
	assert.Equal(t, 1, l.clears)
}

func TestPointerPressEnlarge(t *testing.T) {
	t.Parallel()

	c, _, pz, _ := newTestController(t)
	tensor := seqTensor(t, 2, 2, 2)
	require.NoError(t, c.SetData(DataUpdate{
		Features:   tensor,
		Dimensions: []Dimension{ChannelFeature(0, 0), ChannelFeature(1, 1)},
	}))

	var got []EnlargeEvent
	c.OnEnlarge(func(ev EnlargeEvent) { got = append(got, ev) })

	pz.boxRow, pz.boxCol = 0, 1
	c.PointerPress(PointerEvent{Button: ButtonLeft, Modifiers: ModControl})

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Row)
	assert.Equal(t, 1, got[0].Col)
	assert.Equal(t, c.Matrix().At(0, 1), got[0].Dimensions)
}

func TestPointerPressIgnoredWithoutData(t *testing.T) {
	t.Parallel()

	c, _, _, l := newTestController(t)
	c.PointerPress(PointerEvent{Button: ButtonLeft, Modifiers: ModShift})
	assert.Empty(t, l.points)
}

func TestKeyPressMarkerStep(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t)
	tensor := seqTensor(t, 2, 1, 2)
	require.NoError(t, c.SetData(DataUpdate{Features: tensor}))

	c.KeyPress(KeyEvent{Key: '+', Modifiers: ModAlt})
	assert.Equal(t, DefaultMarkerSize+0.25, c.MarkerSize())

	c.KeyPress(KeyEvent{Key: '-', Modifiers: ModAlt})
	c.KeyPress(KeyEvent{Key: '-', Modifiers: ModAlt})
	assert.Equal(t, DefaultMarkerSize-0.25, c.MarkerSize())

	// Without alt the keys do nothing.
	c.KeyPress(KeyEvent{Key: '+'})
	assert.Equal(t, DefaultMarkerSize-0.25, c.MarkerSize())
}
