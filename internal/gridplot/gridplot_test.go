package gridplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spikeview/internal/featuregrid"
)

func TestCellXY(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		rows, box int
		x, y      float32
		fx, fy    float64
		ok        bool
	}{
		{name: "centre of top-left box", rows: 2, box: 0, x: 0, y: 0, fx: 0.5, fy: 1.5, ok: true},
		{name: "corner of bottom-right box", rows: 2, box: 3, x: 1, y: -1, fx: 2, fy: 0, ok: true},
		{name: "top of box maps up", rows: 2, box: 2, x: -1, y: 1, fx: 0, fy: 1, ok: true},
		{name: "clipped right", rows: 2, box: 0, x: 1.5, y: 0, ok: false},
		{name: "clipped below", rows: 2, box: 0, x: 0, y: -1.01, ok: false},
		{name: "single box", rows: 1, box: 0, x: 0.5, y: 0.5, fx: 0.75, fy: 0.75, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx, fy, ok := cellXY(tc.rows, tc.box, tc.x, tc.y)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.InDelta(t, tc.fx, fx, 1e-9)
				assert.InDelta(t, tc.fy, fy, 1e-9)
			}
		})
	}
}

func TestFigureRequiresBuffers(t *testing.T) {
	t.Parallel()

	r := New()
	_, err := r.Figure()
	assert.Error(t, err)
}

func newBakedRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := New()
	c := featuregrid.NewController(featuregrid.Collaborators{Renderer: r})

	data := []float32{
		0.1, 0.2,
		-0.3, 0.4,
		0.5, -0.6,
	}
	tensor, err := featuregrid.NewFeatureMatrix(data, 3, 2)
	require.NoError(t, err)
	require.NoError(t, c.SetData(featuregrid.DataUpdate{
		Features:      tensor,
		Dimensions:    []featuregrid.Dimension{featuregrid.ChannelFeature(0, 0), featuregrid.ChannelFeature(1, 0)},
		SpikeClusters: []int{1, 1, 2},
	}))
	return r
}

func TestFigureFromControllerPush(t *testing.T) {
	t.Parallel()

	r := newBakedRenderer(t)
	assert.Equal(t, 2, r.uniforms.Rows)
	assert.Equal(t, 2, r.uniforms.ClusterCount)
	assert.Len(t, r.colors, 2)
	assert.Equal(t, 1, r.DrawRequests())

	p, err := r.Figure()
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSavePNG(t *testing.T) {
	t.Parallel()

	r := newBakedRenderer(t)
	out := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, r.SavePNG(out, 4))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
