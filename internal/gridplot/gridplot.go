// Package gridplot renders baked feature-grid buffers to a static image.
// It is the default Renderer collaborator: the scatter matrix is drawn as
// one square figure, each box occupying a unit cell, with the background
// layer beneath the cluster-colored primary layer.
package gridplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/spikeview/internal/featuregrid"
	"github.com/banshee-data/spikeview/internal/monitoring"
)

var backgroundGrey = color.RGBA{R: 0x9a, G: 0x9a, B: 0x9a, A: 0x50}

// Renderer accumulates the latest buffers and uniforms pushed by the
// controller and turns them into a figure on demand. Draw requests are
// counted rather than acted on; the owning tool decides when to save.
type Renderer struct {
	primary    *featuregrid.BakedBuffers
	background *featuregrid.BakedBuffers
	uniforms   featuregrid.Uniforms
	colors     []color.RGBA
	draws      int
}

var _ featuregrid.Renderer = (*Renderer)(nil)

// New returns an empty renderer.
func New() *Renderer {
	return &Renderer{}
}

// UpdatePrimary installs the primary spike buffers.
func (r *Renderer) UpdatePrimary(b *featuregrid.BakedBuffers) { r.primary = b }

// UpdateBackground installs the background buffers, nil to clear.
func (r *Renderer) UpdateBackground(b *featuregrid.BakedBuffers) { r.background = b }

// SetUniforms installs the scalar draw parameters.
func (r *Renderer) SetUniforms(u featuregrid.Uniforms) { r.uniforms = u }

// SetClusterColors installs the per-cluster palette.
func (r *Renderer) SetClusterColors(c []color.RGBA) { r.colors = c }

// RequestDraw records that the view wants repainting.
func (r *Renderer) RequestDraw() { r.draws++ }

// DrawRequests returns how many redraws have been requested since creation.
func (r *Renderer) DrawRequests() int { return r.draws }

// cellXY maps a world position inside box (in row-major order) to figure
// coordinates, one unit cell per box with row 0 at the top. Points outside
// the box's [-1, 1] viewport are clipped, reported by ok=false.
func cellXY(rows, box int, x, y float32) (fx, fy float64, ok bool) {
	if x < -1 || x > 1 || y < -1 || y > 1 {
		return 0, 0, false
	}
	i := box / rows
	j := box % rows
	fx = float64(j) + (float64(x)+1)/2
	fy = float64(rows-1-i) + (float64(y)+1)/2
	return fx, fy, true
}

// Figure builds the scatter-matrix figure from the current buffers.
func (r *Renderer) Figure() (*plot.Plot, error) {
	if r.primary == nil {
		return nil, fmt.Errorf("no baked buffers to render")
	}
	rows := r.uniforms.Rows
	if rows < 1 {
		return nil, fmt.Errorf("renderer has %d rows", rows)
	}

	p := plot.New()
	p.HideAxes()
	p.X.Min, p.X.Max = 0, float64(rows)
	p.Y.Min, p.Y.Max = 0, float64(rows)

	if err := r.addGridLines(p, rows); err != nil {
		return nil, err
	}
	if r.background != nil {
		if err := r.addLayer(p, r.background, rows, nil); err != nil {
			return nil, fmt.Errorf("background layer: %w", err)
		}
	}
	if err := r.addLayer(p, r.primary, rows, r.colors); err != nil {
		return nil, fmt.Errorf("primary layer: %w", err)
	}
	return p, nil
}

// addLayer adds one buffer set as scatter points. With a palette the points
// are grouped by cluster and colored, mask weights fading the glyphs; with
// a nil palette everything draws in the background grey.
func (r *Renderer) addLayer(p *plot.Plot, buf *featuregrid.BakedBuffers, rows int, palette []color.RGBA) error {
	type pt struct {
		x, y float64
		mask float32
	}
	groups := 1
	if palette != nil {
		groups = len(palette)
	}
	byCluster := make([][]pt, groups)

	nPoints := buf.NPoints()
	for i := 0; i < nPoints; i++ {
		box := int(buf.Boxes[i])
		fx, fy, ok := cellXY(rows, box, buf.Positions[2*i], buf.Positions[2*i+1])
		if !ok {
			continue
		}
		group := 0
		if palette != nil && buf.Clusters != nil {
			group = int(buf.Clusters[i])
			if group < 0 || group >= groups {
				continue
			}
		}
		mask := float32(1)
		if buf.Masks != nil {
			mask = buf.Masks[i]
		}
		byCluster[group] = append(byCluster[group], pt{x: fx, y: fy, mask: mask})
	}

	radius := vg.Points(float64(r.uniforms.MarkerSize)) / 2
	if radius <= 0 {
		radius = vg.Points(1.5)
	}
	for group, pts := range byCluster {
		if len(pts) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(pts))
		for i, q := range pts {
			xys[i] = plotter.XY{X: q.x, Y: q.y}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		base := backgroundGrey
		if palette != nil {
			base = palette[group]
		}
		masks := make([]float32, len(pts))
		for i, q := range pts {
			masks[i] = q.mask
		}
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			c := base
			c.A = uint8(40 + 215*masks[i])
			return draw.GlyphStyle{Color: c, Radius: radius, Shape: draw.CircleGlyph{}}
		}
		p.Add(scatter)
	}
	return nil
}

// addGridLines draws the box outlines at integer cell boundaries.
func (r *Renderer) addGridLines(p *plot.Plot, rows int) error {
	outline := color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	for k := 0; k <= rows; k++ {
		h, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: float64(k)}, {X: float64(rows), Y: float64(k)},
		})
		if err != nil {
			return err
		}
		h.Color = outline
		h.Width = vg.Points(0.5)
		p.Add(h)

		v, err := plotter.NewLine(plotter.XYs{
			{X: float64(k), Y: 0}, {X: float64(k), Y: float64(rows)},
		})
		if err != nil {
			return err
		}
		v.Color = outline
		v.Width = vg.Points(0.5)
		p.Add(v)
	}
	return nil
}

// SavePNG renders the current buffers to a square image file. The format
// follows the file extension, the way plot.Plot.Save resolves it.
func (r *Renderer) SavePNG(path string, inches float64) error {
	p, err := r.Figure()
	if err != nil {
		return err
	}
	if inches <= 0 {
		inches = 8
	}
	if err := p.Save(vg.Length(inches)*vg.Inch, vg.Length(inches)*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save grid image: %w", err)
	}
	monitoring.Logf("[GridPlot] wrote %s (%d boxes, %d points)", path, r.uniforms.Rows*r.uniforms.Rows, r.primary.NPoints())
	return nil
}
