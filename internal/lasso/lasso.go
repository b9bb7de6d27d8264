// Package lasso accumulates a free-form selection polygon over one grid box
// and resolves which baked points fall inside it.
package lasso

import "github.com/banshee-data/spikeview/internal/featuregrid"

// Polygon is the lasso overlay for one feature grid. Points live in the
// world coordinates of a single box; switching box or grid size discards
// the polygon, since its coordinates are meaningless elsewhere.
type Polygon struct {
	rows     int
	row, col int
	points   [][2]float32
}

var _ featuregrid.LassoOverlay = (*Polygon)(nil)

// New returns an empty lasso.
func New() *Polygon {
	return &Polygon{}
}

// SetRows records the grid size, clearing the polygon when it changes.
func (p *Polygon) SetRows(rows int) {
	if rows != p.rows {
		p.points = nil
	}
	p.rows = rows
}

// SetBox moves the lasso to a box, clearing the polygon when the box
// changes.
func (p *Polygon) SetBox(row, col int) {
	if row != p.row || col != p.col {
		p.points = nil
	}
	p.row, p.col = row, col
}

// Box returns the (row, col) the polygon lives in.
func (p *Polygon) Box() (row, col int) { return p.row, p.col }

// Add appends one vertex in box world coordinates.
func (p *Polygon) Add(x, y float32) {
	p.points = append(p.points, [2]float32{x, y})
}

// Clear discards the polygon.
func (p *Polygon) Clear() {
	p.points = nil
}

// Count returns the vertex count.
func (p *Polygon) Count() int { return len(p.points) }

// Points returns a copy of the vertices in insertion order.
func (p *Polygon) Points() [][2]float32 {
	out := make([][2]float32, len(p.points))
	copy(out, p.points)
	return out
}

// Contains reports whether (x, y) lies inside the polygon, by ray casting.
// Fewer than three vertices contain nothing.
func (p *Polygon) Contains(x, y float32) bool {
	n := len(p.points)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := p.points[i], p.points[j]
		if (pi[1] > y) != (pj[1] > y) &&
			x < (pj[0]-pi[0])*(y-pi[1])/(pj[1]-pi[1])+pi[0] {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Select returns the spike indices of the lasso's box whose baked positions
// fall inside the polygon. The box block is located by the same row-major
// indexing the bake uses.
func (p *Polygon) Select(buf *featuregrid.BakedBuffers) []int {
	if buf == nil || len(p.points) < 3 || p.rows == 0 {
		return nil
	}
	box := p.rows*p.row + p.col
	if box < 0 || box >= p.rows*p.rows {
		return nil
	}
	var selected []int
	start := box * buf.Spikes
	for s := 0; s < buf.Spikes; s++ {
		x := buf.Positions[2*(start+s)]
		y := buf.Positions[2*(start+s)+1]
		if p.Contains(x, y) {
			selected = append(selected, s)
		}
	}
	return selected
}
