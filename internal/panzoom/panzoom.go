// Package panzoom tracks per-box pan and zoom state for a square grid view
// and answers the pixel lookups the event layer needs. It implements the
// navigation contract of internal/featuregrid: a constraint table pins time
// axes to their fixed range, and pan or zoom motion never takes a
// constrained axis beyond its bounds.
package panzoom

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/banshee-data/spikeview/internal/featuregrid"
)

const (
	minZoom float32 = 1e-5
	maxZoom float32 = 1e5
)

// boxState is one box's navigation state. The world-to-box mapping is
// local = zoom * (world + pan), so world = local/zoom - pan.
type boxState struct {
	panX, panY   float32
	zoomX, zoomY float32
}

func freshBox() boxState { return boxState{zoomX: 1, zoomY: 1} }

// Grid is the pan/zoom service for one feature grid. Like the controller it
// serves, it is single-goroutine state with no locking.
type Grid struct {
	rows   int
	boxes  []boxState
	table  featuregrid.ConstraintTable
	active int
}

var _ featuregrid.PanZoomService = (*Grid)(nil)

// New returns a grid with no boxes; SetRows and ApplyConstraints bring it
// into service.
func New() *Grid {
	return &Grid{active: -1}
}

// SetRows resizes the grid, resetting every box's pan and zoom when the row
// count actually changes.
func (g *Grid) SetRows(rows int) {
	if rows == g.rows {
		return
	}
	g.rows = rows
	g.boxes = make([]boxState, rows*rows)
	for i := range g.boxes {
		g.boxes[i] = freshBox()
	}
	g.table = featuregrid.ConstraintTable{Rows: rows, DefaultBox: -1}
	g.active = -1
}

// Rows returns the grid side length.
func (g *Grid) Rows() int { return g.rows }

// ApplyConstraints installs a new constraint table, re-clamps every box
// against it and activates the table's default box.
func (g *Grid) ApplyConstraints(t featuregrid.ConstraintTable) {
	g.table = t
	g.active = t.DefaultBox
	for i := range g.boxes {
		g.reclamp(i)
	}
}

// ActiveBox returns the flat index of the active box, -1 when none.
func (g *Grid) ActiveBox() int { return g.active }

// SetActiveBox activates the box pan and zoom operate on.
func (g *Grid) SetActiveBox(i int) error {
	if i < 0 || i >= len(g.boxes) {
		return fmt.Errorf("box %d out of range [0, %d)", i, len(g.boxes))
	}
	g.active = i
	return nil
}

func (g *Grid) constraintFor(i int) featuregrid.BoxConstraint {
	if i >= 0 && i < len(g.table.Boxes) {
		return g.table.Boxes[i]
	}
	nan := math32.NaN()
	return featuregrid.BoxConstraint{XMin: nan, XMax: nan, YMin: nan, YMax: nan}
}

// Pan shifts the active box by (dx, dy) in world units. Constrained axes
// stop at their bounds, which at zoom 1 on a locked axis means no motion.
func (g *Grid) Pan(dx, dy float32) {
	if g.active < 0 || g.active >= len(g.boxes) {
		return
	}
	b := &g.boxes[g.active]
	c := g.constraintFor(g.active)
	b.panX = clampPan(b.panX+dx, b.zoomX, c.XMin, c.XMax)
	b.panY = clampPan(b.panY+dy, b.zoomY, c.YMin, c.YMax)
}

// Zoom scales the active box's zoom by (fx, fy). A constrained axis never
// zooms out past showing its full fixed range.
func (g *Grid) Zoom(fx, fy float32) {
	if g.active < 0 || g.active >= len(g.boxes) {
		return
	}
	b := &g.boxes[g.active]
	c := g.constraintFor(g.active)
	b.zoomX = clampZoom(b.zoomX*fx, c.XMin, c.XMax)
	b.zoomY = clampZoom(b.zoomY*fy, c.YMin, c.YMax)
	b.panX = clampPan(b.panX, b.zoomX, c.XMin, c.XMax)
	b.panY = clampPan(b.panY, b.zoomY, c.YMin, c.YMax)
}

// Reset restores every box to the untouched view.
func (g *Grid) Reset() {
	for i := range g.boxes {
		g.boxes[i] = freshBox()
		g.reclamp(i)
	}
}

func (g *Grid) reclamp(i int) {
	if i < 0 || i >= len(g.boxes) {
		return
	}
	b := &g.boxes[i]
	c := g.constraintFor(i)
	b.zoomX = clampZoom(b.zoomX, c.XMin, c.XMax)
	b.zoomY = clampZoom(b.zoomY, c.YMin, c.YMax)
	b.panX = clampPan(b.panX, b.zoomX, c.XMin, c.XMax)
	b.panY = clampPan(b.panY, b.zoomY, c.YMin, c.YMax)
}

// Range returns the visible world rectangle of box i.
func (g *Grid) Range(i int) (xmin, xmax, ymin, ymax float32) {
	if i < 0 || i >= len(g.boxes) {
		return -1, 1, -1, 1
	}
	b := g.boxes[i]
	return -1/b.zoomX - b.panX, 1/b.zoomX - b.panX,
		-1/b.zoomY - b.panY, 1/b.zoomY - b.panY
}

// BoxAt maps a pixel position within a width x height viewport to the
// (row, col) of the box under it, clamping positions outside the viewport
// to the nearest edge box.
func (g *Grid) BoxAt(x, y, width, height float64) (row, col int) {
	if g.rows == 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	col = clampIndex(int(x/(width/float64(g.rows))), g.rows)
	row = clampIndex(int(y/(height/float64(g.rows))), g.rows)
	return row, col
}

// WorldAt maps a pixel position to world coordinates inside the box under
// it, flipping pixel y (down) to world y (up) and undoing that box's pan
// and zoom.
func (g *Grid) WorldAt(x, y, width, height float64) (wx, wy float32) {
	if g.rows == 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	row, col := g.BoxAt(x, y, width, height)
	cellW := width / float64(g.rows)
	cellH := height / float64(g.rows)
	lx := float32(-1 + 2*(x-float64(col)*cellW)/cellW)
	ly := float32(1 - 2*(y-float64(row)*cellH)/cellH)

	b := g.boxes[g.rows*row+col]
	return lx/b.zoomX - b.panX, ly/b.zoomY - b.panY
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// clampZoom keeps zoom within [minZoom, maxZoom], tightening the lower
// bound so a constrained axis always fits inside its range.
func clampZoom(z, min, max float32) float32 {
	lo := minZoom
	if !math32.IsNaN(min) && !math32.IsNaN(max) && max > min {
		lo = 2 / (max - min)
	}
	return math32.Min(math32.Max(z, lo), maxZoom)
}

// clampPan keeps the visible range [-1/z - pan, 1/z - pan] inside a
// constrained axis's [min, max].
func clampPan(p, z, min, max float32) float32 {
	if math32.IsNaN(min) || math32.IsNaN(max) {
		return p
	}
	lo := 1/z - max
	hi := -1/z - min
	if lo > hi {
		return -(min + max) / 2
	}
	return math32.Min(math32.Max(p, lo), hi)
}
