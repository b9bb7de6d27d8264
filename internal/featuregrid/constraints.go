package featuregrid

import "github.com/chewxy/math32"

// AxisLock names which axes of a box refuse pan and zoom.
type AxisLock uint8

const (
	// LockNone leaves both axes free.
	LockNone AxisLock = iota
	// LockX pins the x axis to its constrained range.
	LockX
	// LockY pins the y axis to its constrained range.
	LockY
	// LockBoth pins both axes.
	LockBoth
)

// LocksX reports whether the x axis is pinned.
func (l AxisLock) LocksX() bool { return l == LockX || l == LockBoth }

// LocksY reports whether the y axis is pinned.
func (l AxisLock) LocksY() bool { return l == LockY || l == LockBoth }

func (l AxisLock) String() string {
	switch l {
	case LockX:
		return "x"
	case LockY:
		return "y"
	case LockBoth:
		return "both"
	default:
		return "none"
	}
}

// BoxConstraint is the navigation envelope of one grid box. Range bounds are
// NaN when the axis is unconstrained; a time axis is pinned to [-1, 1].
type BoxConstraint struct {
	XMin, XMax float32
	YMin, YMax float32
	Lock       AxisLock
}

// ConstrainsX reports whether the x range is bounded.
func (c BoxConstraint) ConstrainsX() bool {
	return !math32.IsNaN(c.XMin) && !math32.IsNaN(c.XMax)
}

// ConstrainsY reports whether the y range is bounded.
func (c BoxConstraint) ConstrainsY() bool {
	return !math32.IsNaN(c.YMin) && !math32.IsNaN(c.YMax)
}

// ConstraintTable holds the per-box navigation constraints of a grid, in the
// same row-major box order as the baked buffers. DefaultBox is the box a
// navigation service should activate first: the first cell whose y axis is
// not time, or -1 when every cell's y axis is time.
type ConstraintTable struct {
	Boxes      []BoxConstraint
	Rows       int
	DefaultBox int
}

// At returns the constraint of cell (i, j).
func (t ConstraintTable) At(i, j int) BoxConstraint {
	return t.Boxes[t.Rows*i+j]
}

// SolveConstraints derives the navigation constraints from a dimensions
// matrix. Every axis starts unconstrained; a time dimension pins its axis to
// [-1, 1] and locks it, and a cell with time on both axes locks completely.
func SolveConstraints(matrix *DimensionsMatrix) ConstraintTable {
	rows := matrix.Rows()
	table := ConstraintTable{
		Boxes:      make([]BoxConstraint, matrix.Boxes()),
		Rows:       rows,
		DefaultBox: -1,
	}
	nan := math32.NaN()
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			pair := matrix.At(i, j)
			c := BoxConstraint{XMin: nan, XMax: nan, YMin: nan, YMax: nan, Lock: LockNone}
			if pair.X.IsTime() {
				c.XMin, c.XMax = -1, 1
				c.Lock = LockX
			}
			if pair.Y.IsTime() {
				c.YMin, c.YMax = -1, 1
				if c.Lock == LockX {
					c.Lock = LockBoth
				} else {
					c.Lock = LockY
				}
			} else if table.DefaultBox < 0 {
				table.DefaultBox = matrix.BoxIndex(i, j)
			}
			table.Boxes[matrix.BoxIndex(i, j)] = c
		}
	}
	return table
}
