package featuregrid

import "fmt"

// DimensionPair is the (x, y) dimension assignment of one grid cell.
type DimensionPair struct {
	X Dimension
	Y Dimension
}

// DimensionsMatrix is the square, row-major table of dimension pairs that
// defines what every cell of the scatter grid displays. Cell (i, j) lives at
// flat box index rows*i + j, counting left to right, top to bottom.
type DimensionsMatrix struct {
	pairs []DimensionPair
	rows  int
}

// NewDimensionsMatrix wraps a row-major pair slice as an n x n matrix.
func NewDimensionsMatrix(pairs []DimensionPair, rows int) (*DimensionsMatrix, error) {
	if rows < 1 {
		return nil, fmt.Errorf("%w: dimensions matrix needs at least one row, got %d", ErrShapeMismatch, rows)
	}
	if len(pairs) != rows*rows {
		return nil, fmt.Errorf("%w: dimensions matrix has %d cells, %dx%d needs %d",
			ErrShapeMismatch, len(pairs), rows, rows, rows*rows)
	}
	return &DimensionsMatrix{pairs: pairs, rows: rows}, nil
}

// Rows returns the side length of the square matrix.
func (m *DimensionsMatrix) Rows() int { return m.rows }

// Boxes returns the total cell count, rows squared.
func (m *DimensionsMatrix) Boxes() int { return m.rows * m.rows }

// At returns the dimension pair of cell (i, j).
func (m *DimensionsMatrix) At(i, j int) DimensionPair {
	return m.pairs[m.rows*i+j]
}

// BoxIndex returns the flat box index of cell (i, j).
func (m *DimensionsMatrix) BoxIndex(i, j int) int {
	return m.rows*i + j
}

// Validate checks every cell dimension against the tensor shape.
func (m *DimensionsMatrix) Validate(nChannels, nFeatures int) error {
	for idx, p := range m.pairs {
		if err := p.X.Validate(nChannels, nFeatures); err != nil {
			return fmt.Errorf("cell %d x axis: %w", idx, err)
		}
		if err := p.Y.Validate(nChannels, nFeatures); err != nil {
			return fmt.Errorf("cell %d y axis: %w", idx, err)
		}
	}
	return nil
}

// AlternativeDimension picks a companion axis for a cell whose two requested
// dimensions coincide. Time pairs with column (0, 0). A feature column pairs
// with the next feature on the same channel when there are at least two
// features, otherwise with the same feature on the next channel, and with
// time as the last resort on a 1x1 tensor.
func AlternativeDimension(d Dimension, nChannels, nFeatures int) (Dimension, error) {
	if nChannels < 1 || nFeatures < 1 {
		return Dimension{}, fmt.Errorf("%w: need at least one channel and one feature, got (%d, %d)",
			ErrInvalidConfiguration, nChannels, nFeatures)
	}
	if d.IsTime() {
		return ChannelFeature(0, 0), nil
	}
	switch {
	case nFeatures >= 2:
		return ChannelFeature(d.Channel, (d.Feature+1)%nFeatures), nil
	case nChannels >= 2:
		return ChannelFeature((d.Channel+1)%nChannels, d.Feature), nil
	default:
		return TimeDim(), nil
	}
}

// ResolveMatrix expands a requested dimension list into the full n x n
// matrix. Cell (i, j) pairs requested[i] on x with requested[j] on y. When
// the two coincide the y axis is replaced by the alternative dimension, and
// if that alternative is time the pair is swapped so time ends up on x.
func ResolveMatrix(requested []Dimension, nChannels, nFeatures int) (*DimensionsMatrix, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no dimensions requested", ErrInvalidDimension)
	}
	for i, d := range requested {
		if err := d.Validate(nChannels, nFeatures); err != nil {
			return nil, fmt.Errorf("requested dimension %d: %w", i, err)
		}
	}
	rows := len(requested)
	pairs := make([]DimensionPair, 0, rows*rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			x, y := requested[i], requested[j]
			if x == y {
				alt, err := AlternativeDimension(x, nChannels, nFeatures)
				if err != nil {
					return nil, err
				}
				y = alt
				if y.IsTime() {
					x, y = y, x
				}
			}
			pairs = append(pairs, DimensionPair{X: x, Y: y})
		}
	}
	return NewDimensionsMatrix(pairs, rows)
}
