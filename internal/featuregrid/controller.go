package featuregrid

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/banshee-data/spikeview/internal/monitoring"
	"github.com/banshee-data/spikeview/internal/palette"
)

const (
	// DefaultMarkerSize is the marker size a fresh controller starts with.
	DefaultMarkerSize float32 = 3

	// MinMarkerSize and MaxMarkerSize bound SetMarkerSize.
	MinMarkerSize float32 = 0.1
	MaxMarkerSize float32 = 100

	markerSizeStep float32 = 0.25
)

// Uniforms are the scalar values a renderer needs alongside the buffers.
type Uniforms struct {
	Rows         int
	ClusterCount int
	MarkerSize   float32
}

// Renderer consumes baked buffers and draw requests. Implementations hold
// only a transient view of the buffers; every rebake hands over a fresh set.
type Renderer interface {
	UpdatePrimary(*BakedBuffers)
	UpdateBackground(*BakedBuffers)
	SetUniforms(Uniforms)
	SetClusterColors([]color.RGBA)
	RequestDraw()
}

// PanZoomService is the navigation collaborator. It receives the constraint
// table after every rebake and answers pixel lookups for event handling.
type PanZoomService interface {
	SetRows(rows int)
	ApplyConstraints(ConstraintTable)
	// BoxAt maps a pixel position within a width x height viewport to the
	// (row, col) of the box under it.
	BoxAt(x, y, width, height float64) (row, col int)
	// WorldAt maps a pixel position to world coordinates within the box
	// under it, undoing that box's pan and zoom.
	WorldAt(x, y, width, height float64) (wx, wy float32)
}

// LassoOverlay is the polygon-selection collaborator.
type LassoOverlay interface {
	SetRows(rows int)
	SetBox(row, col int)
	Add(x, y float32)
	Clear()
}

// Collaborators bundles the external services a controller drives. Any field
// may be nil, in which case the controller skips the related notifications.
type Collaborators struct {
	Renderer Renderer
	PanZoom  PanZoomService
	Lasso    LassoOverlay
}

// DataUpdate carries one SetData call. Features is required on the first
// call and optional afterwards (nil keeps the current tensor). Masks reset
// to all-ones and SpikeClusters to all-zero when nil. Dimensions is consulted
// only while no dimensions matrix is set yet, defaulting to channel 0
// feature 0. Colors defaults to the derived cluster palette. Background and
// BackgroundTimes describe the optional underlay tensor.
type DataUpdate struct {
	Features        *FeatureTensor
	Dimensions      []Dimension
	Masks           *MaskMatrix
	SpikeClusters   []int
	SpikeTimes      []float64
	Background      *FeatureTensor
	BackgroundTimes []float64
	Colors          []color.RGBA
}

// Controller owns the view state of one feature grid: the tensors, the
// dimensions matrix, cluster assignment and colors, and the latest baked
// buffers. All methods are synchronous and must be called from a single
// goroutine; the controller takes no locks. A failed update leaves every
// field and buffer exactly as the last successful call left them.
type Controller struct {
	collab Collaborators

	features     *FeatureTensor
	background   *FeatureTensor
	masks        *MaskMatrix
	matrix       *DimensionsMatrix
	clusters     []int
	clusterOrder []int
	times        []float64
	bgTimes      []float64
	colors       []color.RGBA
	markerSize   float32

	primary     *BakedBuffers
	underlay    *BakedBuffers
	constraints ConstraintTable

	enlargeHandlers []func(EnlargeEvent)
}

// NewController returns an empty controller wired to the given
// collaborators.
func NewController(collab Collaborators) *Controller {
	return &Controller{collab: collab, markerSize: DefaultMarkerSize}
}

// SetData replaces the displayed data in one synchronous pass: validate,
// fill defaults, bake both layers, solve constraints, then commit and notify
// the collaborators. Any validation or bake failure returns before anything
// is committed.
func (c *Controller) SetData(u DataUpdate) error {
	features := u.Features
	if features == nil {
		features = c.features
	}
	if features == nil {
		return fmt.Errorf("%w: no feature tensor set", ErrInvalidConfiguration)
	}
	nSpikes := features.NSpikes()
	nChannels := features.NChannels()
	nFeatures := features.NFeatures()

	clusters := u.SpikeClusters
	if clusters == nil {
		clusters = make([]int, nSpikes)
	}
	if len(clusters) != nSpikes {
		return fmt.Errorf("%w: %d spike clusters for %d spikes", ErrShapeMismatch, len(clusters), nSpikes)
	}
	order := ClusterOrderOf(clusters)

	masks := u.Masks
	if masks == nil {
		masks = OnesMask(nSpikes, nChannels)
	}
	if masks.NSpikes() != nSpikes || masks.NChannels() != nChannels {
		return fmt.Errorf("%w: masks are (%d, %d), features need (%d, %d)",
			ErrShapeMismatch, masks.NSpikes(), masks.NChannels(), nSpikes, nChannels)
	}

	times := u.SpikeTimes
	if times == nil && c.times != nil && len(c.times) == nSpikes {
		times = c.times
	}
	if times != nil && len(times) != nSpikes {
		return fmt.Errorf("%w: %d spike times for %d spikes", ErrShapeMismatch, len(times), nSpikes)
	}

	colors := u.Colors
	if colors == nil {
		colors = palette.ClusterColors(len(order))
	}
	if len(colors) != len(order) {
		return fmt.Errorf("%w: %d colors for %d clusters", ErrShapeMismatch, len(colors), len(order))
	}

	background := u.Background
	bgTimes := u.BackgroundTimes
	if background == nil {
		background = c.background
		if bgTimes == nil {
			bgTimes = c.bgTimes
		}
	}
	if background != nil {
		if background.NChannels() != nChannels || background.NFeatures() != nFeatures {
			return fmt.Errorf("%w: background tensor is (%d, %d), foreground is (%d, %d)",
				ErrShapeMismatch, background.NChannels(), background.NFeatures(), nChannels, nFeatures)
		}
		if bgTimes != nil && len(bgTimes) != background.NSpikes() {
			return fmt.Errorf("%w: %d background times for %d background spikes",
				ErrShapeMismatch, len(bgTimes), background.NSpikes())
		}
	}

	matrix := c.matrix
	if matrix == nil {
		dims := u.Dimensions
		if len(dims) == 0 {
			dims = []Dimension{ChannelFeature(0, 0)}
		}
		resolved, err := ResolveMatrix(dims, nChannels, nFeatures)
		if err != nil {
			return err
		}
		matrix = resolved
	}

	primary, err := Bake(BakeInput{
		Features:      features,
		Masks:         masks,
		Matrix:        matrix,
		SpikeClusters: clusters,
		ClusterOrder:  order,
		Times:         times,
	}, BakeCaps{WithMasks: true, WithClusters: true})
	if err != nil {
		return err
	}

	var underlay *BakedBuffers
	if background != nil {
		underlay, err = Bake(BakeInput{
			Features: background,
			Matrix:   matrix,
			Times:    bgTimes,
		}, BakeCaps{})
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}

	table := SolveConstraints(matrix)

	c.features = features
	c.background = background
	c.masks = masks
	c.matrix = matrix
	c.clusters = clusters
	c.clusterOrder = order
	c.times = times
	c.bgTimes = bgTimes
	c.colors = colors
	c.primary = primary
	c.underlay = underlay
	c.constraints = table

	monitoring.Debugf("[FeatureGrid] baked %d points across %d boxes (bake %s)",
		primary.NPoints(), matrix.Boxes(), primary.BakeID)
	c.notifyAll()
	return nil
}

// SetDimensionsMatrix swaps in a new dimensions matrix, rebakes both layers
// and recomputes constraints. Out-of-range cells fail with
// ErrInvalidDimension and the previous matrix stays in place.
func (c *Controller) SetDimensionsMatrix(matrix *DimensionsMatrix) error {
	if matrix == nil {
		return fmt.Errorf("%w: nil dimensions matrix", ErrInvalidConfiguration)
	}
	if c.features == nil {
		return fmt.Errorf("%w: no feature tensor set", ErrInvalidConfiguration)
	}
	if err := matrix.Validate(c.features.NChannels(), c.features.NFeatures()); err != nil {
		return err
	}

	primary, err := Bake(BakeInput{
		Features:      c.features,
		Masks:         c.masks,
		Matrix:        matrix,
		SpikeClusters: c.clusters,
		ClusterOrder:  c.clusterOrder,
		Times:         c.times,
	}, BakeCaps{WithMasks: true, WithClusters: true})
	if err != nil {
		return err
	}

	var underlay *BakedBuffers
	if c.background != nil {
		underlay, err = Bake(BakeInput{
			Features: c.background,
			Matrix:   matrix,
			Times:    c.bgTimes,
		}, BakeCaps{})
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}

	c.matrix = matrix
	c.primary = primary
	c.underlay = underlay
	c.constraints = SolveConstraints(matrix)

	monitoring.Debugf("[FeatureGrid] dimensions matrix now %dx%d", matrix.Rows(), matrix.Rows())
	c.notifyAll()
	return nil
}

// SetDimensions resolves a requested dimension list into a full matrix and
// installs it.
func (c *Controller) SetDimensions(dims []Dimension) error {
	if c.features == nil {
		return fmt.Errorf("%w: no feature tensor set", ErrInvalidConfiguration)
	}
	matrix, err := ResolveMatrix(dims, c.features.NChannels(), c.features.NFeatures())
	if err != nil {
		return err
	}
	return c.SetDimensionsMatrix(matrix)
}

// notifyAll pushes the committed state to every present collaborator.
func (c *Controller) notifyAll() {
	rows := c.matrix.Rows()
	if r := c.collab.Renderer; r != nil {
		r.UpdatePrimary(c.primary)
		r.UpdateBackground(c.underlay)
		r.SetClusterColors(c.colors)
		r.SetUniforms(Uniforms{Rows: rows, ClusterCount: len(c.clusterOrder), MarkerSize: c.markerSize})
		r.RequestDraw()
	}
	if pz := c.collab.PanZoom; pz != nil {
		pz.SetRows(rows)
		pz.ApplyConstraints(c.constraints)
	}
	if l := c.collab.Lasso; l != nil {
		l.SetRows(rows)
	}
}

// MarkerSize returns the current marker size.
func (c *Controller) MarkerSize() float32 { return c.markerSize }

// SetMarkerSize clamps v to [MinMarkerSize, MaxMarkerSize] and requests a
// redraw. No rebake happens; marker size is a renderer uniform.
func (c *Controller) SetMarkerSize(v float32) {
	c.markerSize = math32.Min(math32.Max(v, MinMarkerSize), MaxMarkerSize)
	if r := c.collab.Renderer; r != nil {
		r.SetUniforms(Uniforms{Rows: c.Rows(), ClusterCount: len(c.clusterOrder), MarkerSize: c.markerSize})
		r.RequestDraw()
	}
}

// Buffers returns the latest primary baked buffers, nil before the first
// successful SetData.
func (c *Controller) Buffers() *BakedBuffers { return c.primary }

// BackgroundBuffers returns the latest background buffers, nil when no
// background tensor is set.
func (c *Controller) BackgroundBuffers() *BakedBuffers { return c.underlay }

// Matrix returns the current dimensions matrix, nil before the first
// successful SetData.
func (c *Controller) Matrix() *DimensionsMatrix { return c.matrix }

// Constraints returns the current per-box constraint table.
func (c *Controller) Constraints() ConstraintTable { return c.constraints }

// Rows returns the grid side length, 0 before the first successful SetData.
func (c *Controller) Rows() int {
	if c.matrix == nil {
		return 0
	}
	return c.matrix.Rows()
}

// ClusterCount returns the number of distinct clusters on display.
func (c *Controller) ClusterCount() int { return len(c.clusterOrder) }

// ClusterOrder returns the display order of cluster ids backing the dense
// cluster buffer.
func (c *Controller) ClusterOrder() []int { return c.clusterOrder }

// Colors returns the per-cluster colors in cluster order.
func (c *Controller) Colors() []color.RGBA { return c.colors }
