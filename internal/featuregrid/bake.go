package featuregrid

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BakeCaps selects which optional buffers a bake produces. The primary
// spike layer bakes with both enabled; the background layer carries neither
// masks nor cluster identity and bakes with both disabled.
type BakeCaps struct {
	WithMasks    bool
	WithClusters bool
}

// BakeInput bundles everything one bake pass reads. Features and Matrix are
// required. Masks defaults to all-ones and SpikeClusters to all-zero when
// the relevant capability is enabled and the field is nil. ClusterOrder nil
// means the sorted unique ids of SpikeClusters. Times nil means implicit
// index times.
type BakeInput struct {
	Features      *FeatureTensor
	Masks         *MaskMatrix
	Matrix        *DimensionsMatrix
	SpikeClusters []int
	ClusterOrder  []int
	Times         []float64
}

// BakedBuffers is the flat, renderer-ready output of one bake pass. All
// slices are box-major: the block for box k covers point indices
// [k*Spikes, (k+1)*Spikes). Positions interleaves (x, y) pairs, so it is
// twice as long as the other buffers. Masks and Clusters are nil when the
// bake ran without the matching capability. Buffers are never mutated after
// a bake; each rebake replaces them wholesale.
type BakedBuffers struct {
	BakeID       uuid.UUID
	BakedAt      time.Time
	Positions    []float32
	Masks        []float32
	Boxes        []float32
	Clusters     []float32
	Rows         int
	Spikes       int
	ClusterCount int
}

// NPoints returns the total point count across all boxes.
func (b *BakedBuffers) NPoints() int { return b.Rows * b.Rows * b.Spikes }

// ClusterOrderOf returns the sorted unique cluster ids present in
// spikeClusters, the default display order.
func ClusterOrderOf(spikeClusters []int) []int {
	seen := make(map[int]struct{}, len(spikeClusters))
	order := make([]int, 0, len(spikeClusters))
	for _, id := range spikeClusters {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}
	sort.Ints(order)
	return order
}

// Bake walks the dimensions matrix row-major and projects every spike into
// every cell, producing the flat buffer set in a single pass. For each cell
// the mask weight comes from the y dimension alone: a channel/feature y axis
// pulls that channel's mask column, a time y axis is fully visible. Cluster
// values are the dense index of each spike's id within the cluster order,
// repeated per box.
func Bake(in BakeInput, caps BakeCaps) (*BakedBuffers, error) {
	if in.Features == nil {
		return nil, fmt.Errorf("%w: bake needs a feature tensor", ErrInvalidConfiguration)
	}
	if in.Matrix == nil {
		return nil, fmt.Errorf("%w: bake needs a dimensions matrix", ErrInvalidConfiguration)
	}
	nSpikes := in.Features.NSpikes()
	nChannels := in.Features.NChannels()
	nFeatures := in.Features.NFeatures()
	if err := in.Matrix.Validate(nChannels, nFeatures); err != nil {
		return nil, err
	}

	masks := in.Masks
	if caps.WithMasks {
		if masks == nil {
			masks = OnesMask(nSpikes, nChannels)
		}
		if masks.NSpikes() != nSpikes || masks.NChannels() != nChannels {
			return nil, fmt.Errorf("%w: masks are (%d, %d), features need (%d, %d)",
				ErrShapeMismatch, masks.NSpikes(), masks.NChannels(), nSpikes, nChannels)
		}
	}

	var clusterIndex []float32
	clusterCount := 0
	if caps.WithClusters {
		spikeClusters := in.SpikeClusters
		if spikeClusters == nil {
			spikeClusters = make([]int, nSpikes)
		}
		if len(spikeClusters) != nSpikes {
			return nil, fmt.Errorf("%w: %d spike clusters for %d spikes",
				ErrShapeMismatch, len(spikeClusters), nSpikes)
		}
		order := in.ClusterOrder
		if order == nil {
			order = ClusterOrderOf(spikeClusters)
		}
		dense := make(map[int]int, len(order))
		for i, id := range order {
			dense[id] = i
		}
		clusterIndex = make([]float32, nSpikes)
		for s, id := range spikeClusters {
			idx, ok := dense[id]
			if !ok {
				return nil, fmt.Errorf("%w: spike %d has cluster %d, not in cluster order %v",
					ErrShapeMismatch, s, id, order)
			}
			clusterIndex[s] = float32(idx)
		}
		clusterCount = len(order)
	}

	projector, err := NewProjector(in.Features, in.Times)
	if err != nil {
		return nil, err
	}

	rows := in.Matrix.Rows()
	nBoxes := in.Matrix.Boxes()
	nPoints := nBoxes * nSpikes

	out := &BakedBuffers{
		BakeID:       uuid.New(),
		BakedAt:      time.Now(),
		Positions:    make([]float32, 0, 2*nPoints),
		Boxes:        make([]float32, 0, nPoints),
		Rows:         rows,
		Spikes:       nSpikes,
		ClusterCount: clusterCount,
	}
	if caps.WithMasks {
		out.Masks = make([]float32, 0, nPoints)
	}
	if caps.WithClusters {
		out.Clusters = make([]float32, 0, nPoints)
	}

	ones := make([]float32, nSpikes)
	for i := range ones {
		ones[i] = 1
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			pair := in.Matrix.At(i, j)
			pos, err := projector.Project(pair)
			if err != nil {
				return nil, fmt.Errorf("box (%d, %d): %w", i, j, err)
			}
			out.Positions = append(out.Positions, pos...)

			box := float32(in.Matrix.BoxIndex(i, j))
			for s := 0; s < nSpikes; s++ {
				out.Boxes = append(out.Boxes, box)
			}

			if caps.WithMasks {
				if pair.Y.IsTime() {
					out.Masks = append(out.Masks, ones...)
				} else {
					out.Masks = append(out.Masks, masks.Column(pair.Y.Channel)...)
				}
			}
			if caps.WithClusters {
				out.Clusters = append(out.Clusters, clusterIndex...)
			}
		}
	}

	if len(out.Positions) != 2*nPoints || len(out.Boxes) != nPoints {
		return nil, fmt.Errorf("%w: baked %d positions and %d boxes, wanted %d and %d",
			ErrShapeMismatch, len(out.Positions), len(out.Boxes), 2*nPoints, nPoints)
	}
	if caps.WithMasks && len(out.Masks) != nPoints {
		return nil, fmt.Errorf("%w: baked %d masks, wanted %d", ErrShapeMismatch, len(out.Masks), nPoints)
	}
	if caps.WithClusters && len(out.Clusters) != nPoints {
		return nil, fmt.Errorf("%w: baked %d cluster values, wanted %d", ErrShapeMismatch, len(out.Clusters), nPoints)
	}
	return out, nil
}
