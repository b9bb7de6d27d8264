package featuregrid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizeTimes maps spike times onto the [-0.8, 0.8] band of the world
// coordinate system: t -> (-1 + 2t/max)*0.8. A nil slice stands for implicit
// index times 0..nSpikes-1. When the maximum is not positive the times pass
// through unscaled, which keeps an all-zero recording at the box centre
// instead of dividing by zero.
func NormalizeTimes(times []float64, nSpikes int) []float32 {
	out := make([]float32, nSpikes)
	if nSpikes == 0 {
		return out
	}
	if times == nil {
		times = make([]float64, nSpikes)
		for i := range times {
			times[i] = float64(i)
		}
	}
	m := floats.Max(times)
	for i, t := range times {
		if m > 0 {
			out[i] = float32((-1 + 2*t/m) * 0.8)
		} else {
			out[i] = float32(t)
		}
	}
	return out
}

// Projector extracts per-axis value columns from a feature tensor, with
// spike times pre-normalized once at construction.
type Projector struct {
	tensor *FeatureTensor
	times  []float32
}

// NewProjector builds a projector over the tensor. times may be nil for
// implicit index times; otherwise its length must equal the spike count.
func NewProjector(tensor *FeatureTensor, times []float64) (*Projector, error) {
	if tensor == nil {
		return nil, fmt.Errorf("%w: nil feature tensor", ErrInvalidConfiguration)
	}
	if times != nil && len(times) != tensor.NSpikes() {
		return nil, fmt.Errorf("%w: %d spike times for %d spikes",
			ErrShapeMismatch, len(times), tensor.NSpikes())
	}
	return &Projector{tensor: tensor, times: NormalizeTimes(times, tensor.NSpikes())}, nil
}

// Axis returns the value column for one dimension: the raw tensor column for
// a channel/feature axis, the normalized times for the time axis.
func (p *Projector) Axis(d Dimension) ([]float32, error) {
	if err := d.Validate(p.tensor.NChannels(), p.tensor.NFeatures()); err != nil {
		return nil, err
	}
	if d.IsTime() {
		return p.times, nil
	}
	return p.tensor.Column(d.Channel, d.Feature), nil
}

// Project returns the interleaved (x0, y0, x1, y1, ...) positions of every
// spike under the cell's dimension pair, 2*NSpikes values in world
// coordinates. The grid convention plots cell (i, j)'s x dimension against
// its y dimension as-is; any visual transposition is the renderer's affair.
func (p *Projector) Project(pair DimensionPair) ([]float32, error) {
	xs, err := p.Axis(pair.X)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	ys, err := p.Axis(pair.Y)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	out := make([]float32, 2*len(xs))
	for i := range xs {
		out[2*i] = xs[i]
		out[2*i+1] = ys[i]
	}
	return out, nil
}
