package featuregrid

import "fmt"

// FeatureTensor is a dense (spikes x channels x features) block of feature
// values stored row-major in a single flat slice, the layout the projection
// and bake stages consume directly.
type FeatureTensor struct {
	data      []float32
	nSpikes   int
	nChannels int
	nFeatures int
}

// NewFeatureTensor wraps flat row-major data with the given shape. The data
// length must equal nSpikes*nChannels*nFeatures.
func NewFeatureTensor(data []float32, nSpikes, nChannels, nFeatures int) (*FeatureTensor, error) {
	if nChannels < 1 || nFeatures < 1 {
		return nil, fmt.Errorf("%w: need at least one channel and one feature, got (%d, %d)",
			ErrInvalidConfiguration, nChannels, nFeatures)
	}
	if nSpikes < 0 {
		return nil, fmt.Errorf("%w: negative spike count %d", ErrShapeMismatch, nSpikes)
	}
	if len(data) != nSpikes*nChannels*nFeatures {
		return nil, fmt.Errorf("%w: feature tensor has %d values, shape (%d, %d, %d) needs %d",
			ErrShapeMismatch, len(data), nSpikes, nChannels, nFeatures, nSpikes*nChannels*nFeatures)
	}
	return &FeatureTensor{data: data, nSpikes: nSpikes, nChannels: nChannels, nFeatures: nFeatures}, nil
}

// NewFeatureMatrix promotes a 2-D (spikes x channels) matrix to a tensor
// with a single feature per channel.
func NewFeatureMatrix(data []float32, nSpikes, nChannels int) (*FeatureTensor, error) {
	return NewFeatureTensor(data, nSpikes, nChannels, 1)
}

// NSpikes returns the spike count.
func (t *FeatureTensor) NSpikes() int { return t.nSpikes }

// NChannels returns the channel count.
func (t *FeatureTensor) NChannels() int { return t.nChannels }

// NFeatures returns the per-channel feature count.
func (t *FeatureTensor) NFeatures() int { return t.nFeatures }

// At returns the value for one spike at column (channel, feature).
func (t *FeatureTensor) At(spike, channel, feature int) float32 {
	return t.data[(spike*t.nChannels+channel)*t.nFeatures+feature]
}

// Column copies column (channel, feature) across all spikes into a fresh
// slice of length NSpikes.
func (t *FeatureTensor) Column(channel, feature int) []float32 {
	out := make([]float32, t.nSpikes)
	stride := t.nChannels * t.nFeatures
	base := channel*t.nFeatures + feature
	for s := 0; s < t.nSpikes; s++ {
		out[s] = t.data[s*stride+base]
	}
	return out
}

// MaskMatrix is a dense (spikes x channels) block of per-channel mask
// weights in [0, 1], stored row-major.
type MaskMatrix struct {
	data      []float32
	nSpikes   int
	nChannels int
}

// NewMaskMatrix wraps flat row-major mask data with the given shape.
func NewMaskMatrix(data []float32, nSpikes, nChannels int) (*MaskMatrix, error) {
	if nChannels < 1 {
		return nil, fmt.Errorf("%w: need at least one channel, got %d", ErrInvalidConfiguration, nChannels)
	}
	if nSpikes < 0 {
		return nil, fmt.Errorf("%w: negative spike count %d", ErrShapeMismatch, nSpikes)
	}
	if len(data) != nSpikes*nChannels {
		return nil, fmt.Errorf("%w: mask matrix has %d values, shape (%d, %d) needs %d",
			ErrShapeMismatch, len(data), nSpikes, nChannels, nSpikes*nChannels)
	}
	return &MaskMatrix{data: data, nSpikes: nSpikes, nChannels: nChannels}, nil
}

// OnesMask returns a mask matrix with every weight set to 1, the default
// when a caller supplies no masks.
func OnesMask(nSpikes, nChannels int) *MaskMatrix {
	data := make([]float32, nSpikes*nChannels)
	for i := range data {
		data[i] = 1
	}
	m, _ := NewMaskMatrix(data, nSpikes, nChannels)
	return m
}

// NSpikes returns the spike count.
func (m *MaskMatrix) NSpikes() int { return m.nSpikes }

// NChannels returns the channel count.
func (m *MaskMatrix) NChannels() int { return m.nChannels }

// At returns the mask weight for one spike on one channel.
func (m *MaskMatrix) At(spike, channel int) float32 {
	return m.data[spike*m.nChannels+channel]
}

// Column copies the mask column for one channel across all spikes into a
// fresh slice of length NSpikes.
func (m *MaskMatrix) Column(channel int) []float32 {
	out := make([]float32, m.nSpikes)
	for s := 0; s < m.nSpikes; s++ {
		out[s] = m.data[s*m.nChannels+channel]
	}
	return out
}
