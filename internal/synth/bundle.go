package synth

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/banshee-data/spikeview/internal/featuregrid"
)

// Bundle is a self-contained feature dataset: everything one SetData call
// needs, in flat row-major arrays. Tools exchange bundles as gob+gzip files
// so the view core itself never touches the filesystem.
type Bundle struct {
	Spikes   int
	Channels int
	Features int

	Data     []float32 // (Spikes, Channels, Features)
	Masks    []float32 // (Spikes, Channels)
	Clusters []int
	Times    []float64

	BackgroundSpikes int
	Background       []float32 // (BackgroundSpikes, Channels, Features)
	BackgroundTimes  []float64
}

// Tensor wraps the foreground features.
func (b *Bundle) Tensor() (*featuregrid.FeatureTensor, error) {
	return featuregrid.NewFeatureTensor(b.Data, b.Spikes, b.Channels, b.Features)
}

// MaskMatrix wraps the masks, nil when the bundle carries none.
func (b *Bundle) MaskMatrix() (*featuregrid.MaskMatrix, error) {
	if b.Masks == nil {
		return nil, nil
	}
	return featuregrid.NewMaskMatrix(b.Masks, b.Spikes, b.Channels)
}

// BackgroundTensor wraps the background features, nil when the bundle
// carries none.
func (b *Bundle) BackgroundTensor() (*featuregrid.FeatureTensor, error) {
	if b.Background == nil {
		return nil, nil
	}
	return featuregrid.NewFeatureTensor(b.Background, b.BackgroundSpikes, b.Channels, b.Features)
}

// DataUpdate assembles the full controller update for this bundle.
func (b *Bundle) DataUpdate() (featuregrid.DataUpdate, error) {
	tensor, err := b.Tensor()
	if err != nil {
		return featuregrid.DataUpdate{}, err
	}
	masks, err := b.MaskMatrix()
	if err != nil {
		return featuregrid.DataUpdate{}, err
	}
	background, err := b.BackgroundTensor()
	if err != nil {
		return featuregrid.DataUpdate{}, err
	}
	return featuregrid.DataUpdate{
		Features:        tensor,
		Masks:           masks,
		SpikeClusters:   b.Clusters,
		SpikeTimes:      b.Times,
		Background:      background,
		BackgroundTimes: b.BackgroundTimes,
	}, nil
}

// encodeBundle compresses a bundle with gob encoding and gzip compression.
func encodeBundle(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(b); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeBundle decompresses and decodes a gob+gzip bundle blob.
func decodeBundle(blob []byte) (*Bundle, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty bundle blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var b Bundle
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &b, nil
}

// SaveBundle writes a bundle to path as a gob+gzip file.
func SaveBundle(path string, b *Bundle) error {
	blob, err := encodeBundle(b)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

// LoadBundle reads a bundle written by SaveBundle.
func LoadBundle(path string) (*Bundle, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	return decodeBundle(blob)
}
