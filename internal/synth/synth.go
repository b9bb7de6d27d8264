// Package synth generates synthetic spike-sorting feature datasets for
// demos and tests: gaussian cluster blobs in feature space, per-channel
// masks strongest on each cluster's home channel, and sorted spike times.
package synth

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/spikeview/internal/monitoring"
)

// Generator configures synthetic dataset generation. The zero value is not
// usable; NewGenerator fills in workable defaults.
type Generator struct {
	Spikes           int
	Channels         int
	Features         int
	Clusters         int
	BackgroundSpikes int
	Spread           float64 // within-cluster standard deviation
	MaskDecay        float64 // mask falloff per channel away from home
	Duration         float64 // recording length in seconds

	rng    *rand.Rand
	normal distuv.Normal
}

// NewGenerator returns a generator with default sizes, deterministic for a
// given seed.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		Spikes:           2000,
		Channels:         4,
		Features:         2,
		Clusters:         3,
		BackgroundSpikes: 4000,
		Spread:           0.15,
		MaskDecay:        0.6,
		Duration:         60,
		rng:              rand.New(src),
		normal:           distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

func (g *Generator) validate() error {
	if g.Channels < 1 || g.Features < 1 {
		return fmt.Errorf("generator needs at least one channel and one feature, got (%d, %d)", g.Channels, g.Features)
	}
	if g.Spikes < 0 || g.BackgroundSpikes < 0 {
		return fmt.Errorf("negative spike counts (%d, %d)", g.Spikes, g.BackgroundSpikes)
	}
	if g.Clusters < 1 {
		return fmt.Errorf("generator needs at least one cluster, got %d", g.Clusters)
	}
	return nil
}

// Generate produces a complete bundle: clustered foreground features with
// masks, cluster ids and sorted times, plus an unclustered background layer
// when BackgroundSpikes is positive.
func (g *Generator) Generate() (*Bundle, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	// Per-cluster blob centres, one per tensor column, kept inside the
	// world band so most points land in view.
	centres := make([][]float64, g.Clusters)
	homes := make([]int, g.Clusters)
	for c := range centres {
		cols := g.Channels * g.Features
		centres[c] = make([]float64, cols)
		for k := range centres[c] {
			centres[c][k] = g.rng.Float64()*1.5 - 0.75
		}
		homes[c] = c % g.Channels
	}

	b := &Bundle{
		Spikes:           g.Spikes,
		Channels:         g.Channels,
		Features:         g.Features,
		Data:             make([]float32, g.Spikes*g.Channels*g.Features),
		Masks:            make([]float32, g.Spikes*g.Channels),
		Clusters:         make([]int, g.Spikes),
		Times:            make([]float64, g.Spikes),
		BackgroundSpikes: g.BackgroundSpikes,
	}

	for s := 0; s < g.Spikes; s++ {
		c := s % g.Clusters
		// Cluster ids deliberately start above zero; display order and
		// dense indexing never assume id == index.
		b.Clusters[s] = c + 2

		for ch := 0; ch < g.Channels; ch++ {
			for f := 0; f < g.Features; f++ {
				col := ch*g.Features + f
				v := centres[c][col] + g.normal.Rand()*g.Spread
				b.Data[(s*g.Channels+ch)*g.Features+f] = float32(v)
			}
			b.Masks[s*g.Channels+ch] = g.maskWeight(ch, homes[c])
		}
		b.Times[s] = g.rng.Float64() * g.Duration
	}
	sort.Float64s(b.Times)

	if g.BackgroundSpikes > 0 {
		b.Background = make([]float32, g.BackgroundSpikes*g.Channels*g.Features)
		b.BackgroundTimes = make([]float64, g.BackgroundSpikes)
		for s := 0; s < g.BackgroundSpikes; s++ {
			for k := 0; k < g.Channels*g.Features; k++ {
				b.Background[s*g.Channels*g.Features+k] = float32(g.normal.Rand() * 0.4)
			}
			b.BackgroundTimes[s] = g.rng.Float64() * g.Duration
		}
		sort.Float64s(b.BackgroundTimes)
	}

	monitoring.Logf("[Synth] generated %d spikes (%d background), %d channels x %d features, %d clusters",
		g.Spikes, g.BackgroundSpikes, g.Channels, g.Features, g.Clusters)
	return b, nil
}

// maskWeight falls off linearly with channel distance from the cluster's
// home channel, floored just above zero so no channel is fully dead.
func (g *Generator) maskWeight(ch, home int) float32 {
	dist := ch - home
	if dist < 0 {
		dist = -dist
	}
	w := 1 - g.MaskDecay*float64(dist)
	if w < 0.05 {
		w = 0.05
	}
	return float32(w)
}
