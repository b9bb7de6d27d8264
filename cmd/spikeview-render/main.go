package main

import (
	"flag"
	"log"

	"github.com/banshee-data/spikeview/internal/config"
	"github.com/banshee-data/spikeview/internal/featuregrid"
	"github.com/banshee-data/spikeview/internal/gridplot"
	"github.com/banshee-data/spikeview/internal/monitoring"
	"github.com/banshee-data/spikeview/internal/synth"
	"github.com/banshee-data/spikeview/internal/version"
)

var (
	outPath    = flag.String("out", "feature-grid.png", "Output PNG path")
	configPath = flag.String("config", "", "Path to a view config JSON file")
	bundlePath = flag.String("bundle", "", "Feature bundle to render instead of a synthetic recording")
	dims       = flag.String("dims", "", "Comma-separated dimension list, e.g. time,0:0,1:1 (overrides config)")
	marker     = flag.Float64("marker", 0, "Marker size in points (overrides config)")
	inches     = flag.Float64("inches", 0, "Square figure size in inches (overrides config)")
	seed       = flag.Uint64("seed", 0, "Synthetic recording seed (overrides config)")
	saveBundle = flag.String("save-bundle", "", "Also write the rendered recording to this bundle file")
)

func main() {
	flag.Parse()
	log.Printf("spikeview-render %s", version.String())

	cfg := config.EmptyViewConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadViewConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if cfg.GetDebugLogging() {
		monitoring.SetDebug(true)
	}

	bundle, err := loadBundle(cfg)
	if err != nil {
		log.Fatalf("failed to prepare feature data: %v", err)
	}
	if *saveBundle != "" {
		if err := synth.SaveBundle(*saveBundle, bundle); err != nil {
			log.Fatalf("failed to save bundle: %v", err)
		}
	}

	update, err := bundle.DataUpdate()
	if err != nil {
		log.Fatalf("failed to prepare feature data: %v", err)
	}

	update.Dimensions = cfg.GetDimensions()
	if *dims != "" {
		parsed, err := featuregrid.ParseDimensions(*dims)
		if err != nil {
			log.Fatalf("invalid -dims: %v", err)
		}
		update.Dimensions = parsed
	}

	renderer := gridplot.New()
	view := featuregrid.NewController(featuregrid.Collaborators{Renderer: renderer})

	markerSize := cfg.GetMarkerSize()
	if *marker != 0 {
		markerSize = float32(*marker)
	}
	view.SetMarkerSize(markerSize)

	if err := view.SetData(update); err != nil {
		log.Fatalf("failed to load feature data: %v", err)
	}

	plotInches := cfg.GetPlotInches()
	if *inches != 0 {
		plotInches = *inches
	}

	if err := renderer.SavePNG(*outPath, plotInches); err != nil {
		log.Fatalf("failed to render grid: %v", err)
	}

	bufs := view.Buffers()
	log.Printf("rendered %d points in a %dx%d grid to %s", bufs.NPoints(), bufs.Rows, bufs.Rows, *outPath)
}

// loadBundle returns the recording to render: a saved bundle when -bundle is
// given, otherwise a synthetic recording drawn from the config.
func loadBundle(cfg *config.ViewConfig) (*synth.Bundle, error) {
	if *bundlePath != "" {
		return synth.LoadBundle(*bundlePath)
	}

	g := synth.NewGenerator(seedValue(cfg))
	g.Spikes = cfg.GetSynthSpikes()
	g.Channels = cfg.GetSynthChannels()
	g.Features = cfg.GetSynthFeatures()
	g.Clusters = cfg.GetSynthClusters()
	g.BackgroundSpikes = cfg.GetSynthBackgroundSpikes()
	g.Spread = cfg.GetSynthSpread()
	g.MaskDecay = cfg.GetSynthMaskDecay()
	g.Duration = cfg.GetSynthDurationSeconds()

	return g.Generate()
}

func seedValue(cfg *config.ViewConfig) uint64 {
	if *seed != 0 {
		return *seed
	}
	return cfg.GetSynthSeed()
}
