package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/spikeview/internal/config"
	"github.com/banshee-data/spikeview/internal/featuregrid"
	"github.com/banshee-data/spikeview/internal/gridweb"
	"github.com/banshee-data/spikeview/internal/monitoring"
	"github.com/banshee-data/spikeview/internal/synth"
	"github.com/banshee-data/spikeview/internal/version"
)

var (
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to a view config JSON file")
	bundlePath = flag.String("bundle", "", "Feature bundle to serve instead of a synthetic recording")
	dims       = flag.String("dims", "", "Comma-separated dimension list, e.g. time,0:0,1:1 (overrides config)")
	seed       = flag.Uint64("seed", 0, "Synthetic recording seed (overrides config)")
)

func main() {
	flag.Parse()
	log.Printf("spikeview-server %s", version.String())

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

	update, err := buildUpdate(cfg)
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

	view := featuregrid.NewController(featuregrid.Collaborators{})
	view.SetMarkerSize(cfg.GetMarkerSize())
	if err := view.SetData(update); err != nil {
		log.Fatalf("failed to load feature data: %v", err)
	}

	addr := cfg.GetWebListenAddr()
	if *listen != "" {
		addr = *listen
	}

	server := gridweb.NewWebServer(gridweb.WebServerConfig{
		Address: addr,
		View:    view,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine; Start blocks until the context is cancelled
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()

	log.Printf("spikeview serving %d spikes on %s", view.Buffers().Spikes, addr)
	wg.Wait()
}

// buildUpdate returns the data to display: a recorded bundle when -bundle is
// given, otherwise a synthetic recording drawn from the config.
func buildUpdate(cfg *config.ViewConfig) (featuregrid.DataUpdate, error) {
	if *bundlePath != "" {
		bundle, err := synth.LoadBundle(*bundlePath)
		if err != nil {
			return featuregrid.DataUpdate{}, err
		}
		return bundle.DataUpdate()
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

	bundle, err := g.Generate()
	if err != nil {
		return featuregrid.DataUpdate{}, err
	}
	return bundle.DataUpdate()
}

func seedValue(cfg *config.ViewConfig) uint64 {
	if *seed != 0 {
		return *seed
	}
	return cfg.GetSynthSeed()
}
