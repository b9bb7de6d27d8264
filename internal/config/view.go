package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/spikeview/internal/featuregrid"
)

// DefaultConfigPath is the path to the canonical view defaults file.
// This is the single source of truth for all default view tuning values.
const DefaultConfigPath = "config/view.defaults.json"

// ViewConfig represents the root configuration for the feature grid view.
// All fields are pointers so that a partial JSON file only overrides the
// values it names; the Get* accessors supply defaults for the rest.
type ViewConfig struct {
	// Rendering params
	MarkerSize *float64 `json:"marker_size,omitempty"`
	PlotInches *float64 `json:"plot_inches,omitempty"`
	Dimensions []string `json:"dimensions,omitempty"` // e.g. ["time", "0:0", "1:1"]

	// Web params
	WebListenAddr *string `json:"web_listen_addr,omitempty"`
	DebugLogging  *bool   `json:"debug_logging,omitempty"`

	// Synthetic recording params
	SynthSpikes           *int     `json:"synth_spikes,omitempty"`
	SynthChannels         *int     `json:"synth_channels,omitempty"`
	SynthFeatures         *int     `json:"synth_features,omitempty"`
	SynthClusters         *int     `json:"synth_clusters,omitempty"`
	SynthBackgroundSpikes *int     `json:"synth_background_spikes,omitempty"`
	SynthSeed             *int64   `json:"synth_seed,omitempty"`
	SynthSpread           *float64 `json:"synth_spread,omitempty"`
	SynthMaskDecay        *float64 `json:"synth_mask_decay,omitempty"`
	SynthDurationSeconds  *float64 `json:"synth_duration_seconds,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyViewConfig returns a ViewConfig with all fields set to nil.
// Use LoadViewConfig to load actual values from the defaults file.
func EmptyViewConfig() *ViewConfig {
	return &ViewConfig{}
}

// DefaultViewConfig returns a ViewConfig with every field populated with
// its canonical default. The shipped DefaultConfigPath file mirrors these
// values.
func DefaultViewConfig() *ViewConfig {
	return &ViewConfig{
		MarkerSize:            ptrFloat64(3),
		PlotInches:            ptrFloat64(8),
		Dimensions:            []string{"0:0", "1:0"},
		WebListenAddr:         ptrString(":8080"),
		DebugLogging:          ptrBool(false),
		SynthSpikes:           ptrInt(2000),
		SynthChannels:         ptrInt(4),
		SynthFeatures:         ptrInt(2),
		SynthClusters:         ptrInt(3),
		SynthBackgroundSpikes: ptrInt(4000),
		SynthSeed:             ptrInt64(42),
		SynthSpread:           ptrFloat64(0.15),
		SynthMaskDecay:        ptrFloat64(0.6),
		SynthDurationSeconds:  ptrFloat64(60),
	}
}

// LoadViewConfig loads a ViewConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadViewConfig(path string) (*ViewConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyViewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical view defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ViewConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/ or cmd/*/
		"../../../" + DefaultConfigPath,    // deeper packages
		"../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadViewConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ViewConfig) Validate() error {
	// Validate MarkerSize if set
	if c.MarkerSize != nil {
		if *c.MarkerSize < float64(featuregrid.MinMarkerSize) || *c.MarkerSize > float64(featuregrid.MaxMarkerSize) {
			return fmt.Errorf("marker_size must be between %v and %v, got %f",
				featuregrid.MinMarkerSize, featuregrid.MaxMarkerSize, *c.MarkerSize)
		}
	}

	// Validate PlotInches if set
	if c.PlotInches != nil {
		if *c.PlotInches <= 0 || *c.PlotInches > 100 {
			return fmt.Errorf("plot_inches must be between 0 and 100, got %f", *c.PlotInches)
		}
	}

	// Validate Dimensions entries parse; range checks against a recording
	// happen when the matrix is resolved.
	for _, s := range c.Dimensions {
		if _, err := featuregrid.ParseDimension(s); err != nil {
			return fmt.Errorf("invalid dimension %q: %w", s, err)
		}
	}

	// Validate WebListenAddr if set
	if c.WebListenAddr != nil && *c.WebListenAddr == "" {
		return fmt.Errorf("web_listen_addr must not be empty")
	}

	// Validate synthetic recording params if set
	if c.SynthSpikes != nil && *c.SynthSpikes < 1 {
		return fmt.Errorf("synth_spikes must be at least 1, got %d", *c.SynthSpikes)
	}
	if c.SynthChannels != nil && *c.SynthChannels < 1 {
		return fmt.Errorf("synth_channels must be at least 1, got %d", *c.SynthChannels)
	}
	if c.SynthFeatures != nil && *c.SynthFeatures < 1 {
		return fmt.Errorf("synth_features must be at least 1, got %d", *c.SynthFeatures)
	}
	if c.SynthClusters != nil && *c.SynthClusters < 1 {
		return fmt.Errorf("synth_clusters must be at least 1, got %d", *c.SynthClusters)
	}
	if c.SynthBackgroundSpikes != nil && *c.SynthBackgroundSpikes < 0 {
		return fmt.Errorf("synth_background_spikes must be non-negative, got %d", *c.SynthBackgroundSpikes)
	}
	if c.SynthSpread != nil && *c.SynthSpread <= 0 {
		return fmt.Errorf("synth_spread must be positive, got %f", *c.SynthSpread)
	}
	if c.SynthMaskDecay != nil && (*c.SynthMaskDecay < 0 || *c.SynthMaskDecay > 1) {
		return fmt.Errorf("synth_mask_decay must be between 0 and 1, got %f", *c.SynthMaskDecay)
	}
	if c.SynthDurationSeconds != nil && *c.SynthDurationSeconds <= 0 {
		return fmt.Errorf("synth_duration_seconds must be positive, got %f", *c.SynthDurationSeconds)
	}

	return nil
}

// GetMarkerSize returns the marker_size value or the default.
func (c *ViewConfig) GetMarkerSize() float32 {
	if c.MarkerSize == nil {
		return featuregrid.DefaultMarkerSize
	}
	return float32(*c.MarkerSize)
}

// GetPlotInches returns the plot_inches value or the default.
func (c *ViewConfig) GetPlotInches() float64 {
	if c.PlotInches == nil {
		return 8 // default
	}
	return *c.PlotInches
}

// GetDimensions parses and returns the dimensions list.
func (c *ViewConfig) GetDimensions() []featuregrid.Dimension {
	fallback := []featuregrid.Dimension{featuregrid.ChannelFeature(0, 0)}
	if len(c.Dimensions) == 0 {
		return fallback
	}
	dims := make([]featuregrid.Dimension, 0, len(c.Dimensions))
	for _, s := range c.Dimensions {
		d, err := featuregrid.ParseDimension(s)
		if err != nil {
			return fallback // default on parse error
		}
		dims = append(dims, d)
	}
	return dims
}

// GetWebListenAddr returns the web_listen_addr value or the default.
func (c *ViewConfig) GetWebListenAddr() string {
	if c.WebListenAddr == nil || *c.WebListenAddr == "" {
		return ":8080" // default
	}
	return *c.WebListenAddr
}

// GetDebugLogging returns the debug_logging value or the default.
func (c *ViewConfig) GetDebugLogging() bool {
	if c.DebugLogging == nil {
		return false // default: debug logging disabled
	}
	return *c.DebugLogging
}

// GetSynthSpikes returns the synth_spikes value or the default.
func (c *ViewConfig) GetSynthSpikes() int {
	if c.SynthSpikes == nil {
		return 2000
	}
	return *c.SynthSpikes
}

// GetSynthChannels returns the synth_channels value or the default.
func (c *ViewConfig) GetSynthChannels() int {
	if c.SynthChannels == nil {
		return 4
	}
	return *c.SynthChannels
}

// GetSynthFeatures returns the synth_features value or the default.
func (c *ViewConfig) GetSynthFeatures() int {
	if c.SynthFeatures == nil {
		return 2
	}
	return *c.SynthFeatures
}

// GetSynthClusters returns the synth_clusters value or the default.
func (c *ViewConfig) GetSynthClusters() int {
	if c.SynthClusters == nil {
		return 3
	}
	return *c.SynthClusters
}

// GetSynthBackgroundSpikes returns the synth_background_spikes value or the default.
func (c *ViewConfig) GetSynthBackgroundSpikes() int {
	if c.SynthBackgroundSpikes == nil {
		return 4000
	}
	return *c.SynthBackgroundSpikes
}

// GetSynthSeed returns the synth_seed value or the default.
func (c *ViewConfig) GetSynthSeed() uint64 {
	if c.SynthSeed == nil {
		return 42
	}
	return uint64(*c.SynthSeed)
}

// GetSynthSpread returns the synth_spread value or the default.
func (c *ViewConfig) GetSynthSpread() float64 {
	if c.SynthSpread == nil {
		return 0.15
	}
	return *c.SynthSpread
}

// GetSynthMaskDecay returns the synth_mask_decay value or the default.
func (c *ViewConfig) GetSynthMaskDecay() float64 {
	if c.SynthMaskDecay == nil {
		return 0.6
	}
	return *c.SynthMaskDecay
}

// GetSynthDurationSeconds returns the synth_duration_seconds value or the default.
func (c *ViewConfig) GetSynthDurationSeconds() float64 {
	if c.SynthDurationSeconds == nil {
		return 60
	}
	return *c.SynthDurationSeconds
}
