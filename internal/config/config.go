// Package config loads the analysis configuration from YAML with environment
// variable overrides for the knobs operators change between colony setups.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
)

type Config struct {
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Palette      colorid.Palette    `yaml:"palette"`
	Clustering   ClusteringConfig   `yaml:"clustering"`
	Tracking     TrackingConfig     `yaml:"tracking"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type SegmentationConfig struct {
	MinBlobArea    float64 `yaml:"min_blob_area"`
	MaxBlobArea    float64 `yaml:"max_blob_area"`
	DilationIters  int     `yaml:"dilation_iters"`
	ErosionIters   int     `yaml:"erosion_iters"`
	ForegroundDiff int     `yaml:"foreground_diff"`
	// MaxHueSpread is the classification confidence margin in degrees.
	MaxHueSpread float64 `yaml:"max_hue_spread"`
}

type ClusteringConfig struct {
	// DistanceThreshold in pixels; fragments closer than this are considered
	// parts of the same body.
	DistanceThreshold float64 `yaml:"distance_threshold"`
	// Linkage is "single" or "average".
	Linkage string `yaml:"linkage"`
}

type TrackingConfig struct {
	GateDistance    float64 `yaml:"gate_distance"`
	MaxMissFrames   int     `yaml:"max_miss_frames"`
	ColorPenalty    float64 `yaml:"color_penalty"`
	SplitAreaFactor float64 `yaml:"split_area_factor"`
	// Assignment is "greedy" or "hungarian".
	Assignment string `yaml:"assignment"`
}

type PipelineConfig struct {
	// QueueDepth bounds the decoded-frame channel; decode blocks when the
	// analysis stage falls behind.
	QueueDepth int `yaml:"queue_depth"`
	// CheckpointEvery is the checkpoint interval in frames; 0 disables
	// checkpointing.
	CheckpointEvery int    `yaml:"checkpoint_every"`
	CheckpointDir   string `yaml:"checkpoint_dir"`
	OutputDir       string `yaml:"output_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file and applies environment variable
// overrides. A missing path yields the pure default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Segmentation.MinBlobArea == 0 {
		cfg.Segmentation.MinBlobArea = 20
	}
	if cfg.Segmentation.MaxBlobArea == 0 {
		cfg.Segmentation.MaxBlobArea = 5000
	}
	if cfg.Segmentation.ForegroundDiff == 0 {
		cfg.Segmentation.ForegroundDiff = 30
	}
	if cfg.Segmentation.MaxHueSpread == 0 {
		cfg.Segmentation.MaxHueSpread = 60
	}
	if cfg.Clustering.DistanceThreshold == 0 {
		cfg.Clustering.DistanceThreshold = 12
	}
	if cfg.Clustering.Linkage == "" {
		cfg.Clustering.Linkage = "single"
	}
	if cfg.Tracking.GateDistance == 0 {
		cfg.Tracking.GateDistance = 30
	}
	if cfg.Tracking.MaxMissFrames == 0 {
		cfg.Tracking.MaxMissFrames = 5
	}
	if cfg.Tracking.ColorPenalty == 0 {
		cfg.Tracking.ColorPenalty = 15
	}
	if cfg.Tracking.SplitAreaFactor == 0 {
		cfg.Tracking.SplitAreaFactor = 1.8
	}
	if cfg.Tracking.Assignment == "" {
		cfg.Tracking.Assignment = "greedy"
	}
	if cfg.Pipeline.QueueDepth == 0 {
		cfg.Pipeline.QueueDepth = 8
	}
	if cfg.Pipeline.OutputDir == "" {
		cfg.Pipeline.OutputDir = "output"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANT_MIN_BLOB_AREA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Segmentation.MinBlobArea = f
		}
	}
	if v := os.Getenv("ANT_MAX_BLOB_AREA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Segmentation.MaxBlobArea = f
		}
	}
	if v := os.Getenv("ANT_GATE_DISTANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracking.GateDistance = f
		}
	}
	if v := os.Getenv("ANT_MAX_MISS_FRAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.MaxMissFrames = n
		}
	}
	if v := os.Getenv("ANT_OUTPUT_DIR"); v != "" {
		cfg.Pipeline.OutputDir = v
	}
	if v := os.Getenv("ANT_CHECKPOINT_DIR"); v != "" {
		cfg.Pipeline.CheckpointDir = v
	}
	if v := os.Getenv("ANT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Segmentation.MinBlobArea < 0 {
		return errors.New("segmentation: min_blob_area must be non-negative")
	}
	if cfg.Segmentation.MaxBlobArea <= cfg.Segmentation.MinBlobArea {
		return errors.New("segmentation: max_blob_area must exceed min_blob_area")
	}
	if cfg.Segmentation.ForegroundDiff < 0 || cfg.Segmentation.ForegroundDiff > 255 {
		return errors.New("segmentation: foreground_diff must be within [0,255]")
	}
	if err := cfg.Palette.Validate(); err != nil {
		return errors.Wrap(err, "palette")
	}
	if cfg.Clustering.DistanceThreshold <= 0 {
		return errors.New("clustering: distance_threshold must be positive")
	}
	switch strings.ToLower(cfg.Clustering.Linkage) {
	case "single", "average":
	default:
		return errors.Errorf("clustering: unknown linkage %q", cfg.Clustering.Linkage)
	}
	if cfg.Tracking.GateDistance <= 0 {
		return errors.New("tracking: gate_distance must be positive")
	}
	if cfg.Tracking.MaxMissFrames <= 0 {
		return errors.New("tracking: max_miss_frames must be positive")
	}
	if cfg.Tracking.SplitAreaFactor <= 1 {
		return errors.New("tracking: split_area_factor must exceed 1")
	}
	switch strings.ToLower(cfg.Tracking.Assignment) {
	case "greedy", "hungarian":
	default:
		return errors.Errorf("tracking: unknown assignment %q", cfg.Tracking.Assignment)
	}
	if cfg.Pipeline.QueueDepth <= 0 {
		return errors.New("pipeline: queue_depth must be positive")
	}
	if cfg.Pipeline.CheckpointEvery < 0 {
		return errors.New("pipeline: checkpoint_every must be non-negative")
	}
	return nil
}
