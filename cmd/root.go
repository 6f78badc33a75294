package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/cluster"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/config"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/pipeline"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// Cfg is the loaded configuration shared by subcommands.
	Cfg *config.Config
	// Logger is the process-wide structured logger.
	Logger *slog.Logger

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "anttrack",
	Short:   "Color-tagged ant detection and identity tracking for colony video",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			Cfg.Logging.Level = logLevel
		}
		Logger = newLogger(Cfg.Logging)
		slog.SetDefault(Logger)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newRunner assembles the analysis pipeline from the loaded configuration.
func newRunner() (*pipeline.Runner, error) {
	classifier, err := colorid.NewClassifier(Cfg.Palette, Cfg.Segmentation.MaxHueSpread)
	if err != nil {
		return nil, err
	}
	seg := segment.NewSegmenter(segment.Params{
		MinArea:        Cfg.Segmentation.MinBlobArea,
		MaxArea:        Cfg.Segmentation.MaxBlobArea,
		DilationIters:  Cfg.Segmentation.DilationIters,
		ErosionIters:   Cfg.Segmentation.ErosionIters,
		ForegroundDiff: uint8(Cfg.Segmentation.ForegroundDiff),
	}, Cfg.Palette, classifier, Logger)

	linkage := geom.LinkageSingle
	if strings.EqualFold(Cfg.Clustering.Linkage, "average") {
		linkage = geom.LinkageAverage
	}
	cl := cluster.NewClusterer(Cfg.Clustering.DistanceThreshold, linkage, Logger)

	algorithm := track.AlgorithmGreedy
	if strings.EqualFold(Cfg.Tracking.Assignment, "hungarian") {
		algorithm = track.AlgorithmHungarian
	}
	trackCfg := track.Config{
		GateDistance:    Cfg.Tracking.GateDistance,
		MaxMissFrames:   Cfg.Tracking.MaxMissFrames,
		ColorPenalty:    Cfg.Tracking.ColorPenalty,
		SplitAreaFactor: Cfg.Tracking.SplitAreaFactor,
		Algorithm:       algorithm,
	}

	r := pipeline.NewRunner(seg, cl, trackCfg, Logger)
	r.QueueDepth = Cfg.Pipeline.QueueDepth
	r.CheckpointEvery = Cfg.Pipeline.CheckpointEvery
	if Cfg.Pipeline.CheckpointDir != "" {
		store, err := pipeline.NewCheckpointStore(Cfg.Pipeline.CheckpointDir)
		if err != nil {
			return nil, err
		}
		r.Checkpoints = store
	}
	return r, nil
}
