package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/pipeline"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

var analyzeOpts struct {
	Input      string
	Output     string
	Background string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Track ants through one video's extracted frame directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Input, "input", "i", "", "Directory of extracted frame images")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Output, "output", "o", "", "Output CSV path (default: <output_dir>/<video>.csv)")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Background, "background", "b", "", "Background image for foreground-difference segmentation")

	analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

// progressSink advances the progress bar once per processed frame batch.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func (p *progressSink) WriteBatch([]track.Record) error { return p.bar.Add(1) }
func (p *progressSink) Flush() error                    { return nil }

func runAnalyze(cmd *cobra.Command) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}
	if analyzeOpts.Background != "" {
		bg, err := imaging.Open(analyzeOpts.Background)
		if err != nil {
			return err
		}
		runner.Background = bg
	}

	source, err := pipeline.NewDirSource(analyzeOpts.Input)
	if err != nil {
		return err
	}
	defer source.Close()

	outPath := analyzeOpts.Output
	if outPath == "" {
		if err := os.MkdirAll(Cfg.Pipeline.OutputDir, 0o755); err != nil {
			return err
		}
		outPath = filepath.Join(Cfg.Pipeline.OutputDir, filepath.Base(analyzeOpts.Input)+".csv")
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("tracking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	res, err := runner.Run(cmd.Context(), source, analyzeOpts.Input,
		pipeline.NewCSVSink(out), &progressSink{bar: bar})
	bar.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nprocessed %d frames (%d skipped), %d live tracks, %d retired, wrote %s\n",
		res.Frames, res.Skipped, len(res.Tracker.Working()), len(res.Tracker.Archive()), outPath)
	return nil
}
