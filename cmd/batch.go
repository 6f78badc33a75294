package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/pipeline"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

var batchOpts struct {
	Root string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every video frame directory under a folder, resumably",
	Long: `Processes each subdirectory of the given root as one video's frame
directory, writing one CSV per video. Videos that fail are recorded and the
batch continues. With a checkpoint directory configured, an interrupted batch
resumes each video from its last checkpoint instead of frame zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOpts.Root, "root", "r", "", "Folder containing one frame directory per video")

	batchCmd.MarkFlagRequired("root")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(Cfg.Pipeline.OutputDir, 0o755); err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("batch"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	makeSinks := func(video string) ([]pipeline.Sink, error) {
		out, err := os.Create(filepath.Join(Cfg.Pipeline.OutputDir, filepath.Base(video)+".csv"))
		if err != nil {
			return nil, err
		}
		return []pipeline.Sink{pipeline.NewCSVSink(out), closeOnFlush{out}}, nil
	}

	items, err := runner.RunBatch(cmd.Context(), batchOpts.Root, makeSinks, func(pipeline.BatchItem) {
		bar.Add(1)
	})
	bar.Finish()
	if err != nil {
		return err
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "\nFAILED %s: %v\n", item.Video, item.Err)
		}
	}
	fmt.Fprintf(os.Stderr, "\nbatch complete: %d videos, %d failed\n", len(items), failed)
	return nil
}

// closeOnFlush closes the per-video output file once the run flushes.
type closeOnFlush struct {
	f *os.File
}

func (c closeOnFlush) WriteBatch([]track.Record) error { return nil }
func (c closeOnFlush) Flush() error                    { return c.f.Close() }
