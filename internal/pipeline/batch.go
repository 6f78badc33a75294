package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// BatchItem is the outcome of one video inside a folder batch.
type BatchItem struct {
	Video  string
	Result Result
	Err    error
}

// RunBatch processes every frame directory under root in lexical order. A
// failed video is recorded and the batch moves on; only cancellation stops
// the whole batch. onVideo, when non-nil, is called after each video, e.g.
// to advance a progress display.
func (r *Runner) RunBatch(ctx context.Context, root string, makeSinks func(video string) ([]Sink, error), onVideo func(BatchItem)) ([]BatchItem, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(err, "read batch root")
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	if len(dirs) == 0 {
		return nil, errors.Errorf("no video directories under %s", root)
	}
	sort.Strings(dirs)

	var items []BatchItem
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return items, errors.Wrap(err, "batch cancelled")
		}
		item := BatchItem{Video: dir}
		item.Result, item.Err = r.runOne(ctx, dir, makeSinks)
		if item.Err != nil {
			r.logger.Error("video failed", "video", dir, "err", item.Err)
		}
		items = append(items, item)
		if onVideo != nil {
			onVideo(item)
		}
	}
	return items, nil
}

func (r *Runner) runOne(ctx context.Context, dir string, makeSinks func(video string) ([]Sink, error)) (Result, error) {
	source, err := NewDirSource(dir)
	if err != nil {
		return Result{Video: dir}, err
	}
	defer source.Close()

	var sinks []Sink
	if makeSinks != nil {
		sinks, err = makeSinks(dir)
		if err != nil {
			return Result{Video: dir}, err
		}
	}
	return r.Run(ctx, source, dir, sinks...)
}
