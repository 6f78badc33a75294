package pipeline

import (
	"context"
	"image"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/cluster"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

// Runner ties the per-frame core together. Decoding runs on its own goroutine
// behind a bounded queue; segmentation, clustering and tracking stay
// single-threaded and frame-sequential because tracker state depends on the
// prior frame.
type Runner struct {
	segmenter *segment.Segmenter
	clusterer *cluster.Clusterer
	trackCfg  track.Config
	logger    *slog.Logger

	// Background enables foreground-difference segmentation when set;
	// otherwise frames are segmented by palette tags.
	Background image.Image
	// QueueDepth bounds the decoded-frame channel.
	QueueDepth int
	// CheckpointEvery is the checkpoint interval in frames; 0 disables it.
	CheckpointEvery int
	Checkpoints     *CheckpointStore
}

func NewRunner(seg *segment.Segmenter, cl *cluster.Clusterer, trackCfg track.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		segmenter:  seg,
		clusterer:  cl,
		trackCfg:   trackCfg,
		logger:     logger,
		QueueDepth: 8,
	}
}

// Result summarizes one video run.
type Result struct {
	RunID     string
	Video     string
	Frames    int
	Skipped   int
	LastFrame int
	Tracker   *track.Tracker
}

type decoded struct {
	frame Frame
	err   error
}

// Run processes a frame source to completion, resuming from a checkpoint when
// one exists. Cancellation is cooperative: the context is checked once per
// frame boundary, the in-flight frame always completes, and the final
// checkpoint is therefore always frame-consistent.
func (r *Runner) Run(ctx context.Context, source FrameSource, video string, sinks ...Sink) (Result, error) {
	res := Result{RunID: newRunID(), Video: video, LastFrame: -1}
	logger := r.logger.With("video", video, "run", res.RunID)

	tracker := track.NewTracker(r.trackCfg, logger)
	resumeAfter := -1
	if r.Checkpoints != nil {
		cp, ok, err := r.Checkpoints.Load(video)
		if err != nil {
			return res, err
		}
		if ok {
			tracker = track.RestoreTracker(r.trackCfg, logger, cp.Tracker)
			resumeAfter = cp.LastFrame
			res.RunID = cp.RunID
			logger.Info("resuming from checkpoint", "last_frame", cp.LastFrame)
		}
	}
	res.Tracker = tracker

	depth := r.QueueDepth
	if depth <= 0 {
		depth = 8
	}
	frames := make(chan decoded, depth)
	decodeCtx, stopDecode := context.WithCancel(ctx)
	defer stopDecode()
	go func() {
		defer close(frames)
		for {
			f, err := source.Next(decodeCtx)
			select {
			case frames <- decoded{frame: f, err: err}:
			case <-decodeCtx.Done():
				return
			}
			if err != nil && !errors.Is(err, ErrEmptyFrame) {
				return
			}
		}
	}()

	flush := func() error {
		for _, s := range sinks {
			if err := s.Flush(); err != nil {
				return err
			}
		}
		return nil
	}

	for d := range frames {
		if err := ctx.Err(); err != nil {
			r.checkpoint(logger, video, res.RunID, res.LastFrame, tracker)
			_ = flush()
			return res, errors.Wrap(err, "run cancelled")
		}
		switch {
		case d.err == nil:
		case errors.Is(d.err, io.EOF) || errors.Is(d.err, context.Canceled):
			goto done
		case errors.Is(d.err, ErrEmptyFrame):
			logger.Warn("skipping bad frame", "frame", d.frame.Index, "err", d.err)
			res.Skipped++
			continue
		default:
			// Corrupt source: fatal for this video only.
			r.checkpoint(logger, video, res.RunID, res.LastFrame, tracker)
			_ = flush()
			return res, d.err
		}

		if d.frame.Index <= resumeAfter {
			continue
		}

		records, ok := r.processFrame(logger, tracker, d.frame)
		if !ok {
			res.Skipped++
			continue
		}
		res.Frames++
		res.LastFrame = d.frame.Index

		for _, s := range sinks {
			if err := s.WriteBatch(records); err != nil {
				return res, errors.Wrap(err, "write output")
			}
		}
		if r.CheckpointEvery > 0 && r.Checkpoints != nil && res.Frames%r.CheckpointEvery == 0 {
			r.checkpoint(logger, video, res.RunID, res.LastFrame, tracker)
		}
	}

done:
	if r.Checkpoints != nil {
		if err := r.Checkpoints.Clear(video); err != nil {
			logger.Warn("clear checkpoint failed", "err", err)
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	logger.Info("run complete", "frames", res.Frames, "skipped", res.Skipped,
		"working_tracks", len(tracker.Working()), "retired_tracks", len(tracker.Archive()))
	return res, nil
}

// processFrame runs one frame through segmentation, clustering and the
// tracker update. A panic inside the frame degrades to "no update this
// frame" with a logged diagnostic; it never propagates past the frame.
func (r *Runner) processFrame(logger *slog.Logger, tracker *track.Tracker, f Frame) (records []track.Record, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("frame processing fault, no update this frame",
				"frame", f.Index, "panic", p)
			records, ok = nil, false
		}
	}()

	var dets []segment.Detection
	if r.Background != nil {
		dets = r.segmenter.SegmentForeground(f.Image, r.Background)
	} else {
		dets = r.segmenter.SegmentByTags(f.Image)
	}
	if len(dets) == 0 {
		// A blob-free frame is a valid outcome; misses still advance.
		logger.Debug("no detections", "frame", f.Index)
	}
	dets = r.clusterer.Group(dets)
	return tracker.Step(f.Index, dets), true
}

func (r *Runner) checkpoint(logger *slog.Logger, video, runID string, lastFrame int, tracker *track.Tracker) {
	if r.Checkpoints == nil || lastFrame < 0 {
		return
	}
	cp := Checkpoint{
		RunID:     runID,
		Video:     video,
		LastFrame: lastFrame,
		Tracker:   tracker.Snapshot(),
	}
	if err := r.Checkpoints.Save(cp); err != nil {
		logger.Warn("checkpoint save failed", "frame", lastFrame, "err", err)
		return
	}
	logger.Debug("checkpoint saved", "frame", lastFrame)
}
