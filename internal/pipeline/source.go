// Package pipeline drives the per-frame analysis loop: frame decoding on a
// separate goroutine behind a bounded queue, the sequential
// segment → cluster → track core, checkpointing and output sinks.
package pipeline

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ErrEmptyFrame marks a zero-byte or undecodable frame. The runner skips it,
// logs, and advances; it never aborts a run.
var ErrEmptyFrame = errors.New("empty or malformed frame")

// ErrCorruptSource marks a source that cannot produce further frames before
// its expected end. Fatal for the current video, never for the whole batch.
var ErrCorruptSource = errors.New("corrupt frame source")

// Frame is one decoded video frame.
type Frame struct {
	Image     image.Image
	Index     int
	Timestamp time.Time
}

// FrameSource produces a finite, forward-only frame sequence. Next returns
// io.EOF at the regular end, ErrEmptyFrame for a skippable bad frame, and
// ErrCorruptSource when the source is broken before its expected end.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DirSource reads a directory of per-frame image files in lexical filename
// order, the layout produced by frame-extraction tooling.
type DirSource struct {
	dir   string
	files []string
	pos   int
}

func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptSource, "read frame dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrCorruptSource, "no frame files in %s", dir)
	}
	sort.Strings(files)
	return &DirSource{dir: dir, files: files}, nil
}

func (s *DirSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.files) {
		return Frame{}, io.EOF
	}
	path := s.files[s.pos]
	idx := s.pos
	s.pos++

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return Frame{Index: idx}, errors.Wrapf(ErrEmptyFrame, "%s", path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return Frame{Index: idx}, errors.Wrapf(ErrEmptyFrame, "decode %s: %v", path, err)
	}
	return Frame{Image: img, Index: idx, Timestamp: info.ModTime()}, nil
}

func (s *DirSource) Close() error { return nil }

// MemorySource serves pre-built frames, mainly for tests and synthetic runs.
// A nil image yields ErrEmptyFrame for that position.
type MemorySource struct {
	frames []Frame
	pos    int
	// Truncated simulates a source breaking before its expected end.
	Truncated bool
}

func NewMemorySource(frames ...Frame) *MemorySource {
	return &MemorySource{frames: frames}
}

func (s *MemorySource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.frames) {
		if s.Truncated {
			return Frame{}, errors.Wrap(ErrCorruptSource, "source truncated")
		}
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	if f.Image == nil {
		return Frame{Index: f.Index}, errors.Wrapf(ErrEmptyFrame, "frame %d", f.Index)
	}
	return f, nil
}

func (s *MemorySource) Close() error { return nil }
