package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

// Sink consumes the per-frame record batches produced by the runner.
type Sink interface {
	WriteBatch(records []track.Record) error
	Flush() error
}

// CSVSink writes one row per (frame, track) record, semicolon-separated.
type CSVSink struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVSink(w io.Writer) *CSVSink {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return &CSVSink{w: cw}
}

var csvHeader = []string{"frame", "track_id", "x", "y", "area", "orientation", "color_tag", "state"}

func (s *CSVSink) WriteBatch(records []track.Record) error {
	if !s.wroteHeader {
		if err := s.w.Write(csvHeader); err != nil {
			return errors.Wrap(err, "write csv header")
		}
		s.wroteHeader = true
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Frame),
			strconv.FormatInt(r.TrackID, 10),
			strconv.FormatFloat(r.Center.X, 'f', 2, 64),
			strconv.FormatFloat(r.Center.Y, 'f', 2, 64),
			strconv.FormatFloat(r.Area, 'f', 1, 64),
			strconv.FormatFloat(r.Orientation, 'f', 4, 64),
			r.ColorTag,
			r.State.String(),
		}
		if err := s.w.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	return nil
}

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return errors.Wrap(s.w.Error(), "flush csv")
}

// MemorySink collects records in memory, mainly for tests.
type MemorySink struct {
	Records []track.Record
	// Batches preserves the per-frame batch boundaries.
	Batches [][]track.Record
}

func (s *MemorySink) WriteBatch(records []track.Record) error {
	batch := make([]track.Record, len(records))
	copy(batch, records)
	s.Batches = append(s.Batches, batch)
	s.Records = append(s.Records, batch...)
	return nil
}

func (s *MemorySink) Flush() error { return nil }
