// Package track maintains persistent ant identities across frames: per-frame
// assignment of detections to tracks and the lifecycle state machine covering
// birth, loss, termination, merge (occlusion) and split.
package track

import (
	"log/slog"
	"math"
	"sort"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
)

// Config are the tracker's tunables. GateDistance in particular is a
// trade-off, not a constant: too small for the frame rate and ant speed and
// tracks fragment into births/terminations instead of mis-assigning.
type Config struct {
	// GateDistance is the maximum centroid displacement for a match.
	GateDistance float64
	// MaxMissFrames (K) is how many consecutive unmatched frames a track
	// survives before termination.
	MaxMissFrames int
	// ColorPenalty is added to the pair cost when both the track and the
	// detection carry a color tag and they disagree.
	ColorPenalty float64
	// SplitAreaFactor: a matched track splits off an unmatched nearby
	// detection when its pre-frame area is at least this multiple of the
	// detection's area.
	SplitAreaFactor float64
	// Algorithm selects the assignment strategy.
	Algorithm Algorithm
}

// DefaultConfig mirrors values that work at 25 fps with ant-sized blobs.
func DefaultConfig() Config {
	return Config{
		GateDistance:    30.0,
		MaxMissFrames:   5,
		ColorPenalty:    15.0,
		SplitAreaFactor: 1.8,
		Algorithm:       AlgorithmGreedy,
	}
}

// Tracker owns the working track set. Only Step mutates it; everything
// handed out is a copy or read-only snapshot.
type Tracker struct {
	cfg     Config
	logger  *slog.Logger
	nextID  int64
	working map[int64]*Track
	// archive holds Merged and Terminated tracks for historical output.
	archive []*Track
}

func NewTracker(cfg Config, logger *slog.Logger) *Tracker {
	if cfg.GateDistance <= 0 {
		cfg.GateDistance = DefaultConfig().GateDistance
	}
	if cfg.MaxMissFrames <= 0 {
		cfg.MaxMissFrames = DefaultConfig().MaxMissFrames
	}
	if cfg.SplitAreaFactor <= 0 {
		cfg.SplitAreaFactor = DefaultConfig().SplitAreaFactor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:     cfg,
		logger:  logger,
		nextID:  1,
		working: make(map[int64]*Track),
	}
}

// Step runs the per-frame update with the frame's (clustered) detections and
// returns one record per touched track, ordered by track id. The update is
// fully deterministic for identical inputs.
func (tr *Tracker) Step(frame int, dets []segment.Detection) []Record {
	ids := tr.workingIDs()

	// Pre-frame geometry, needed by merge/split decisions after updates.
	prevCenter := make(map[int64]geom.Point, len(ids))
	prevArea := make(map[int64]float64, len(ids))
	for _, id := range ids {
		t := tr.working[id]
		prevCenter[id] = t.Center()
		prevArea[id] = t.Last().Area
		t.predict()
	}

	costs := tr.costTable(ids, dets)
	tr.logAmbiguities(frame, ids, costs, len(dets))
	asg := solve(tr.cfg.Algorithm, ids, costs, len(dets), tr.cfg.GateDistance)

	var records []Record

	// Matched tracks: append history, reset miss counter, New/Lost → Active.
	for _, id := range ids {
		di, ok := asg.trackToDet[id]
		if !ok {
			continue
		}
		t := tr.working[id]
		obs := Observation{
			Frame:       frame,
			Center:      dets[di].Centroid,
			Orientation: dets[di].Orientation,
			ColorTag:    dets[di].ColorTag,
			Area:        dets[di].Area,
		}
		if err := t.observe(obs); err != nil {
			// A diverged filter must not kill the track; the measured
			// observation is already in the history.
			tr.logger.Warn("motion filter update failed", "track", id, "err", err)
			t.kf = newPointFilter(obs.Center)
		}
	}

	// Unmatched tracks: absorbed into a competing winner, or a miss.
	for ti, id := range ids {
		if _, ok := asg.trackToDet[id]; ok {
			continue
		}
		t := tr.working[id]
		if winner, lost := tr.lostCompetition(ti, costs, asg); lost {
			t.State = StateMerged
			t.AbsorbedInto = winner
			tr.logger.Info("track absorbed", "frame", frame, "track", id, "into", winner)
			records = append(records, t.record(frame))
			tr.retire(t)
			continue
		}
		if st := t.miss(tr.cfg.MaxMissFrames); st == StateTerminated {
			tr.logger.Debug("track terminated", "frame", frame, "track", id, "misses", t.MissCount)
			records = append(records, t.record(frame))
			tr.retire(t)
		}
	}

	// Unmatched detections: split from an oversized matched track, or birth.
	for di := range dets {
		if _, taken := asg.detToTrack[di]; taken {
			continue
		}
		obs := Observation{
			Frame:       frame,
			Center:      dets[di].Centroid,
			Orientation: dets[di].Orientation,
			ColorTag:    dets[di].ColorTag,
			Area:        dets[di].Area,
		}
		t := newTrack(tr.allocID(), obs)
		if parent, ok := tr.splitParent(ids, asg, prevCenter, prevArea, dets[di]); ok {
			t.SplitFrom = parent.ID
			t.ColorTag = parent.ColorTag
			tr.logger.Info("track split", "frame", frame, "parent", parent.ID, "child", t.ID)
		}
		tr.working[t.ID] = t
	}

	for _, id := range tr.workingIDs() {
		records = append(records, tr.working[id].record(frame))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TrackID < records[j].TrackID })
	return records
}

// costTable builds the full cost matrix: Euclidean distance (the smaller of
// measured and predicted position) plus the color-mismatch penalty.
func (tr *Tracker) costTable(ids []int64, dets []segment.Detection) [][]float64 {
	costs := make([][]float64, len(ids))
	for ti, id := range ids {
		t := tr.working[id]
		row := make([]float64, len(dets))
		for di := range dets {
			c := t.gateDistance(dets[di].Centroid)
			if tr.cfg.ColorPenalty > 0 &&
				t.ColorTag != "" && dets[di].ColorTag != "" && t.ColorTag != dets[di].ColorTag {
				c += tr.cfg.ColorPenalty
			}
			row[di] = c
		}
		costs[ti] = row
	}
	return costs
}

// lostCompetition reports whether the (unmatched) track at row ti had an
// in-gate detection that another track won. That is the occlusion signature:
// two tracks converge on one blob and the loser is absorbed.
func (tr *Tracker) lostCompetition(ti int, costs [][]float64, asg assignment) (int64, bool) {
	bestDet := -1
	bestCost := tr.cfg.GateDistance
	for di, c := range costs[ti] {
		if c <= bestCost {
			bestCost = c
			bestDet = di
		}
	}
	if bestDet < 0 {
		return 0, false
	}
	winner, taken := asg.detToTrack[bestDet]
	return winner, taken
}

// splitParent finds the lowest-id track matched this frame that is close
// enough to the orphan detection and was carrying roughly a double-ant blob.
func (tr *Tracker) splitParent(ids []int64, asg assignment, prevCenter map[int64]geom.Point, prevArea map[int64]float64, det segment.Detection) (*Track, bool) {
	for _, id := range ids {
		if _, matched := asg.trackToDet[id]; !matched {
			continue
		}
		if geom.EuclideanDistance(prevCenter[id], det.Centroid) > tr.cfg.GateDistance {
			continue
		}
		if prevArea[id] >= tr.cfg.SplitAreaFactor*det.Area {
			return tr.working[id], true
		}
	}
	return nil, false
}

// logAmbiguities records detections with two equally-costed in-gate suitors.
// The tie resolves deterministically to the lowest track id; this is operator
// information, never an error.
func (tr *Tracker) logAmbiguities(frame int, ids []int64, costs [][]float64, numDets int) {
	for di := 0; di < numDets; di++ {
		best := math.MaxFloat64
		count := 0
		for ti := range ids {
			c := costs[ti][di]
			if c > tr.cfg.GateDistance {
				continue
			}
			switch {
			case c < best:
				best = c
				count = 1
			case c == best:
				count++
			}
		}
		if count > 1 {
			tr.logger.Warn("ambiguous assignment resolved by lowest track id",
				"frame", frame, "detection", di, "cost", best, "contenders", count)
		}
	}
}

func (tr *Tracker) retire(t *Track) {
	tr.archive = append(tr.archive, t)
	delete(tr.working, t.ID)
}

func (tr *Tracker) allocID() int64 {
	id := tr.nextID
	tr.nextID++
	return id
}

// workingIDs returns the active/lost/new track ids in ascending order, the
// iteration order used everywhere for determinism.
func (tr *Tracker) workingIDs() []int64 {
	ids := make([]int64, 0, len(tr.working))
	for id := range tr.working {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Working returns the current working set, ordered by id. The tracks are the
// tracker's own; callers must not mutate them.
func (tr *Tracker) Working() []*Track {
	out := make([]*Track, 0, len(tr.working))
	for _, id := range tr.workingIDs() {
		out = append(out, tr.working[id])
	}
	return out
}

// Archive returns the retired (Merged/Terminated) tracks in retirement order.
func (tr *Tracker) Archive() []*Track {
	return tr.archive
}

// Get returns the working track with the given id.
func (tr *Tracker) Get(id int64) (*Track, bool) {
	t, ok := tr.working[id]
	return t, ok
}
