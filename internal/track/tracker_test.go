package track

import (
	"testing"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
)

func det(x, y, area float64, tag string) segment.Detection {
	return segment.Detection{
		Centroid: geom.NewPoint(x, y),
		Area:     area,
		ColorTag: tag,
	}
}

func testConfig() Config {
	return Config{
		GateDistance:    30.0,
		MaxMissFrames:   5,
		ColorPenalty:    15.0,
		SplitAreaFactor: 1.8,
		Algorithm:       AlgorithmGreedy,
	}
}

func TestStationaryBlobSingleTrack(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 20; frame++ {
		tracker.Step(frame, []segment.Detection{det(100, 100, 300, "red")})
	}

	working := tracker.Working()
	if len(working) != 1 {
		t.Errorf("incorrect number of tracks: %d, expected: %d", len(working), 1)
		return
	}
	tr := working[0]
	if tr.State != StateActive {
		t.Errorf("incorrect state: %s, expected: %s", tr.State, StateActive)
	}
	if len(tr.History) != 20 {
		t.Errorf("incorrect history length: %d, expected: %d", len(tr.History), 20)
	}
	for i, obs := range tr.History {
		if obs.Center.X != 100 || obs.Center.Y != 100 {
			t.Errorf("observation %d drifted to (%f, %f)", i, obs.Center.X, obs.Center.Y)
		}
		if obs.Frame != i+1 {
			t.Errorf("observation %d has frame %d, expected %d", i, obs.Frame, i+1)
		}
	}
	if tr.ColorTag != "red" {
		t.Errorf("incorrect color tag: %q, expected: %q", tr.ColorTag, "red")
	}
	if len(tracker.Archive()) != 0 {
		t.Errorf("nothing should be retired, got %d", len(tracker.Archive()))
	}
}

func TestStateNewBecomesActiveOnSecondMatch(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	records := tracker.Step(1, []segment.Detection{det(50, 50, 300, "")})
	if len(records) != 1 || records[0].State != StateNew {
		t.Errorf("first frame must yield one New record, got %+v", records)
	}
	records = tracker.Step(2, []segment.Detection{det(51, 50, 300, "")})
	if len(records) != 1 || records[0].State != StateActive {
		t.Errorf("second frame must yield an Active record, got %+v", records)
	}
}

func TestTwoSeparatedBlobsNeverContend(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 10; frame++ {
		tracker.Step(frame, []segment.Detection{
			det(100, 100, 300, "red"),
			det(300, 100, 300, "blue"),
		})
	}

	working := tracker.Working()
	if len(working) != 2 {
		t.Errorf("incorrect number of tracks: %d, expected: %d", len(working), 2)
		return
	}
	for _, tr := range working {
		if len(tr.History) != 10 {
			t.Errorf("track %d history: %d, expected: %d", tr.ID, len(tr.History), 10)
		}
	}
	if working[0].ColorTag == working[1].ColorTag {
		t.Errorf("tracks swapped or shared a tag: %q, %q", working[0].ColorTag, working[1].ColorTag)
	}
	if len(tracker.Archive()) != 0 {
		t.Errorf("no merges or terminations expected, got %d", len(tracker.Archive()))
	}
}

func TestMergeThenSplit(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	// Two tagged ants approach from 40px apart.
	for frame := 1; frame <= 3; frame++ {
		tracker.Step(frame, []segment.Detection{
			det(100, 100, 300, "red"),
			det(140, 100, 300, "blue"),
		})
	}
	// One double-area blob: occlusion. The loser is absorbed.
	tracker.Step(4, []segment.Detection{det(120, 100, 600, "")})

	if len(tracker.Working()) != 1 {
		t.Errorf("incorrect working set size after merge: %d, expected: %d", len(tracker.Working()), 1)
		return
	}
	archive := tracker.Archive()
	if len(archive) != 1 {
		t.Errorf("incorrect archive size after merge: %d, expected: %d", len(archive), 1)
		return
	}
	merged := archive[0]
	survivor := tracker.Working()[0]
	if merged.State != StateMerged {
		t.Errorf("incorrect state: %s, expected: %s", merged.State, StateMerged)
	}
	if merged.AbsorbedInto != survivor.ID {
		t.Errorf("absorbed-into %d, expected: %d", merged.AbsorbedInto, survivor.ID)
	}

	// The blob separates again: the survivor keeps one half, the other half
	// splits off as a new track seeded with the parent's tag.
	tracker.Step(5, []segment.Detection{
		det(110, 100, 300, ""),
		det(130, 100, 300, ""),
	})

	working := tracker.Working()
	if len(working) != 2 {
		t.Errorf("incorrect working set size after split: %d, expected: %d", len(working), 2)
		return
	}
	var child *Track
	for _, tr := range working {
		if tr.ID != survivor.ID {
			child = tr
		}
	}
	if child == nil {
		t.Errorf("survivor disappeared across the split")
		return
	}
	if child.State != StateNew {
		t.Errorf("incorrect child state: %s, expected: %s", child.State, StateNew)
	}
	if child.SplitFrom != survivor.ID {
		t.Errorf("child split-from %d, expected: %d", child.SplitFrom, survivor.ID)
	}
	if child.ColorTag != survivor.ColorTag {
		t.Errorf("child must inherit the parent tag, got %q vs %q", child.ColorTag, survivor.ColorTag)
	}
}

func TestShortDisappearanceKeepsIdentity(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 5; frame++ {
		tracker.Step(frame, []segment.Detection{det(100, 100, 300, "red")})
	}
	id := tracker.Working()[0].ID

	// Gone for 3 frames, below the K=5 termination threshold.
	for frame := 6; frame <= 8; frame++ {
		tracker.Step(frame, nil)
	}
	tr, ok := tracker.Get(id)
	if !ok {
		t.Errorf("track %d must survive a short disappearance", id)
		return
	}
	if tr.State != StateLost {
		t.Errorf("incorrect state: %s, expected: %s", tr.State, StateLost)
	}
	if tr.MissCount != 3 {
		t.Errorf("incorrect miss count: %d, expected: %d", tr.MissCount, 3)
	}

	// Reappears within the gate: same identity, counter resets.
	tracker.Step(9, []segment.Detection{det(102, 100, 300, "red")})
	tr, ok = tracker.Get(id)
	if !ok {
		t.Errorf("track %d must rematch on reappearance", id)
		return
	}
	if tr.State != StateActive || tr.MissCount != 0 {
		t.Errorf("incorrect state after rematch: %s, misses %d", tr.State, tr.MissCount)
	}
	if len(tracker.Working()) != 1 {
		t.Errorf("no new track may be created, got %d", len(tracker.Working()))
	}
}

func TestLongDisappearanceTerminatesAndNeverReusesID(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 3; frame++ {
		tracker.Step(frame, []segment.Detection{det(100, 100, 300, "red")})
	}
	oldID := tracker.Working()[0].ID

	// Gone past K=5 consecutive misses.
	for frame := 4; frame <= 9; frame++ {
		tracker.Step(frame, nil)
	}
	if len(tracker.Working()) != 0 {
		t.Errorf("track must be terminated, working set has %d", len(tracker.Working()))
		return
	}
	archive := tracker.Archive()
	if len(archive) != 1 || archive[0].State != StateTerminated {
		t.Errorf("archive must hold the terminated track, got %+v", archive)
	}

	// A blob at the same spot later gets a fresh id.
	tracker.Step(10, []segment.Detection{det(100, 100, 300, "red")})
	fresh := tracker.Working()
	if len(fresh) != 1 {
		t.Errorf("expected one new track, got %d", len(fresh))
		return
	}
	if fresh[0].ID == oldID {
		t.Errorf("track id %d was reused", oldID)
	}
}

func TestAssignmentIsInjective(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmGreedy, AlgorithmHungarian} {
		cfg := testConfig()
		cfg.Algorithm = alg
		tracker := NewTracker(cfg, nil)
		dets := []segment.Detection{
			det(100, 100, 300, ""),
			det(120, 100, 300, ""),
			det(140, 100, 300, ""),
		}
		tracker.Step(1, dets)
		tracker.Step(2, dets)

		working := tracker.Working()
		if len(working) != 3 {
			t.Errorf("alg %d: incorrect number of tracks: %d, expected: %d", alg, len(working), 3)
			continue
		}
		centers := make(map[geom.Point]int64)
		for _, tr := range working {
			if len(tr.History) != 2 {
				t.Errorf("alg %d: track %d unmatched, history %d", alg, tr.ID, len(tr.History))
			}
			c := tr.Center()
			if prev, dup := centers[c]; dup {
				t.Errorf("alg %d: tracks %d and %d share detection at (%f, %f)", alg, prev, tr.ID, c.X, c.Y)
			}
			centers[c] = tr.ID
		}
	}
}

func TestNoDuplicateIDsInWorkingSet(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 6; frame++ {
		var dets []segment.Detection
		// Churn: alternating counts force births and misses.
		if frame%2 == 1 {
			dets = []segment.Detection{det(10, 10, 100, ""), det(400, 400, 100, "")}
		} else {
			dets = []segment.Detection{det(10, 10, 100, "")}
		}
		tracker.Step(frame, dets)
		seen := make(map[int64]bool)
		for _, tr := range tracker.Working() {
			if seen[tr.ID] {
				t.Errorf("duplicate id %d in working set at frame %d", tr.ID, frame)
			}
			seen[tr.ID] = true
		}
	}
}

func TestColorPenaltySteersAssignment(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	// Establish sticky tags over two frames.
	for frame := 1; frame <= 2; frame++ {
		tracker.Step(frame, []segment.Detection{
			det(100, 100, 300, "red"),
			det(125, 100, 300, "blue"),
		})
	}
	// Geometrically the red track is closer to the blue detection (10px vs
	// 17px), but the color penalty (15) keeps each track on its own tag.
	tracker.Step(3, []segment.Detection{
		det(110, 100, 300, "blue"),
		det(117, 100, 300, "red"),
	})
	for _, tr := range tracker.Working() {
		if tr.Last().ColorTag != tr.ColorTag {
			t.Errorf("track %d (%s) matched a %s detection", tr.ID, tr.ColorTag, tr.Last().ColorTag)
		}
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	frames := [][]segment.Detection{
		{det(100, 100, 300, "red"), det(140, 100, 300, "blue")},
		{det(110, 100, 300, "red"), det(130, 100, 300, "blue")},
		{det(120, 100, 600, "")},
		{det(112, 100, 300, ""), det(128, 100, 300, "")},
		{det(110, 100, 300, "red")},
	}
	run := func() []Record {
		tracker := NewTracker(testConfig(), nil)
		var all []Record
		for i, dets := range frames {
			all = append(all, tracker.Step(i+1, dets)...)
		}
		return all
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Errorf("replay produced %d records vs %d", len(a), len(b))
		return
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRecordsSortedAndComplete(t *testing.T) {
	tracker := NewTracker(testConfig(), nil)
	tracker.Step(1, []segment.Detection{det(10, 10, 100, ""), det(200, 200, 100, "")})
	records := tracker.Step(2, []segment.Detection{det(10, 10, 100, ""), det(200, 200, 100, "")})
	if len(records) != 2 {
		t.Errorf("incorrect number of records: %d, expected: %d", len(records), 2)
		return
	}
	if records[0].TrackID >= records[1].TrackID {
		t.Errorf("records must be ordered by track id: %d, %d", records[0].TrackID, records[1].TrackID)
	}
	for _, r := range records {
		if r.Frame != 2 {
			t.Errorf("incorrect record frame: %d, expected: %d", r.Frame, 2)
		}
	}
}
