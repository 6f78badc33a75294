package track

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
)

func populatedTracker(t *testing.T) *Tracker {
	t.Helper()
	tracker := NewTracker(testConfig(), nil)
	for frame := 1; frame <= 4; frame++ {
		tracker.Step(frame, []segment.Detection{
			det(100, 100, 300, "red"),
			det(300, 100, 280, "blue"),
		})
	}
	// One track goes missing so the snapshot carries a Lost state too.
	tracker.Step(5, []segment.Detection{det(100, 100, 300, "red")})
	return tracker
}

func TestSnapshotRoundTrip(t *testing.T) {
	tracker := populatedTracker(t)
	snap := tracker.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var loaded Snapshot
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snap, loaded) {
		t.Errorf("snapshot did not survive serialization:\n%+v\n%+v", snap, loaded)
	}

	restored := RestoreTracker(testConfig(), nil, loaded)
	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Errorf("restored tracker state differs from the original snapshot")
	}
}

func TestRestorePreservesIDAllocation(t *testing.T) {
	tracker := populatedTracker(t)
	snap := tracker.Snapshot()

	restored := RestoreTracker(testConfig(), nil, snap)
	// A birth after restore must not collide with any pre-restore id.
	restored.Step(6, []segment.Detection{
		det(100, 100, 300, "red"),
		det(500, 500, 300, ""),
	})
	seen := make(map[int64]bool)
	for _, s := range snap.Working {
		seen[s.ID] = true
	}
	for _, s := range snap.Archive {
		seen[s.ID] = true
	}
	fresh := false
	for _, tr := range restored.Working() {
		if !seen[tr.ID] {
			if tr.ID < snap.NextID {
				t.Errorf("new id %d collides with the pre-restore range", tr.ID)
			}
			fresh = true
		}
	}
	if !fresh {
		t.Errorf("expected a new track after restore")
	}
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	frames := [][]segment.Detection{
		{det(100, 100, 300, "red")},
		{det(103, 100, 300, "red")},
		{det(106, 101, 300, "red"), det(300, 300, 280, "blue")},
		{det(109, 101, 300, "red"), det(303, 301, 280, "blue")},
		{det(112, 102, 300, "red"), det(306, 302, 280, "blue")},
	}

	straight := NewTracker(testConfig(), nil)
	for i, dets := range frames {
		straight.Step(i+1, dets)
	}

	// Same sequence with a snapshot/restore in the middle.
	first := NewTracker(testConfig(), nil)
	for i := 0; i < 2; i++ {
		first.Step(i+1, frames[i])
	}
	resumed := RestoreTracker(testConfig(), nil, first.Snapshot())
	for i := 2; i < len(frames); i++ {
		resumed.Step(i+1, frames[i])
	}

	a := straight.Snapshot()
	b := resumed.Snapshot()
	if !reflect.DeepEqual(a.Working, b.Working) {
		t.Errorf("resumed run diverged from the uninterrupted run:\n%+v\n%+v", a.Working, b.Working)
	}
}
