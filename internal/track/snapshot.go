package track

import "log/slog"

// TrackSnapshot is the serializable form of a Track. The motion filter is not
// persisted; on restore it is re-seeded from the last observation.
type TrackSnapshot struct {
	ID           int64         `json:"id"`
	State        State         `json:"state"`
	History      []Observation `json:"history"`
	LastSeen     int           `json:"last_seen"`
	MissCount    int           `json:"miss_count"`
	ColorTag     string        `json:"color_tag,omitempty"`
	AbsorbedInto int64         `json:"absorbed_into,omitempty"`
	SplitFrom    int64         `json:"split_from,omitempty"`
	TagCandidate string        `json:"tag_candidate,omitempty"`
	TagStreak    int           `json:"tag_streak,omitempty"`
}

// Snapshot is the tracker's full working state: the unit of checkpointing.
// Restoring a snapshot and stepping yields the same records as never having
// stopped.
type Snapshot struct {
	NextID  int64           `json:"next_id"`
	Working []TrackSnapshot `json:"working"`
	Archive []TrackSnapshot `json:"archive,omitempty"`
}

func snapshotTrack(t *Track) TrackSnapshot {
	history := make([]Observation, len(t.History))
	copy(history, t.History)
	return TrackSnapshot{
		ID:           t.ID,
		State:        t.State,
		History:      history,
		LastSeen:     t.LastSeen,
		MissCount:    t.MissCount,
		ColorTag:     t.ColorTag,
		AbsorbedInto: t.AbsorbedInto,
		SplitFrom:    t.SplitFrom,
		TagCandidate: t.tagCandidate,
		TagStreak:    t.tagStreak,
	}
}

func restoreTrack(s TrackSnapshot) *Track {
	history := make([]Observation, len(s.History))
	copy(history, s.History)
	t := &Track{
		ID:           s.ID,
		State:        s.State,
		History:      history,
		LastSeen:     s.LastSeen,
		MissCount:    s.MissCount,
		ColorTag:     s.ColorTag,
		AbsorbedInto: s.AbsorbedInto,
		SplitFrom:    s.SplitFrom,
		tagCandidate: s.TagCandidate,
		tagStreak:    s.TagStreak,
	}
	if len(t.History) > 0 {
		t.kf = newPointFilter(t.Last().Center)
	}
	return t
}

// Snapshot captures the tracker state, working tracks ordered by id.
func (tr *Tracker) Snapshot() Snapshot {
	snap := Snapshot{NextID: tr.nextID}
	for _, id := range tr.workingIDs() {
		snap.Working = append(snap.Working, snapshotTrack(tr.working[id]))
	}
	for _, t := range tr.archive {
		snap.Archive = append(snap.Archive, snapshotTrack(t))
	}
	return snap
}

// RestoreTracker rebuilds a tracker from a snapshot so a run can resume at
// the frame after the checkpoint. Id allocation continues from the snapshot's
// NextID, so ids stay monotonic across the restore.
func RestoreTracker(cfg Config, logger *slog.Logger, snap Snapshot) *Tracker {
	tr := NewTracker(cfg, logger)
	if snap.NextID > tr.nextID {
		tr.nextID = snap.NextID
	}
	for _, s := range snap.Working {
		tr.working[s.ID] = restoreTrack(s)
	}
	for _, s := range snap.Archive {
		tr.archive = append(tr.archive, restoreTrack(s))
	}
	return tr
}
