package track

import (
	kalman_filter "github.com/LdDl/kalman-filter"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
)

// State is a track's lifecycle state. Transitions happen only inside the
// tracker's per-frame update step.
type State uint8

const (
	// StateNew is a track created this frame, not yet confirmed.
	StateNew State = iota
	// StateActive is a track matched in at least one prior frame.
	StateActive
	// StateLost is a track unmatched for 1..K consecutive frames.
	StateLost
	// StateMerged is a track whose identity was absorbed into another track
	// (occlusion: two ants, one blob).
	StateMerged
	// StateTerminated is a track unmatched beyond K frames; it is removed
	// from the working set and kept only in historical output.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StateLost:
		return "lost"
	case StateMerged:
		return "merged"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Observation is one history entry of a track.
type Observation struct {
	Frame       int        `json:"frame"`
	Center      geom.Point `json:"center"`
	Orientation float64    `json:"orientation"`
	ColorTag    string     `json:"color_tag"`
	Area        float64    `json:"area"`
}

// tagConfirmFrames is how many consecutive frames must agree on a color tag
// before it sticks to the track.
const tagConfirmFrames = 2

// Track is a persistent cross-frame identity for one physical ant. Ids are
// monotonic and never reused within a run.
type Track struct {
	ID    int64
	State State
	// History is append-only and strictly ordered by increasing frame index.
	History []Observation
	// LastSeen is the frame index of the most recent match.
	LastSeen int
	// MissCount is the number of consecutive unmatched frames since the
	// last match; it resets to zero strictly on match.
	MissCount int
	// ColorTag sticks once the same tag has been observed tagConfirmFrames
	// frames in a row.
	ColorTag string
	// AbsorbedInto holds the absorbing track's id when State is StateMerged.
	AbsorbedInto int64
	// SplitFrom holds the parent track's id when this track was born from a
	// split event.
	SplitFrom int64

	tagCandidate string
	tagStreak    int

	kf            *kalman_filter.Kalman2D
	predicted     geom.Point
	hasPrediction bool
}

// newTrack creates a track in state New from its first observation.
func newTrack(id int64, obs Observation) *Track {
	t := &Track{
		ID:       id,
		State:    StateNew,
		History:  []Observation{obs},
		LastSeen: obs.Frame,
		kf:       newPointFilter(obs.Center),
	}
	t.observeTag(obs.ColorTag)
	return t
}

// newPointFilter builds the 2-D constant-velocity Kalman filter used for
// position prediction in gating. Process/measurement noise follows the
// defaults that work well at video frame rates.
func newPointFilter(center geom.Point) *kalman_filter.Kalman2D {
	dt := 1.0
	ux := 1.0
	uy := 1.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	return kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy,
		kalman_filter.WithState2D(center.X, center.Y))
}

// Center returns the track's last observed centroid.
func (t *Track) Center() geom.Point {
	return t.History[len(t.History)-1].Center
}

// Last returns the most recent observation.
func (t *Track) Last() Observation {
	return t.History[len(t.History)-1]
}

// predict advances the motion filter one step and caches the predicted
// position for gating.
func (t *Track) predict() {
	t.kf.Predict()
	px, py := t.kf.GetState()
	t.predicted = geom.Point{X: px, Y: py}
	t.hasPrediction = true
}

// gateDistance is the distance used against the assignment gate: the smaller
// of measured-to-measured and predicted-to-measured.
func (t *Track) gateDistance(p geom.Point) float64 {
	d := geom.EuclideanDistance(t.Center(), p)
	if t.hasPrediction {
		if dp := geom.EuclideanDistance(t.predicted, p); dp < d {
			d = dp
		}
	}
	return d
}

// observe appends a matched observation, resets the miss counter and runs the
// filter's correction step. New and Lost tracks become Active.
func (t *Track) observe(obs Observation) error {
	t.History = append(t.History, obs)
	t.LastSeen = obs.Frame
	t.MissCount = 0
	t.State = StateActive
	t.observeTag(obs.ColorTag)
	if err := t.kf.Update(obs.Center.X, obs.Center.Y); err != nil {
		return err
	}
	return nil
}

// observeTag implements the sticky color tag: once established it never
// changes, and establishing requires tagConfirmFrames consecutive agreeing
// observations.
func (t *Track) observeTag(tag string) {
	if t.ColorTag != "" || tag == "" {
		return
	}
	if tag == t.tagCandidate {
		t.tagStreak++
	} else {
		t.tagCandidate = tag
		t.tagStreak = 1
	}
	if t.tagStreak >= tagConfirmFrames {
		t.ColorTag = tag
	}
}

// miss marks the track unmatched for this frame. Returns the resulting state.
func (t *Track) miss(maxMiss int) State {
	t.MissCount++
	if t.MissCount > maxMiss {
		t.State = StateTerminated
	} else {
		t.State = StateLost
	}
	return t.State
}

// Record is the per-(frame, track) output unit forwarded to sinks.
type Record struct {
	Frame       int        `json:"frame"`
	TrackID     int64      `json:"track_id"`
	Center      geom.Point `json:"center"`
	Area        float64    `json:"area"`
	Orientation float64    `json:"orientation"`
	ColorTag    string     `json:"color_tag"`
	State       State      `json:"state"`
}

func (t *Track) record(frame int) Record {
	last := t.Last()
	return Record{
		Frame:       frame,
		TrackID:     t.ID,
		Center:      last.Center,
		Area:        last.Area,
		Orientation: last.Orientation,
		ColorTag:    t.ColorTag,
		State:       t.State,
	}
}
