package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/track"
)

// Checkpoint is the resumable unit of a run: the tracker's full working state
// plus the index of the last fully processed frame. Frame updates are never
// persisted partially; a checkpoint is always frame-consistent.
type Checkpoint struct {
	RunID     string         `json:"run_id"`
	Video     string         `json:"video"`
	LastFrame int            `json:"last_frame"`
	Tracker   track.Snapshot `json:"tracker"`
}

// CheckpointStore persists checkpoints as JSON files, one per video.
type CheckpointStore struct {
	dir string
}

func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create checkpoint dir")
	}
	return &CheckpointStore{dir: dir}, nil
}

func (s *CheckpointStore) path(video string) string {
	return filepath.Join(s.dir, filepath.Base(video)+".checkpoint.json")
}

// Save writes the checkpoint atomically: temp file then rename, so a crash
// mid-write never leaves a truncated checkpoint behind.
func (s *CheckpointStore) Save(cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint")
	}
	tmp := s.path(cp.Video) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write checkpoint")
	}
	if err := os.Rename(tmp, s.path(cp.Video)); err != nil {
		return errors.Wrap(err, "commit checkpoint")
	}
	return nil
}

// Load reads the checkpoint for a video. The second return is false when no
// checkpoint exists, which is the normal fresh-start case.
func (s *CheckpointStore) Load(video string) (Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path(video))
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, errors.Wrap(err, "read checkpoint")
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, errors.Wrap(err, "parse checkpoint")
	}
	return cp, true, nil
}

// Clear removes a video's checkpoint after its run completes.
func (s *CheckpointStore) Clear(video string) error {
	err := os.Remove(s.path(video))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "remove checkpoint")
}

// newRunID tags a run for correlating checkpoints with logs and output files.
func newRunID() string {
	return uuid.NewString()
}
