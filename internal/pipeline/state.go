package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// maxRuns bounds the run history kept in the state file.
const maxRuns = 50

// State is the run history kept on disk between invocations. The status
// subcommand and the API read it; every completed run appends to it.
type State struct {
	UpdatedAt time.Time `json:"updated_at"`
	Runs      []Report  `json:"runs"`

	path string // not serialized
}

// LoadState reads the state file at path, or starts a fresh one when the
// file does not exist yet. A leading "~/" expands to the home directory.
func LoadState(path string) (*State, error) {
	p := expandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{path: p}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = p
	return &s, nil
}

// Save persists the state. The write goes through a temp file and rename so
// an interrupted save cannot truncate the existing history.
func (s *State) Save() error {
	s.UpdatedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// MarkRun records a completed run, newest first, keeping at most maxRuns.
func (s *State) MarkRun(rep Report) {
	s.Runs = append([]Report{rep}, s.Runs...)
	if len(s.Runs) > maxRuns {
		s.Runs = s.Runs[:maxRuns]
	}
}

// LastRun returns the most recent run of the given op, or of any op when
// op is empty.
func (s *State) LastRun(op string) (Report, bool) {
	for _, r := range s.Runs {
		if op == "" || r.Op == op {
			return r, true
		}
	}
	return Report{}, false
}

// Path is where the state lives on disk, after home expansion.
func (s *State) Path() string {
	return s.path
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
