package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int          `toml:"version"`
	Tasks   []taskSchema `toml:"tasks"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported tasks schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// taskSchema keeps the task result as a JSON document since its shape
// depends on the task kind.
type taskSchema struct {
	ID           string `toml:"id"`
	Kind         string `toml:"kind"`
	NotebookID   string `toml:"notebook_id"`
	State        string `toml:"state"`
	SubmittedAt  string `toml:"submitted_at"`
	LastPolledAt string `toml:"last_polled_at,omitempty"`
	Result       string `toml:"result,omitempty"`
	FailureCause string `toml:"failure_cause,omitempty"`
}
