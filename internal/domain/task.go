package domain

import (
	"fmt"
	"strings"
	"time"
)

type TaskKind string

const (
	TaskKindGeneration TaskKind = "generation"
	TaskKindResearch   TaskKind = "research"
)

func ParseTaskKind(raw string) (TaskKind, error) {
	switch kind := TaskKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case TaskKindGeneration, TaskKindResearch:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown task kind %q", raw)
	}
}

type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateProcessing TaskState = "processing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

func ParseTaskState(raw string) (TaskState, error) {
	switch state := TaskState(strings.ToLower(strings.TrimSpace(raw))); state {
	case TaskStatePending, TaskStateProcessing, TaskStateCompleted, TaskStateFailed:
		return state, nil
	default:
		return "", fmt.Errorf("unknown task state %q", raw)
	}
}

func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

func (s TaskState) rank() int {
	switch s {
	case TaskStatePending:
		return 1
	case TaskStateProcessing:
		return 2
	case TaskStateCompleted, TaskStateFailed:
		return 3
	default:
		return 0
	}
}

// TaskObservation is what one status poll reported for a task.
type TaskObservation struct {
	State  TaskState
	Result any
	Reason string
}

// AsyncTask tracks a long-running remote job. Only the poller mutates it.
type AsyncTask struct {
	ID           string
	Kind         TaskKind
	NotebookID   string
	State        TaskState
	SubmittedAt  time.Time
	LastPolledAt time.Time
	Result       any
	FailureCause string
}

func NewAsyncTask(id string, kind TaskKind, notebookID string, submittedAt time.Time) *AsyncTask {
	return &AsyncTask{
		ID:          id,
		Kind:        kind,
		NotebookID:  notebookID,
		State:       TaskStatePending,
		SubmittedAt: submittedAt,
	}
}

// Apply folds a poll observation into the task and reports whether the state
// changed. Terminal tasks are never touched again and states never move
// backward.
func (t *AsyncTask) Apply(obs TaskObservation, at time.Time) bool {
	if t.State.Terminal() {
		return false
	}

	t.LastPolledAt = at
	if obs.State.rank() <= t.State.rank() {
		return false
	}

	t.State = obs.State
	switch obs.State {
	case TaskStateCompleted:
		t.Result = obs.Result
	case TaskStateFailed:
		t.FailureCause = obs.Reason
	}
	return true
}

func (t AsyncTask) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task id is required")
	}
	if _, err := ParseTaskKind(string(t.Kind)); err != nil {
		return err
	}
	if _, err := ParseTaskState(string(t.State)); err != nil {
		return err
	}
	return nil
}
