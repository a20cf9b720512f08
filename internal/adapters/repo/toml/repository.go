package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/ports"
	jsoniter "github.com/json-iterator/go"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	tasksFileMode   = 0o600
	tasksDirMode    = 0o700
	tempFilePattern = ".tasks-*.toml.tmp"
	// maxTasks bounds the ledger; the oldest finished tasks are dropped first.
	maxTasks = 200
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Repository is the task ledger. Every write replaces the file atomically.
type Repository struct {
	tasksPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.TaskRepository = (*Repository)(nil)

func NewRepository(tasksPath string) (*Repository, error) {
	if tasksPath == "" {
		return nil, errors.New("tasks path is empty")
	}
	tasksPath, err := normalizeTasksPath(tasksPath)
	if err != nil {
		return nil, err
	}

	return &Repository{tasksPath: tasksPath, mu: lockForPath(tasksPath)}, nil
}

func (r *Repository) Save(ctx context.Context, task domain.AsyncTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}

	encoded, err := toSchema(task)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	updated := false
	for i := range file.Tasks {
		if file.Tasks[i].ID == encoded.ID {
			file.Tasks[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Tasks = append(file.Tasks, encoded)
	}
	file.Tasks = prune(file.Tasks, maxTasks)

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.AsyncTask, error) {
	if err := ctx.Err(); err != nil {
		return domain.AsyncTask{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.AsyncTask{}, err
	}

	for _, entry := range file.Tasks {
		if entry.ID == id {
			return fromSchema(entry)
		}
	}

	return domain.AsyncTask{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
}

func (r *Repository) List(ctx context.Context) ([]domain.AsyncTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.AsyncTask, 0, len(file.Tasks))
	for _, entry := range file.Tasks {
		task, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.tasksPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read tasks file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode tasks file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.tasksPath), tasksDirMode); err != nil {
		return fmt.Errorf("create tasks directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode tasks file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.tasksPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp tasks file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp tasks file: %w", err)
	}
	if err := tempFile.Chmod(tasksFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp tasks file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp tasks file: %w", err)
	}
	if err := os.Rename(tempName, r.tasksPath); err != nil {
		return fmt.Errorf("replace tasks file: %w", err)
	}

	cleanup = false
	return nil
}

func normalizeTasksPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve tasks path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// lockForPath shares one lock between repositories opened on the same file.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// prune drops the oldest terminal tasks once the ledger exceeds limit.
// Unfinished tasks are always kept so they stay resumable.
func prune(tasks []taskSchema, limit int) []taskSchema {
	excess := len(tasks) - limit
	if excess <= 0 {
		return tasks
	}

	kept := make([]taskSchema, 0, limit)
	for _, task := range tasks {
		if excess > 0 && isTerminal(task.State) {
			excess--
			continue
		}
		kept = append(kept, task)
	}
	return kept
}

func isTerminal(state string) bool {
	return domain.TaskState(state).Terminal()
}

func toSchema(task domain.AsyncTask) (taskSchema, error) {
	entry := taskSchema{
		ID:           task.ID,
		Kind:         string(task.Kind),
		NotebookID:   task.NotebookID,
		State:        string(task.State),
		SubmittedAt:  formatTime(task.SubmittedAt),
		LastPolledAt: formatTime(task.LastPolledAt),
		FailureCause: task.FailureCause,
	}
	if task.Result != nil {
		encoded, err := json.MarshalToString(task.Result)
		if err != nil {
			return taskSchema{}, fmt.Errorf("encode result of task %s: %w", task.ID, err)
		}
		entry.Result = encoded
	}
	return entry, nil
}

func fromSchema(entry taskSchema) (domain.AsyncTask, error) {
	kind, err := domain.ParseTaskKind(entry.Kind)
	if err != nil {
		return domain.AsyncTask{}, fmt.Errorf("task %s: %w", entry.ID, err)
	}
	state, err := domain.ParseTaskState(entry.State)
	if err != nil {
		return domain.AsyncTask{}, fmt.Errorf("task %s: %w", entry.ID, err)
	}

	task := domain.AsyncTask{
		ID:           entry.ID,
		Kind:         kind,
		NotebookID:   entry.NotebookID,
		State:        state,
		SubmittedAt:  parseTime(entry.SubmittedAt),
		LastPolledAt: parseTime(entry.LastPolledAt),
		FailureCause: entry.FailureCause,
	}
	if entry.Result != "" {
		if err := json.UnmarshalFromString(entry.Result, &task.Result); err != nil {
			return domain.AsyncTask{}, fmt.Errorf("decode result of task %s: %w", entry.ID, err)
		}
	}
	return task, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
