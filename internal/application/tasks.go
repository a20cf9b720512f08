package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/poller"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"golang.org/x/sync/errgroup"
)

const refreshConcurrency = 4

// TaskService reads the task ledger and resumes waits on recorded tasks.
type TaskService struct {
	repo   ports.TaskRepository
	poller *poller.Poller
	logger *slog.Logger
}

func NewTaskService(repo ports.TaskRepository, p *poller.Poller, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, poller: p, logger: logging.OrDiscard(logger)}
}

// List returns recorded tasks, newest first. With refresh set, every
// unfinished task is polled once, a few at a time. A rate-limited poll
// leaves that task as it was.
func (s *TaskService) List(ctx context.Context, refresh bool) ([]domain.AsyncTask, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if refresh {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(refreshConcurrency)
		for i := range tasks {
			if tasks[i].State.Terminal() {
				continue
			}
			task := &tasks[i]
			g.Go(func() error {
				err := s.poller.Check(gctx, task)
				var limited *domain.RateLimitError
				if errors.As(err, &limited) {
					s.logger.Info("task refresh rate limited", "task_id", task.ID)
					return nil
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].SubmittedAt.After(tasks[j].SubmittedAt)
	})
	return tasks, nil
}

// Wait resumes polling a recorded task with a fresh deadline.
func (s *TaskService) Wait(ctx context.Context, id string, interval, timeout time.Duration) (domain.AsyncTask, any, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.AsyncTask{}, nil, fmt.Errorf("get task %s: %w", id, err)
	}
	result, err := s.poller.AwaitCompletion(ctx, &task, interval, timeout)
	return task, result, err
}

// Await waits on a task the caller already holds, typically one just
// submitted.
func (s *TaskService) Await(ctx context.Context, task *domain.AsyncTask, interval, timeout time.Duration) (any, error) {
	return s.poller.AwaitCompletion(ctx, task, interval, timeout)
}
