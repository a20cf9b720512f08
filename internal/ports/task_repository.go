package ports

import (
	"context"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

type TaskRepository interface {
	Get(ctx context.Context, id string) (domain.AsyncTask, error)
	List(ctx context.Context) ([]domain.AsyncTask, error)
	Save(ctx context.Context, task domain.AsyncTask) error
}
