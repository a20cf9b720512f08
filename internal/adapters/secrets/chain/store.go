package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/notebooklm-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/notebooklm-cli/internal/adapters/secrets/pass"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/ports"
)

// Store reads and writes through primary and falls back on any failure
// other than cancellation. Deletes go to both backends so a stale copy
// in the fallback cannot resurrect a removed session.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if isCancellation(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if isCancellation(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete reports ErrSecretNotFound only when neither backend held the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if isCancellation(err) {
		return err
	}
	fallbackErr := s.fallback.Delete(ctx, key)

	primaryHard := err != nil && !errors.Is(err, domain.ErrSecretNotFound)
	fallbackHard := fallbackErr != nil && !errors.Is(fallbackErr, domain.ErrSecretNotFound)
	removed := err == nil || fallbackErr == nil

	switch {
	case err != nil && fallbackErr != nil && !primaryHard && !fallbackHard:
		return fmt.Errorf("%w: %q", domain.ErrSecretNotFound, key)
	case primaryHard && fallbackHard:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	case primaryHard && !removed:
		return fmt.Errorf("primary backend delete failed: %w", err)
	case fallbackHard:
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	}

	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
