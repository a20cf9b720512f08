package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/session"
)

// TokenRefresher produces a credential newer than stale.
type TokenRefresher interface {
	Refresh(ctx context.Context, stale *domain.SessionCredential) (*domain.SessionCredential, error)
}

// AuthService keeps the browser credential bundle in the secret store and
// turns it into a session credential.
type AuthService struct {
	store     ports.SecretStore
	bundleKey string
	clock     ports.Clock
}

func NewAuthService(store ports.SecretStore, bundleKey string, clock ports.Clock) *AuthService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AuthService{store: store, bundleKey: bundleKey, clock: clock}
}

// Import validates a storage-state export and stores it, replacing any
// previous bundle.
func (s *AuthService) Import(ctx context.Context, raw []byte) (domain.CredentialBundle, error) {
	bundle, err := session.ParseBundle(raw)
	if err != nil {
		return domain.CredentialBundle{}, err
	}

	if err := s.store.Put(ctx, s.bundleKey, string(raw)); err != nil {
		return domain.CredentialBundle{}, fmt.Errorf("store credential bundle: %w", err)
	}

	return bundle, nil
}

func (s *AuthService) ImportFile(ctx context.Context, path string) (domain.CredentialBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.CredentialBundle{}, fmt.Errorf("read storage state: %w", err)
	}
	return s.Import(ctx, raw)
}

// Load returns a cookie-only credential from the stored bundle. The token
// pair is fetched lazily on first use.
func (s *AuthService) Load(ctx context.Context) (*domain.SessionCredential, error) {
	raw, err := s.store.Get(ctx, s.bundleKey)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: run `nblm auth import` first", domain.ErrNoSession)
		}
		return nil, fmt.Errorf("load credential bundle: %w", err)
	}

	bundle, err := session.ParseBundle([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("stored credential bundle: %w", err)
	}
	return domain.NewSessionCredential(bundle.Cookies, "", "", time.Time{}), nil
}

func (s *AuthService) Remove(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.bundleKey); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("delete credential bundle: %w", err)
	}
	return nil
}

// Check forces a token fetch with the current cookies and reports what it
// found.
func (s *AuthService) Check(ctx context.Context, sessions *session.Store, refresher TokenRefresher) (SessionStatus, error) {
	current := sessions.Current()
	if current == nil {
		return SessionStatus{}, domain.ErrNoSession
	}

	fresh, err := refresher.Refresh(ctx, current)
	if err != nil {
		return SessionStatus{}, err
	}

	return SessionStatus{
		CookieCount:   len(fresh.Cookies()),
		HasSessionID:  fresh.SessionID != "",
		TokensFetched: fresh.FetchedAt,
		CheckedAt:     s.clock.Now(),
	}, nil
}
