package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/notebooklm-cli/internal/domain"
	portmocks "github.com/bnema/notebooklm-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const bundleKey = "notebooklm/storage_state"

func newTestStore(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	return store, primary, fallback
}

func TestNewStoreRequiresBothBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, portmocks.NewMockSecretStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStore(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, bundleKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), bundleKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, bundleKey).Return("", errors.New("pass command unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, bundleKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), bundleKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetMissingEverywhereIsNotFound(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, bundleKey).Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, bundleKey).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), bundleKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "primary backend get failed: pass failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContext(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, bundleKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), bundleKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStorePut(t *testing.T) {
	t.Parallel()

	t.Run("primary only", func(t *testing.T) {
		t.Parallel()

		store, primary, _ := newTestStore(t)
		primary.EXPECT().Put(mock.Anything, bundleKey, "bundle").Return(nil).Once()
		require.NoError(t, store.Put(context.Background(), bundleKey, "bundle"))
	})

	t.Run("falls back", func(t *testing.T) {
		t.Parallel()

		store, primary, fallback := newTestStore(t)
		primary.EXPECT().Put(mock.Anything, bundleKey, "bundle").Return(errors.New("pass failed")).Once()
		fallback.EXPECT().Put(mock.Anything, bundleKey, "bundle").Return(nil).Once()
		require.NoError(t, store.Put(context.Background(), bundleKey, "bundle"))
	})

	t.Run("both fail", func(t *testing.T) {
		t.Parallel()

		store, primary, fallback := newTestStore(t)
		primary.EXPECT().Put(mock.Anything, bundleKey, "bundle").Return(errors.New("pass failed")).Once()
		fallback.EXPECT().Put(mock.Anything, bundleKey, "bundle").Return(errors.New("disk full")).Once()

		err := store.Put(context.Background(), bundleKey, "bundle")
		assert.ErrorContains(t, err, "pass failed")
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	passFailed := errors.New("pass failed")
	diskFailed := errors.New("permission denied")

	tests := []struct {
		name        string
		primaryErr  error
		fallbackErr error
		wantIs      error
		wantErr     string
	}{
		{name: "both removed"},
		{name: "only primary held it", fallbackErr: domain.ErrSecretNotFound},
		{name: "only fallback held it", primaryErr: domain.ErrSecretNotFound},
		{name: "primary broken fallback removed", primaryErr: passFailed},
		{name: "neither held it", primaryErr: domain.ErrSecretNotFound, fallbackErr: domain.ErrSecretNotFound, wantIs: domain.ErrSecretNotFound},
		{name: "primary broken fallback empty", primaryErr: passFailed, fallbackErr: domain.ErrSecretNotFound, wantIs: passFailed},
		{name: "fallback broken", fallbackErr: diskFailed, wantIs: diskFailed},
		{name: "both broken", primaryErr: passFailed, fallbackErr: diskFailed, wantErr: "fallback backend delete failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, primary, fallback := newTestStore(t)
			primary.EXPECT().Delete(mock.Anything, bundleKey).Return(tt.primaryErr).Once()
			fallback.EXPECT().Delete(mock.Anything, bundleKey).Return(tt.fallbackErr).Once()

			err := store.Delete(context.Background(), bundleKey)
			switch {
			case tt.wantIs != nil:
				require.ErrorIs(t, err, tt.wantIs)
			case tt.wantErr != "":
				require.ErrorContains(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestStoreDeleteStopsOnCancellation(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Delete(mock.Anything, bundleKey).Return(context.DeadlineExceeded).Once()

	require.ErrorIs(t, store.Delete(context.Background(), bundleKey), context.DeadlineExceeded)
}
