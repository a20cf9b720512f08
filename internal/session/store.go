// Package session holds the live session credential and keeps its token
// pair fresh.
package session

import (
	"github.com/bnema/notebooklm-cli/internal/domain"
	"go.uber.org/atomic"
)

// Store publishes the current credential. Readers never block and never
// see a partially built value; writers replace it with compare-and-swap.
type Store struct {
	current atomic.Pointer[domain.SessionCredential]
}

func NewStore(initial *domain.SessionCredential) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the credential in effect, or nil before the first
// bootstrap.
func (s *Store) Current() *domain.SessionCredential {
	return s.current.Load()
}

// Replace installs next only if old is still current.
func (s *Store) Replace(old, next *domain.SessionCredential) bool {
	return s.current.CompareAndSwap(old, next)
}
