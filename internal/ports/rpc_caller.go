package ports

import (
	"context"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

// RPCCaller executes one encoded call and returns its decoded payload. With
// allowEmpty false an absent payload is reported as domain.ErrEmptyResult.
type RPCCaller interface {
	Call(ctx context.Context, call domain.EncodedCall, allowEmpty bool) (any, error)
}
