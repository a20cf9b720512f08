package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
	jsoniter "github.com/json-iterator/go"
)

// RawCallService sends hand-written positional parameters to any registered
// method. It is the escape hatch for methods without a typed template.
type RawCallService struct {
	caller  ports.RPCCaller
	encoder *rpc.Encoder
}

func NewRawCallService(caller ports.RPCCaller, encoder *rpc.Encoder) *RawCallService {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &RawCallService{caller: caller, encoder: encoder}
}

func (s *RawCallService) Call(ctx context.Context, method, paramsJSON, notebookID string) (any, error) {
	var values []any
	if strings.TrimSpace(paramsJSON) != "" {
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(paramsJSON, &values); err != nil {
			return nil, fmt.Errorf("params must be a JSON array: %w", err)
		}
	}

	call, err := s.encoder.Encode(rpc.RawParams{
		Name:       rpc.Method(strings.ToUpper(strings.TrimSpace(method))),
		Values:     values,
		NotebookID: notebookID,
	})
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, call, true)
}
