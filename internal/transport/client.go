package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/rpc"
)

// Client pairs the executor with the decoder. It satisfies ports.RPCCaller.
type Client struct {
	executor *Executor
	decoder  *rpc.Decoder
}

func NewClient(executor *Executor, decoder *rpc.Decoder) *Client {
	return &Client{executor: executor, decoder: decoder}
}

// Call sends one call and returns its payload. Without allowEmpty a missing
// reply is ErrEmptyResult.
func (c *Client) Call(ctx context.Context, call domain.EncodedCall, allowEmpty bool) (any, error) {
	results, err := c.CallBatch(ctx, call)
	if err != nil {
		return nil, err
	}
	return Payload(results[0], allowEmpty)
}

// CallBatch sends the calls in one request and returns one result per call,
// in order. Per-call errors are carried in each result.
func (c *Client) CallBatch(ctx context.Context, calls ...domain.EncodedCall) ([]domain.RPCResult, error) {
	batch, err := rpc.NewBatch(calls...)
	if err != nil {
		return nil, err
	}
	raw, err := c.executor.Execute(ctx, batch)
	if err != nil {
		return nil, err
	}
	return c.decoder.DecodeBatch(raw, batch), nil
}

// Payload applies the allow-empty policy to a decoded result.
func Payload(result domain.RPCResult, allowEmpty bool) (any, error) {
	if result.Err != nil {
		return nil, result.Err
	}
	if !result.Empty {
		return result.Payload, nil
	}
	if allowEmpty {
		return nil, nil
	}
	if len(result.SeenCodes) > 0 {
		return nil, fmt.Errorf("%w: %s absent, response carried %s (method id may have changed)",
			domain.ErrEmptyResult, result.MethodCode, strings.Join(result.SeenCodes, ","))
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrEmptyResult, result.MethodCode)
}
