// Package transport sends encoded batches to the service and owns the
// retry-once-after-refresh policy.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
	"github.com/bnema/notebooklm-cli/internal/session"
	"github.com/c2h5oh/datasize"
	"github.com/go-resty/resty/v2"
	"go.uber.org/atomic"
)

const (
	contentType        = "application/x-www-form-urlencoded;charset=UTF-8"
	defaultMaxResponse = 16 * datasize.MB
	errorBodyChars     = 200
	reqIDStart         = 100000
	reqIDStep          = 100000
)

var errFreshTokensRejected = errors.New("fresh tokens rejected")

// Refresher produces a credential newer than stale.
type Refresher interface {
	Refresh(ctx context.Context, stale *domain.SessionCredential) (*domain.SessionCredential, error)
}

type ExecutorConfig struct {
	BaseURL         string
	BatchPath       string
	Language        string
	BuildLabel      string
	MaxResponseSize datasize.ByteSize
	HTTP            *resty.Client
	Clock           ports.Clock
	Logger          *slog.Logger
	Metrics         *metrics.Collector
}

type Executor struct {
	store      *session.Store
	refresher  Refresher
	endpoint   string
	language   string
	buildLabel string
	maxBytes   int64
	http       *resty.Client
	clock      ports.Clock
	logger     *slog.Logger
	metrics    *metrics.Collector
	reqID      *atomic.Int64
}

func NewExecutor(store *session.Store, refresher Refresher, cfg ExecutorConfig) (*Executor, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if refresher == nil {
		return nil, errors.New("credential refresher is required")
	}
	if cfg.BaseURL == "" || cfg.BatchPath == "" {
		return nil, errors.New("batch endpoint is required")
	}

	e := &Executor{
		store:      store,
		refresher:  refresher,
		endpoint:   cfg.BaseURL + cfg.BatchPath,
		language:   cfg.Language,
		buildLabel: cfg.BuildLabel,
		maxBytes:   int64(cfg.MaxResponseSize.Bytes()),
		http:       cfg.HTTP,
		clock:      cfg.Clock,
		logger:     logging.OrDiscard(cfg.Logger),
		metrics:    cfg.Metrics,
		reqID:      atomic.NewInt64(reqIDStart),
	}
	if e.maxBytes <= 0 {
		e.maxBytes = int64(defaultMaxResponse.Bytes())
	}
	if e.http == nil {
		e.http = resty.NewWithClient(&http.Client{})
	}
	if e.clock == nil {
		e.clock = ports.SystemClock{}
	}
	return e, nil
}

// Execute sends the batch with the current credential. An authentication
// failure triggers one shared refresh and one retry of the same batch; a
// second failure is returned as an AuthError carrying both causes.
func (e *Executor) Execute(ctx context.Context, batch rpc.Batch) (domain.RawBatchResponse, error) {
	freq, err := batch.FReq()
	if err != nil {
		return domain.RawBatchResponse{}, err
	}

	cred, bootstrapped, err := e.credential(ctx)
	if err != nil {
		return domain.RawBatchResponse{}, err
	}

	raw, err := e.attempt(ctx, batch, freq, cred)
	var first *domain.AuthError
	if !errors.As(err, &first) {
		return raw, err
	}
	if bootstrapped {
		// The tokens were fetched for this call; a second fetch would not help.
		return domain.RawBatchResponse{}, &domain.AuthError{StatusCode: first.StatusCode, Err: first.Err, Cause: errFreshTokensRejected}
	}

	e.logger.Info("session rejected, refreshing tokens", "rpcids", batch.RPCIDs(), "status", first.StatusCode)
	fresh, refreshErr := e.refresher.Refresh(ctx, cred)
	if refreshErr != nil {
		return domain.RawBatchResponse{}, &domain.AuthError{StatusCode: first.StatusCode, Err: first.Err, Cause: refreshErr}
	}

	raw, err = e.attempt(ctx, batch, freq, fresh)
	var second *domain.AuthError
	if errors.As(err, &second) {
		return domain.RawBatchResponse{}, &domain.AuthError{StatusCode: first.StatusCode, Err: first.Err, Cause: second.Err}
	}
	return raw, err
}

// credential returns the current credential, bootstrapping the token pair
// when the store only holds cookies. bootstrapped reports whether this call
// went through the refresher.
func (e *Executor) credential(ctx context.Context) (cred *domain.SessionCredential, bootstrapped bool, err error) {
	cred = e.store.Current()
	if cred == nil {
		return nil, false, domain.ErrNoSession
	}
	if cred.HasTokens() {
		return cred, false, nil
	}
	cred, err = e.refresher.Refresh(ctx, cred)
	return cred, true, err
}

func (e *Executor) attempt(ctx context.Context, batch rpc.Batch, freq string, cred *domain.SessionCredential) (domain.RawBatchResponse, error) {
	rpcIDs := batch.RPCIDs()
	started := e.clock.Now()
	query := batch.Query(rpc.QueryOptions{
		SessionID:  cred.SessionID,
		Language:   e.language,
		BuildLabel: e.buildLabel,
		RequestID:  e.reqID.Add(reqIDStep),
	})

	e.logger.Debug("rpc request", "rpcids", rpcIDs, "source_path", batch.SourcePath(), "params", logging.Truncate(freq))

	resp, err := e.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(query).
		SetHeader("Content-Type", contentType).
		SetHeader("X-Same-Domain", "1").
		SetHeader("Cookie", cred.CookieHeader()).
		SetBody(rpc.FormBody(freq, cred.CSRFToken)).
		Post(e.endpoint)
	if err != nil {
		e.observe(rpcIDs, "network_error", started)
		return domain.RawBatchResponse{}, &domain.NetworkError{Op: "POST " + rpcIDs, Err: err}
	}

	body, err := e.readBody(resp)
	if err != nil {
		e.observe(rpcIDs, "network_error", started)
		return domain.RawBatchResponse{}, err
	}

	status := resp.StatusCode()
	e.logger.Info("rpc response", "rpcids", rpcIDs, "status", status, "bytes", len(body), "elapsed", e.clock.Now().Sub(started))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.observe(rpcIDs, "auth_error", started)
		return domain.RawBatchResponse{}, &domain.AuthError{StatusCode: status, Err: &domain.HTTPError{StatusCode: status, Body: snippet(body)}}
	case status == http.StatusTooManyRequests:
		e.observe(rpcIDs, "rate_limited", started)
		return domain.RawBatchResponse{}, &domain.RateLimitError{
			RPCError:   domain.RPCError{MethodCode: rpcIDs, Code: status, Message: "rate limit exceeded"},
			RetryAfter: retryAfter(resp.Header().Get("Retry-After")),
		}
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		e.observe(rpcIDs, "http_error", started)
		return domain.RawBatchResponse{}, &domain.HTTPError{StatusCode: status, Body: snippet(body)}
	}

	chunks, err := rpc.ParseChunks(body)
	if err != nil {
		e.observe(rpcIDs, "decode_error", started)
		return domain.RawBatchResponse{}, err
	}
	raw := domain.RawBatchResponse{Chunks: chunks}

	if code, rejected := rpc.AuthFailure(raw); rejected {
		e.observe(rpcIDs, "auth_error", started)
		return domain.RawBatchResponse{}, &domain.AuthError{Err: &domain.RPCError{MethodCode: rpcIDs, Code: code, Message: "session rejected"}}
	}

	e.observe(rpcIDs, "ok", started)
	return raw, nil
}

func (e *Executor) readBody(resp *resty.Response) ([]byte, error) {
	rawBody := resp.RawBody()
	if rawBody == nil {
		return nil, nil
	}
	defer func() { _ = rawBody.Close() }()

	body, err := io.ReadAll(io.LimitReader(rawBody, e.maxBytes+1))
	if err != nil {
		return nil, &domain.NetworkError{Op: "read response", Err: err}
	}
	if int64(len(body)) > e.maxBytes {
		return nil, &domain.DecodeError{Reason: fmt.Sprintf("response exceeds %s", datasize.ByteSize(e.maxBytes).HR())}
	}
	return body, nil
}

func (e *Executor) observe(rpcIDs, outcome string, started time.Time) {
	e.metrics.ObserveRPC(rpcIDs, outcome, e.clock.Now().Sub(started))
}

func snippet(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > errorBodyChars {
		body = body[:errorBodyChars]
	}
	return string(body)
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
