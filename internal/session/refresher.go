package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey          = "refresh"
	defaultRefreshDelay = 200 * time.Millisecond
	defaultTimeout      = 30 * time.Second
	loginHost           = "accounts.google.com"
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	csrfPattern      = regexp.MustCompile(`"SNlM0e"\s*:\s*"([^"]+)"`)
	sessionIDPattern = regexp.MustCompile(`"FdrFJe"\s*:\s*"([^"]+)"`)
	urlPattern       = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

type RefresherConfig struct {
	// BaseURL is the page whose HTML embeds the token pair.
	BaseURL string
	// Delay is waited between fetching the tokens and publishing them.
	Delay     time.Duration
	Timeout   time.Duration
	HTTP      *resty.Client
	Clock     ports.Clock
	Scheduler ports.Scheduler
	Logger    *slog.Logger
	Metrics   *metrics.Collector
}

// Refresher re-derives the token pair from the long-lived cookies. However
// many callers ask at once, one bootstrap fetch is in flight.
type Refresher struct {
	store     *Store
	baseURL   string
	delay     time.Duration
	timeout   time.Duration
	http      *resty.Client
	clock     ports.Clock
	scheduler ports.Scheduler
	logger    *slog.Logger
	metrics   *metrics.Collector
	group     singleflight.Group
}

func NewRefresher(store *Store, cfg RefresherConfig) (*Refresher, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("bootstrap url is required")
	}

	r := &Refresher{
		store:     store,
		baseURL:   cfg.BaseURL,
		delay:     cfg.Delay,
		timeout:   cfg.Timeout,
		http:      cfg.HTTP,
		clock:     cfg.Clock,
		scheduler: cfg.Scheduler,
		logger:    logging.OrDiscard(cfg.Logger),
		metrics:   cfg.Metrics,
	}
	if r.delay < 0 {
		r.delay = defaultRefreshDelay
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.http == nil {
		r.http = resty.NewWithClient(&http.Client{})
	}
	if r.clock == nil {
		r.clock = ports.SystemClock{}
	}
	if r.scheduler == nil {
		r.scheduler = ports.SystemScheduler{}
	}
	return r, nil
}

// Refresh returns a credential newer than stale. When another caller already
// replaced stale, that credential is returned without a fetch. A caller that
// gives up via ctx leaves the shared refresh running for the others.
func (r *Refresher) Refresh(ctx context.Context, stale *domain.SessionCredential) (*domain.SessionCredential, error) {
	if current := r.store.Current(); current != nil && current != stale && current.HasTokens() {
		return current, nil
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.refresh(context.WithoutCancel(ctx), stale)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.SessionCredential), nil
	}
}

func (r *Refresher) refresh(ctx context.Context, stale *domain.SessionCredential) (*domain.SessionCredential, error) {
	base := r.store.Current()
	if base == nil {
		return nil, domain.ErrNoSession
	}
	if base != stale && base.HasTokens() {
		return base, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := r.clock.Now()
	r.logger.Info("refreshing session tokens")

	csrf, sessionID, err := r.fetchTokens(ctx, base)
	if err != nil {
		r.metrics.ObserveRefresh("failed")
		r.logger.Info("session refresh failed", "error", err)
		return nil, err
	}
	next := base.WithTokens(csrf, sessionID, r.clock.Now())

	if err := r.scheduler.Sleep(ctx, r.delay); err != nil {
		r.metrics.ObserveRefresh("failed")
		return nil, &domain.RefreshError{Reason: "interrupted before publishing tokens", Err: err}
	}

	if !r.store.Replace(base, next) {
		r.metrics.ObserveRefresh("superseded")
		r.logger.Debug("session refresh superseded by a concurrent update")
		return r.store.Current(), nil
	}

	r.metrics.ObserveRefresh("ok")
	r.logger.Info("session tokens refreshed", "elapsed", r.clock.Now().Sub(started))
	return next, nil
}

func (r *Refresher) fetchTokens(ctx context.Context, cred *domain.SessionCredential) (string, string, error) {
	resp, err := r.http.R().
		SetContext(ctx).
		SetHeader("Cookie", cred.CookieHeader()).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html").
		Get(r.baseURL)
	if err != nil {
		return "", "", &domain.RefreshError{Reason: "bootstrap request failed", Err: &domain.NetworkError{Op: "GET bootstrap page", Err: err}}
	}

	if resp.RawResponse != nil && resp.RawResponse.Request != nil && isLoginURL(resp.RawResponse.Request.URL) {
		return "", "", &domain.RefreshError{Reason: "redirected to login, cookies have expired"}
	}
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return "", "", &domain.RefreshError{
			Reason: fmt.Sprintf("bootstrap page returned status %d", code),
			Err:    &domain.HTTPError{StatusCode: code},
		}
	}

	return ExtractTokens(resp.String())
}

// ExtractTokens reads the token pair embedded in the bootstrap page. The
// CSRF token is required; the session id may be absent.
func ExtractTokens(html string) (string, string, error) {
	match := csrfPattern.FindStringSubmatch(html)
	if match == nil {
		if mentionsLogin(html) {
			return "", "", &domain.RefreshError{Reason: "redirected to login, cookies have expired"}
		}
		return "", "", &domain.RefreshError{Reason: "csrf token not found in bootstrap page"}
	}

	sessionID := ""
	if sid := sessionIDPattern.FindStringSubmatch(html); sid != nil {
		sessionID = sid[1]
	}
	return match[1], sessionID, nil
}

func isLoginURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == loginHost || strings.HasSuffix(host, "."+loginHost)
}

func mentionsLogin(text string) bool {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		if u, err := url.Parse(raw); err == nil && isLoginURL(u) {
			return true
		}
	}
	return false
}
