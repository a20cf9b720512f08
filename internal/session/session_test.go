package session

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/ports/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bootstrapPage = `<html><script>window.WIZ_global_data = {"SNlM0e":"csrf-%d","FdrFJe":"sid-%d","other":1};</script></html>`

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func cookieOnly() *domain.SessionCredential {
	return domain.NewSessionCredential([]domain.Cookie{
		{Name: "SID", Value: "sid-cookie", Domain: ".google.com"},
		{Name: "HSID", Value: "hsid-cookie", Domain: ".google.com"},
	}, "", "", time.Time{})
}

type bootstrapServer struct {
	*httptest.Server
	hits    atomic.Int32
	cookies chan string
	release chan struct{}
}

func newBootstrapServer(t *testing.T, gated bool) *bootstrapServer {
	t.Helper()

	s := &bootstrapServer{cookies: make(chan string, 64)}
	if gated {
		s.release = make(chan struct{})
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.hits.Add(1)
		s.cookies <- r.Header.Get("Cookie")
		if s.release != nil {
			<-s.release
		}
		_, _ = fmt.Fprintf(w, bootstrapPage, n, n)
	}))
	t.Cleanup(s.Close)
	return s
}

func newRefresher(t *testing.T, store *Store, baseURL string, clock *mocks.FakeClock, collector *metrics.Collector) *Refresher {
	t.Helper()

	r, err := NewRefresher(store, RefresherConfig{
		BaseURL:   baseURL,
		Delay:     200 * time.Millisecond,
		Clock:     clock,
		Scheduler: clock,
		Metrics:   collector,
	})
	require.NoError(t, err)
	return r
}

func assertRefreshes(t *testing.T, reg *prometheus.Registry, outcome string) {
	t.Helper()

	expected := fmt.Sprintf(`
# HELP nblm_session_refreshes_total Bootstrap token refreshes by outcome.
# TYPE nblm_session_refreshes_total counter
nblm_session_refreshes_total{outcome=%q} 1
`, outcome)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nblm_session_refreshes_total"))
}

func TestStoreReplaceIsCompareAndSwap(t *testing.T) {
	t.Parallel()

	first := cookieOnly()
	second := first.WithTokens("a", "b", epoch)
	third := first.WithTokens("c", "d", epoch)

	store := NewStore(first)
	assert.Same(t, first, store.Current())

	assert.True(t, store.Replace(first, second))
	assert.False(t, store.Replace(first, third))
	assert.Same(t, second, store.Current())
}

func TestRefreshFetchesTokensAndPublishes(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, false)
	clock := mocks.NewFakeClock(epoch)
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	initial := cookieOnly()
	store := NewStore(initial)

	cred, err := newRefresher(t, store, server.URL, clock, collector).Refresh(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, "csrf-1", cred.CSRFToken)
	assert.Equal(t, "sid-1", cred.SessionID)
	assert.Equal(t, epoch, cred.FetchedAt)
	assert.Same(t, cred, store.Current())
	assert.Equal(t, "SID=sid-cookie; HSID=hsid-cookie", <-server.cookies)
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, clock.Sleeps())
	assertRefreshes(t, reg, "ok")
}

func TestConcurrentRefreshesShareOneFetch(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, true)
	clock := mocks.NewFakeClock(epoch)
	initial := cookieOnly()
	store := NewStore(initial)
	refresher := newRefresher(t, store, server.URL, clock, nil)

	const callers = 8
	results := make([]*domain.SessionCredential, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = refresher.Refresh(context.Background(), initial)
		}(i)
	}

	<-server.cookies
	time.Sleep(20 * time.Millisecond)
	close(server.release)
	wg.Wait()

	assert.Equal(t, int32(1), server.hits.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, store.Current(), results[i])
	}
}

func TestRefreshSkipsFetchWhenAlreadyReplaced(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, false)
	initial := cookieOnly()
	fresh := initial.WithTokens("already", "fresh", epoch)
	store := NewStore(fresh)

	cred, err := newRefresher(t, store, server.URL, mocks.NewFakeClock(epoch), nil).Refresh(context.Background(), initial)
	require.NoError(t, err)
	assert.Same(t, fresh, cred)
	assert.Zero(t, server.hits.Load())
}

func TestRefreshLosingTheSwapReturnsWinner(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, false)
	clock := mocks.NewFakeClock(epoch)
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	initial := cookieOnly()
	store := NewStore(initial)
	winner := initial.WithTokens("winner", "w", epoch)
	clock.OnSleep = func(time.Duration) { store.Replace(initial, winner) }

	cred, err := newRefresher(t, store, server.URL, clock, collector).Refresh(context.Background(), initial)
	require.NoError(t, err)
	assert.Same(t, winner, cred)
	assert.Same(t, winner, store.Current())
	assertRefreshes(t, reg, "superseded")
}

func TestRefreshFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason string
	}{
		{
			name: "missing csrf",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>{"FdrFJe":"sid"}</html>`))
			},
			wantReason: "csrf token not found in bootstrap page",
		},
		{
			name: "login page",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<a href="https://accounts.google.com/ServiceLogin?continue=x">Sign in</a>`))
			},
			wantReason: "redirected to login, cookies have expired",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantReason: "bootstrap page returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)
			initial := cookieOnly()
			store := NewStore(initial)

			_, err := newRefresher(t, store, server.URL, mocks.NewFakeClock(epoch), nil).Refresh(context.Background(), initial)

			var refreshErr *domain.RefreshError
			require.ErrorAs(t, err, &refreshErr)
			assert.Equal(t, tt.wantReason, refreshErr.Reason)
			assert.Same(t, initial, store.Current())
		})
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	t.Parallel()

	r, err := NewRefresher(NewStore(nil), RefresherConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = r.Refresh(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestAbandonedWaiterLeavesRefreshRunning(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, true)
	initial := cookieOnly()
	store := NewStore(initial)
	refresher := newRefresher(t, store, server.URL, mocks.NewFakeClock(epoch), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := refresher.Refresh(ctx, initial)
		done <- err
	}()

	<-server.cookies
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(server.release)
	require.Eventually(t, func() bool {
		return store.Current().HasTokens()
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshLogsNoSecrets(t *testing.T) {
	t.Parallel()

	server := newBootstrapServer(t, false)
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	require.NoError(t, err)

	initial := cookieOnly()
	r, err := NewRefresher(NewStore(initial), RefresherConfig{
		BaseURL:   server.URL,
		Clock:     mocks.NewFakeClock(epoch),
		Scheduler: mocks.NewFakeClock(epoch),
		Logger:    logger,
	})
	require.NoError(t, err)

	_, err = r.Refresh(context.Background(), initial)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "session tokens refreshed")
	assert.NotContains(t, buf.String(), "csrf-1")
	assert.NotContains(t, buf.String(), "sid-cookie")
}

func TestExtractTokens(t *testing.T) {
	t.Parallel()

	csrf, sid, err := ExtractTokens(`{"SNlM0e": "AJpMio:123" ,"FdrFJe" :"-42"}`)
	require.NoError(t, err)
	assert.Equal(t, "AJpMio:123", csrf)
	assert.Equal(t, "-42", sid)

	csrf, sid, err = ExtractTokens(`{"SNlM0e":"only"}`)
	require.NoError(t, err)
	assert.Equal(t, "only", csrf)
	assert.Empty(t, sid)
}

func TestIsLoginURL(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://accounts.google.com/ServiceLogin":    true,
		"https://ACCOUNTS.google.com/x":               true,
		"https://eu.accounts.google.com/x":            true,
		"https://notebooklm.google.com/":              false,
		"https://accounts.google.com.evil.example/x":  false,
		"https://notaccounts.google.com/ServiceLogin": false,
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, isLoginURL(u), raw)
	}
	assert.False(t, isLoginURL(nil))
}

func TestParseBundle(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"cookies": [
			{"name": "SID", "value": "s", "domain": ".google.com", "path": "/"},
			{"name": "OSID", "value": "o", "domain": "notebooklm.google.com", "path": "/"},
			{"name": "tracker", "value": "t", "domain": ".example.com", "path": "/"}
		],
		"origins": [{"origin": "https://notebooklm.google.com", "localStorage": []}]
	}`)

	bundle, err := ParseBundle(data)
	require.NoError(t, err)
	require.Len(t, bundle.Cookies, 2)
	assert.Equal(t, "SID", bundle.Cookies[0].Name)
	assert.Equal(t, "notebooklm.google.com", bundle.Cookies[1].Domain)
	assert.Equal(t, []string{"https://notebooklm.google.com"}, bundle.Origins)
}

func TestParseBundleRejectsIncompleteState(t *testing.T) {
	t.Parallel()

	_, err := ParseBundle([]byte(`{"cookies":[{"name":"HSID","value":"h","domain":".google.com"}]}`))
	require.ErrorContains(t, err, "missing the SID cookie")

	_, err = ParseBundle([]byte(`not json`))
	require.ErrorContains(t, err, "decode storage state")

	_, err = ParseBundle([]byte(`{"cookies":[{"name":"SID","value":"s","domain":".example.com"}]}`))
	require.ErrorContains(t, err, "no cookies")
}
