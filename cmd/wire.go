package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	tomlrepo "github.com/bnema/notebooklm-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/notebooklm-cli/internal/adapters/secrets/chain"
	"github.com/bnema/notebooklm-cli/internal/application"
	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/poller"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
	"github.com/bnema/notebooklm-cli/internal/session"
	"github.com/bnema/notebooklm-cli/internal/transport"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

type app struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	methods    *rpc.Registry
	auth       *application.AuthService
	sessions   *lazySession
	notebooks  *application.NotebookService
	generation *application.GenerationService
	research   *application.ResearchService
	tasks      *application.TaskService
	raw        *application.RawCallService
	now        func() time.Time
}

func wireApp(logOutput io.Writer) (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(viper.New(), homeDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Output: logOutput})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsRoot)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}
	auth := application.NewAuthService(secretStore, cfg.BundleKey, ports.SystemClock{})

	methods, err := rpc.NewRegistry(cfg.MethodOverrides)
	if err != nil {
		return nil, fmt.Errorf("wire method registry: %w", err)
	}
	encoder := rpc.NewEncoder(methods)

	taskRepo, err := tomlrepo.NewRepository(cfg.TasksPath)
	if err != nil {
		return nil, fmt.Errorf("wire task ledger: %w", err)
	}

	sessions := &lazySession{
		load:    auth.Load,
		cfg:     cfg,
		decoder: rpc.NewDecoder(cfg.Poll.RateLimit),
		logger:  logger,
		metrics: collector,
	}

	researchProbe := application.NewResearchProbe(encoder, cfg.Poll.Status[domain.TaskKindResearch])
	taskPoller, err := poller.New(sessions, map[domain.TaskKind]poller.Probe{
		domain.TaskKindGeneration: application.NewGenerationProbe(encoder, cfg.Poll.Status[domain.TaskKindGeneration]),
		domain.TaskKindResearch:   researchProbe,
	}, poller.Config{
		Interval:   cfg.Poll.Interval,
		MaxBackoff: cfg.Poll.MaxBackoff,
		Timeout:    cfg.Poll.Timeout,
		Tasks:      taskRepo,
		Logger:     logger,
		Metrics:    collector,
	})
	if err != nil {
		return nil, fmt.Errorf("wire task poller: %w", err)
	}

	notebooks := application.NewNotebookService(sessions, encoder)

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		methods:    methods,
		auth:       auth,
		sessions:   sessions,
		notebooks:  notebooks,
		generation: application.NewGenerationService(sessions, encoder, notebooks, taskPoller),
		research:   application.NewResearchService(sessions, encoder, researchProbe, taskPoller),
		tasks:      application.NewTaskService(taskRepo, taskPoller, logger),
		raw:        application.NewRawCallService(sessions, encoder),
		now:        time.Now,
	}, nil
}

// sessionRuntime is everything that needs a loaded credential.
type sessionRuntime struct {
	store     *session.Store
	refresher *session.Refresher
	client    *transport.Client
}

// lazySession defers reading the credential bundle until the first RPC, so
// commands that never reach the service work without one.
type lazySession struct {
	load    func(context.Context) (*domain.SessionCredential, error)
	cfg     config.Config
	decoder *rpc.Decoder
	logger  *slog.Logger
	metrics *metrics.Collector

	mu sync.Mutex
	rt *sessionRuntime
}

var _ ports.RPCCaller = (*lazySession)(nil)

func (l *lazySession) Call(ctx context.Context, call domain.EncodedCall, allowEmpty bool) (any, error) {
	rt, err := l.runtime(ctx)
	if err != nil {
		return nil, err
	}
	return rt.client.Call(ctx, call, allowEmpty)
}

func (l *lazySession) runtime(ctx context.Context) (*sessionRuntime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rt != nil {
		return l.rt, nil
	}

	cred, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cred)
	refresher, err := session.NewRefresher(store, session.RefresherConfig{
		BaseURL: l.cfg.Service.BaseURL,
		Delay:   l.cfg.Refresh.Delay,
		Timeout: l.cfg.Refresh.Timeout,
		HTTP:    resty.New().SetTimeout(l.cfg.Refresh.Timeout),
		Logger:  l.logger,
		Metrics: l.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire credential refresher: %w", err)
	}

	executor, err := transport.NewExecutor(store, refresher, transport.ExecutorConfig{
		BaseURL:         l.cfg.Service.BaseURL,
		BatchPath:       l.cfg.Service.BatchPath,
		Language:        l.cfg.Service.Language,
		BuildLabel:      l.cfg.Service.BuildLabel,
		MaxResponseSize: l.cfg.HTTP.MaxResponseSize,
		HTTP:            resty.New().SetTimeout(l.cfg.HTTP.Timeout),
		Logger:          l.logger,
		Metrics:         l.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire batch executor: %w", err)
	}

	l.rt = &sessionRuntime{
		store:     store,
		refresher: refresher,
		client:    transport.NewClient(executor, l.decoder),
	}
	return l.rt, nil
}

// serveMetrics exposes the registry on addr for the lifetime of the command.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) (func(context.Context) error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", listener.Addr().String())

	return server.Shutdown, nil
}

// stderrWriter resolves the command's error stream at write time so tests
// can redirect it after the tree is built.
type stderrWriter struct {
	root interface{ ErrOrStderr() io.Writer }
}

func (w stderrWriter) Write(p []byte) (int, error) {
	return w.root.ErrOrStderr().Write(p)
}
