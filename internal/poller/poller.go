// Package poller drives long-running service tasks from submission to a
// terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/logging"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/cenkalti/backoff/v4"
)

const (
	defaultInterval   = 2 * time.Second
	defaultMaxBackoff = 30 * time.Second
	defaultTimeout    = 5 * time.Minute
)

// Probe knows how to ask the service about one kind of task and how to read
// the answer.
type Probe interface {
	StatusCall(task domain.AsyncTask) (domain.EncodedCall, error)
	Observe(payload any, task domain.AsyncTask) (domain.TaskObservation, error)
}

// StartCall is the call that creates a task and the rule for finding the
// task id in its reply.
type StartCall struct {
	Kind          domain.TaskKind
	NotebookID    string
	Call          domain.EncodedCall
	ExtractTaskID func(payload any) (string, error)
}

type Config struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Timeout    time.Duration
	Clock      ports.Clock
	Scheduler  ports.Scheduler
	// Tasks, when set, records every submitted task and each transition.
	Tasks   ports.TaskRepository
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

type Poller struct {
	caller     ports.RPCCaller
	probes     map[domain.TaskKind]Probe
	interval   time.Duration
	maxBackoff time.Duration
	timeout    time.Duration
	clock      ports.Clock
	scheduler  ports.Scheduler
	tasks      ports.TaskRepository
	logger     *slog.Logger
	metrics    *metrics.Collector
}

func New(caller ports.RPCCaller, probes map[domain.TaskKind]Probe, cfg Config) (*Poller, error) {
	if caller == nil {
		return nil, errors.New("rpc caller is required")
	}
	if len(probes) == 0 {
		return nil, errors.New("at least one task probe is required")
	}

	p := &Poller{
		caller:     caller,
		probes:     probes,
		interval:   cfg.Interval,
		maxBackoff: cfg.MaxBackoff,
		timeout:    cfg.Timeout,
		clock:      cfg.Clock,
		scheduler:  cfg.Scheduler,
		tasks:      cfg.Tasks,
		logger:     logging.OrDiscard(cfg.Logger),
		metrics:    cfg.Metrics,
	}
	if p.interval <= 0 {
		p.interval = defaultInterval
	}
	if p.maxBackoff < p.interval {
		p.maxBackoff = max(defaultMaxBackoff, p.interval)
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.clock == nil {
		p.clock = ports.SystemClock{}
	}
	if p.scheduler == nil {
		p.scheduler = ports.SystemScheduler{}
	}
	return p, nil
}

// Submit issues the start call and returns the new task in the pending
// state.
func (p *Poller) Submit(ctx context.Context, start StartCall) (domain.AsyncTask, error) {
	if start.ExtractTaskID == nil {
		return domain.AsyncTask{}, errors.New("start call has no task id extractor")
	}
	if _, ok := p.probes[start.Kind]; !ok {
		return domain.AsyncTask{}, fmt.Errorf("no probe registered for %s tasks", start.Kind)
	}

	payload, err := p.caller.Call(ctx, start.Call, false)
	if err != nil {
		return domain.AsyncTask{}, fmt.Errorf("start %s task: %w", start.Kind, err)
	}
	id, err := start.ExtractTaskID(payload)
	if err != nil {
		return domain.AsyncTask{}, fmt.Errorf("start %s task: %w", start.Kind, err)
	}

	task := *domain.NewAsyncTask(id, start.Kind, start.NotebookID, p.clock.Now())
	if err := task.Validate(); err != nil {
		return domain.AsyncTask{}, err
	}
	if err := p.save(ctx, task); err != nil {
		return domain.AsyncTask{}, err
	}

	p.logger.Info("task submitted", "task_kind", task.Kind, "task_id", task.ID)
	p.metrics.ObserveTransition(string(task.Kind), string(task.State))
	return task, nil
}

// AwaitCompletion polls until task reaches a terminal state and returns its
// result. task is updated in place, so after a TimeoutError it holds the
// last observed state and can be awaited again with a fresh deadline. A
// task that is already terminal is answered without polling.
//
// Zero interval or timeout selects the configured default. Rate-limited
// polls back off exponentially up to the configured bound instead of
// failing.
func (p *Poller) AwaitCompletion(ctx context.Context, task *domain.AsyncTask, interval, timeout time.Duration) (any, error) {
	if task == nil {
		return nil, errors.New("task is nil")
	}
	if task.State.Terminal() {
		return outcome(task)
	}

	probe, ok := p.probes[task.Kind]
	if !ok {
		return nil, fmt.Errorf("no probe registered for %s tasks", task.Kind)
	}
	if interval <= 0 {
		interval = p.interval
	}
	if timeout <= 0 {
		timeout = p.timeout
	}

	deadline := p.clock.Now().Add(timeout)
	schedule := p.newSchedule(interval)
	delay := interval

	for {
		remaining := deadline.Sub(p.clock.Now())
		if remaining <= 0 {
			return nil, &domain.TimeoutError{TaskID: task.ID, State: task.State, Timeout: timeout}
		}
		if err := p.scheduler.Sleep(ctx, min(delay, remaining)); err != nil {
			return nil, err
		}

		obs, err := p.poll(ctx, probe, *task)
		if err != nil {
			var limited *domain.RateLimitError
			if !errors.As(err, &limited) {
				return nil, fmt.Errorf("poll %s task %s: %w", task.Kind, task.ID, err)
			}
			delay = max(schedule.NextBackOff(), min(limited.RetryAfter, p.maxBackoff))
			p.metrics.ObserveBackoff()
			p.logger.Info("task poll rate limited", "task_id", task.ID, "next_delay", delay)
			continue
		}

		p.metrics.ObservePoll(string(task.Kind), string(obs.State))
		previous := task.State
		if task.Apply(obs, p.clock.Now()) {
			p.metrics.ObserveTransition(string(task.Kind), string(task.State))
			p.logger.Info("task state changed", "task_id", task.ID, "from", previous, "to", task.State)
			if err := p.save(ctx, *task); err != nil {
				return nil, err
			}
		}
		if task.State.Terminal() {
			return outcome(task)
		}

		schedule.Reset()
		delay = interval
	}
}

// Run submits the task and waits for it with the default interval and
// timeout.
func (p *Poller) Run(ctx context.Context, start StartCall) (domain.AsyncTask, any, error) {
	task, err := p.Submit(ctx, start)
	if err != nil {
		return domain.AsyncTask{}, nil, err
	}
	result, err := p.AwaitCompletion(ctx, &task, 0, 0)
	return task, result, err
}

// Check polls a non-terminal task once, without waiting, and records any
// transition. Rate-limit errors are returned to the caller as-is.
func (p *Poller) Check(ctx context.Context, task *domain.AsyncTask) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if task.State.Terminal() {
		return nil
	}
	probe, ok := p.probes[task.Kind]
	if !ok {
		return fmt.Errorf("no probe registered for %s tasks", task.Kind)
	}

	obs, err := p.poll(ctx, probe, *task)
	if err != nil {
		return fmt.Errorf("poll %s task %s: %w", task.Kind, task.ID, err)
	}
	p.metrics.ObservePoll(string(task.Kind), string(obs.State))
	if task.Apply(obs, p.clock.Now()) {
		p.metrics.ObserveTransition(string(task.Kind), string(task.State))
		return p.save(ctx, *task)
	}
	return nil
}

func (p *Poller) poll(ctx context.Context, probe Probe, task domain.AsyncTask) (domain.TaskObservation, error) {
	call, err := probe.StatusCall(task)
	if err != nil {
		return domain.TaskObservation{}, err
	}
	payload, err := p.caller.Call(ctx, call, true)
	if err != nil {
		return domain.TaskObservation{}, err
	}
	return probe.Observe(payload, task)
}

// newSchedule doubles from twice the poll interval up to the bound. It
// reads time from the injected clock and never gives up on its own; the
// poll deadline does that.
func (p *Poller) newSchedule(interval time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     min(2*interval, p.maxBackoff),
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.maxBackoff,
		MaxElapsedTime:      0,
		Clock:               p.clock,
	}
	b.Reset()
	return b
}

func (p *Poller) save(ctx context.Context, task domain.AsyncTask) error {
	if p.tasks == nil {
		return nil
	}
	if err := p.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("record task %s: %w", task.ID, err)
	}
	return nil
}

func outcome(task *domain.AsyncTask) (any, error) {
	if task.State == domain.TaskStateFailed {
		return nil, &domain.TaskFailedError{TaskID: task.ID, Reason: task.FailureCause}
	}
	return task.Result, nil
}
