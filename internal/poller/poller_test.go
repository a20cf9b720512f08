package poller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/metrics"
	"github.com/bnema/notebooklm-cli/internal/ports/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// codeProbe reads replies shaped [statusCode, result, reason].
type codeProbe struct {
	table config.StatusTable
}

func (codeProbe) StatusCall(task domain.AsyncTask) (domain.EncodedCall, error) {
	return domain.EncodedCall{MethodCode: "status", Params: []any{task.ID}, SourcePath: "/"}, nil
}

func (p codeProbe) Observe(payload any, _ domain.AsyncTask) (domain.TaskObservation, error) {
	reply, ok := payload.([]any)
	if !ok || len(reply) == 0 {
		return domain.TaskObservation{State: domain.TaskStatePending}, nil
	}
	state, _ := p.table.State(cast.ToInt(reply[0]))
	obs := domain.TaskObservation{State: state}
	if len(reply) > 1 {
		obs.Result = reply[1]
	}
	if len(reply) > 2 {
		obs.Reason = cast.ToString(reply[2])
	}
	return obs, nil
}

func generationProbes() map[domain.TaskKind]Probe {
	return map[domain.TaskKind]Probe{
		domain.TaskKindGeneration: codeProbe{table: config.DefaultStatusTables()[domain.TaskKindGeneration]},
	}
}

func pending() []any             { return []any{2} }
func processing() []any          { return []any{1} }
func completed(result any) []any { return []any{3, result} }
func failed(reason string) []any { return []any{4, nil, reason} }

func rateLimited() error {
	return &domain.RateLimitError{RPCError: domain.RPCError{MethodCode: "status", Code: 8}}
}

type scripted struct {
	payload any
	err     error
}

func expectPolls(caller *mocks.MockRPCCaller, taskID string, replies ...scripted) {
	call := domain.EncodedCall{MethodCode: "status", Params: []any{taskID}, SourcePath: "/"}
	for _, r := range replies {
		caller.EXPECT().Call(mock.Anything, call, true).Return(r.payload, r.err).Once()
	}
}

func newTestPoller(t *testing.T, caller *mocks.MockRPCCaller, clock *mocks.FakeClock, cfg Config) *Poller {
	t.Helper()

	cfg.Clock = clock
	cfg.Scheduler = clock
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	p, err := New(caller, generationProbes(), cfg)
	require.NoError(t, err)
	return p
}

func newTask(id string) *domain.AsyncTask {
	return domain.NewAsyncTask(id, domain.TaskKindGeneration, "nb-1", epoch)
}

func TestAwaitCompletionStopsAtTerminalState(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{})
	task := newTask("T1")

	expectPolls(caller, "T1",
		scripted{payload: pending()},
		scripted{payload: processing()},
		scripted{payload: processing()},
		scripted{payload: completed("done")},
	)

	result, err := p.AwaitCompletion(context.Background(), task, 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, domain.TaskStateCompleted, task.State)
	caller.AssertNumberOfCalls(t, "Call", 4)
	assert.Len(t, clock.Sleeps(), 4)
}

func TestAwaitCompletionOnTerminalTaskDoesNotPoll(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	task := newTask("T1")
	expectPolls(caller, "T1", scripted{payload: completed([]any{"R"})})

	first, err := p.AwaitCompletion(context.Background(), task, 0, 0)
	require.NoError(t, err)

	second, err := p.AwaitCompletion(context.Background(), task, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	caller.AssertNumberOfCalls(t, "Call", 1)
}

func TestRateLimitedPollsBackOff(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{Interval: time.Second, Metrics: collector})
	task := newTask("T1")

	expectPolls(caller, "T1",
		scripted{err: rateLimited()},
		scripted{err: rateLimited()},
		scripted{payload: processing()},
		scripted{payload: completed("R")},
	)

	result, err := p.AwaitCompletion(context.Background(), task, 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "R", result)

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 4)
	assert.Greater(t, sleeps[2], sleeps[0])
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, time.Second}, sleeps)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP nblm_poller_rate_limit_backoffs_total Polls answered with a rate limit signal.
# TYPE nblm_poller_rate_limit_backoffs_total counter
nblm_poller_rate_limit_backoffs_total 2
`), "nblm_poller_rate_limit_backoffs_total"))
}

func TestRetryAfterStretchesBackoff(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{Interval: time.Second, MaxBackoff: 10 * time.Second})
	task := newTask("T1")

	slow := &domain.RateLimitError{RPCError: domain.RPCError{Code: 429}, RetryAfter: time.Minute}
	expectPolls(caller, "T1",
		scripted{err: slow},
		scripted{payload: completed("R")},
	)

	_, err := p.AwaitCompletion(context.Background(), task, 0, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 10 * time.Second}, clock.Sleeps())
}

func TestSubmitThenAwait(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	repo := mocks.NewMockTaskRepository(t)
	p := newTestPoller(t, caller, clock, Config{Interval: time.Second, Tasks: repo})

	start := domain.EncodedCall{MethodCode: "start", Params: []any{"nb-1"}, SourcePath: "/notebook/nb-1"}
	caller.EXPECT().Call(mock.Anything, start, false).Return([]any{[]any{"T1"}}, nil).Once()
	expectPolls(caller, "T1",
		scripted{payload: processing()},
		scripted{payload: completed("R")},
	)

	var saved []domain.TaskState
	repo.EXPECT().Save(mock.Anything, mock.Anything).Run(func(_ context.Context, task domain.AsyncTask) {
		saved = append(saved, task.State)
	}).Return(nil).Times(3)

	task, err := p.Submit(context.Background(), StartCall{
		Kind:       domain.TaskKindGeneration,
		NotebookID: "nb-1",
		Call:       start,
		ExtractTaskID: func(payload any) (string, error) {
			return cast.ToString(payload.([]any)[0].([]any)[0]), nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", task.ID)
	assert.Equal(t, domain.TaskStatePending, task.State)
	assert.Equal(t, epoch, task.SubmittedAt)

	result, err := p.AwaitCompletion(context.Background(), &task, time.Second, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "R", result)
	assert.Equal(t, epoch.Add(2*time.Second), task.LastPolledAt)
	assert.Equal(t, []domain.TaskState{domain.TaskStatePending, domain.TaskStateProcessing, domain.TaskStateCompleted}, saved)
}

func TestAwaitTimesOutInLastObservedState(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{})
	task := newTask("T1")

	polls := 0
	caller.EXPECT().Call(mock.Anything, mock.Anything, true).RunAndReturn(func(context.Context, domain.EncodedCall, bool) (any, error) {
		polls++
		return processing(), nil
	})

	_, err := p.AwaitCompletion(context.Background(), task, 2*time.Second, 5*time.Second)

	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "T1", timeout.TaskID)
	assert.Equal(t, domain.TaskStateProcessing, timeout.State)
	assert.Equal(t, domain.TaskStateProcessing, task.State)
	assert.Equal(t, 3, polls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, time.Second}, clock.Sleeps())
}

func TestAwaitResumesAfterTimeout(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	task := newTask("T1")

	expectPolls(caller, "T1",
		scripted{payload: processing()},
		scripted{payload: completed("R")},
	)

	_, err := p.AwaitCompletion(context.Background(), task, time.Second, time.Second)
	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)

	result, err := p.AwaitCompletion(context.Background(), task, time.Second, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "R", result)
}

func TestFailedTaskReportsCause(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	task := newTask("T1")
	expectPolls(caller, "T1", scripted{payload: failed("quota exhausted")})

	_, err := p.AwaitCompletion(context.Background(), task, 0, 0)

	var failedErr *domain.TaskFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, "quota exhausted", failedErr.Reason)

	_, again := p.AwaitCompletion(context.Background(), task, 0, 0)
	assert.Equal(t, err, again)
}

func TestUnknownAndBackwardCodesKeepPolling(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	task := newTask("T1")

	expectPolls(caller, "T1",
		scripted{payload: []any{99}},
		scripted{payload: pending()},
		scripted{payload: nil},
		scripted{payload: completed("R")},
	)

	result, err := p.AwaitCompletion(context.Background(), task, 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "R", result)
}

func TestNonRateLimitErrorsPropagate(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	task := newTask("T1")

	notFound := &domain.RPCError{MethodCode: "status", Code: 404}
	expectPolls(caller, "T1", scripted{err: notFound})

	_, err := p.AwaitCompletion(context.Background(), task, 0, 0)
	require.ErrorIs(t, err, notFound)
	assert.Equal(t, domain.TaskStatePending, task.State)
}

func TestCancelledWaitStopsBeforePolling(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.AwaitCompletion(ctx, newTask("T1"), 0, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, clock.Sleeps())
}

func TestCancelBetweenPolls(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	p := newTestPoller(t, caller, clock, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	caller.EXPECT().Call(mock.Anything, mock.Anything, true).RunAndReturn(func(context.Context, domain.EncodedCall, bool) (any, error) {
		cancel()
		return processing(), nil
	}).Once()

	task := newTask("T1")
	_, err := p.AwaitCompletion(ctx, task, 0, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.TaskStateProcessing, task.State)
}

func TestSubmitErrors(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	start := domain.EncodedCall{MethodCode: "start"}

	_, err := p.Submit(context.Background(), StartCall{Kind: domain.TaskKindResearch, Call: start, ExtractTaskID: func(any) (string, error) { return "x", nil }})
	require.ErrorContains(t, err, "no probe registered for research tasks")

	caller.EXPECT().Call(mock.Anything, start, false).Return(nil, domain.ErrEmptyResult).Once()
	_, err = p.Submit(context.Background(), StartCall{Kind: domain.TaskKindGeneration, Call: start, ExtractTaskID: func(any) (string, error) { return "x", nil }})
	require.ErrorIs(t, err, domain.ErrEmptyResult)

	caller.EXPECT().Call(mock.Anything, start, false).Return([]any{}, nil).Once()
	_, err = p.Submit(context.Background(), StartCall{
		Kind: domain.TaskKindGeneration,
		Call: start,
		ExtractTaskID: func(any) (string, error) {
			return "", errors.New("no task id in reply")
		},
	})
	require.ErrorContains(t, err, "no task id in reply")

	caller.EXPECT().Call(mock.Anything, start, false).Return([]any{}, nil).Once()
	_, err = p.Submit(context.Background(), StartCall{Kind: domain.TaskKindGeneration, Call: start, ExtractTaskID: func(any) (string, error) { return " ", nil }})
	require.ErrorContains(t, err, "task id is required")
}

func TestNewRequiresCallerAndProbes(t *testing.T) {
	t.Parallel()

	_, err := New(nil, generationProbes(), Config{})
	require.Error(t, err)

	_, err = New(mocks.NewMockRPCCaller(t), nil, Config{})
	require.Error(t, err)
}

func TestCheckPollsOnce(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	clock := mocks.NewFakeClock(epoch)
	repo := mocks.NewMockTaskRepository(t)
	p := newTestPoller(t, caller, clock, Config{Tasks: repo})
	task := newTask("T1")

	expectPolls(caller, "T1", scripted{payload: completed("R")})
	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, p.Check(context.Background(), task))
	assert.Equal(t, domain.TaskStateCompleted, task.State)
	assert.Empty(t, clock.Sleeps())

	require.NoError(t, p.Check(context.Background(), task))
	caller.AssertNumberOfCalls(t, "Call", 1)
}

func TestCheckSurfacesRateLimit(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p := newTestPoller(t, caller, mocks.NewFakeClock(epoch), Config{})
	expectPolls(caller, "T1", scripted{err: rateLimited()})

	err := p.Check(context.Background(), newTask("T1"))
	var limited *domain.RateLimitError
	require.ErrorAs(t, err, &limited)
}
