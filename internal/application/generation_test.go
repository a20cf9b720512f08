package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/poller"
	"github.com/bnema/notebooklm-cli/internal/ports/mocks"
	"github.com/bnema/notebooklm-cli/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestPoller(t *testing.T, caller *mocks.MockRPCCaller, repo *mocks.MockTaskRepository) (*poller.Poller, *mocks.FakeClock) {
	t.Helper()

	clock := mocks.NewFakeClock(epoch)
	tables := config.DefaultStatusTables()
	cfg := poller.Config{Interval: time.Second, Clock: clock, Scheduler: clock}
	if repo != nil {
		cfg.Tasks = repo
	}
	p, err := poller.New(caller, map[domain.TaskKind]poller.Probe{
		domain.TaskKindGeneration: NewGenerationProbe(nil, tables[domain.TaskKindGeneration]),
		domain.TaskKindResearch:   NewResearchProbe(nil, tables[domain.TaskKindResearch]),
	}, cfg)
	require.NoError(t, err)
	return p, clock
}

func artifactRow(id string, kind domain.ArtifactType, status int, media ...any) []any {
	row := make([]any, 17)
	row[0], row[1], row[2], row[4] = id, "Deep dive", float64(kind), float64(status)
	if len(media) > 0 {
		switch kind {
		case domain.ArtifactTypeAudio:
			row[6] = []any{nil, nil, nil, nil, nil, []any{[]any{media[0], 1}}}
		case domain.ArtifactTypeVideo:
			row[8] = []any{[]any{"not-a-url"}, []any{media[0], 4}}
		case domain.ArtifactTypeSlideDeck:
			row[16] = []any{nil, nil, nil, media[0]}
		}
	}
	return row
}

func TestGenerateUsesAllNotebookSourcesByDefault(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	repo := mocks.NewMockTaskRepository(t)
	p, _ := newTestPoller(t, caller, repo)
	notebooks := NewNotebookService(caller, nil)
	service := NewGenerationService(caller, nil, notebooks, p)

	caller.EXPECT().Call(mockAnyContext(), encode(t, rpc.GetNotebookParams{NotebookID: "nb-1"}), false).
		Return([]any{notebookRow("nb-1", "N", false, 0, sourceRow("s1", "A"), sourceRow("s2", "B"))}, nil).Once()
	start := encode(t, rpc.CreateAudioParams{NotebookID: "nb-1", SourceIDs: []string{"s1", "s2"}})
	caller.EXPECT().Call(mockAnyContext(), start, false).Return([]any{[]any{"art-1", "Deep dive"}}, nil).Once()
	repo.EXPECT().Save(mockAnyContext(), mock.MatchedBy(func(task domain.AsyncTask) bool {
		return task.ID == "art-1" && task.State == domain.TaskStatePending && task.NotebookID == "nb-1"
	})).Return(nil).Once()

	task, err := service.Generate(context.Background(), GenerateCommand{NotebookID: "nb-1", Kind: GenerateAudio})
	require.NoError(t, err)
	assert.Equal(t, "art-1", task.ID)
	assert.Equal(t, domain.TaskKindGeneration, task.Kind)
	assert.Equal(t, epoch, task.SubmittedAt)
}

func TestGenerateWithoutSources(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p, _ := newTestPoller(t, caller, nil)
	service := NewGenerationService(caller, nil, NewNotebookService(caller, nil), p)

	caller.EXPECT().Call(mockAnyContext(), mock.Anything, false).Return([]any{notebookRow("nb-1", "N", false, 0)}, nil).Once()

	_, err := service.Generate(context.Background(), GenerateCommand{NotebookID: "nb-1", Kind: GenerateVideo})
	require.ErrorContains(t, err, "no sources")
}

func TestGenerationParamsPerKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind GenerationKind
		want rpc.Params
	}{
		{kind: GenerateAudio, want: rpc.CreateAudioParams{NotebookID: "nb", SourceIDs: []string{"s"}, Language: "fr", Instructions: "short"}},
		{kind: GenerateVideo, want: rpc.CreateVideoParams{NotebookID: "nb", SourceIDs: []string{"s"}, Language: "fr", Instructions: "short"}},
		{kind: GenerateReport, want: rpc.CreateReportParams{NotebookID: "nb", SourceIDs: []string{"s"}, Language: "fr", Format: rpc.ReportStudyGuide, CustomPrompt: "short"}},
		{kind: GenerateQuiz, want: rpc.CreateQuizParams{NotebookID: "nb", SourceIDs: []string{"s"}, Instructions: "short"}},
		{kind: GenerateFlashcards, want: rpc.CreateQuizParams{NotebookID: "nb", SourceIDs: []string{"s"}, Instructions: "short", Flashcards: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			got, err := generationParams(GenerateCommand{
				NotebookID:   "nb",
				Kind:         tt.kind,
				Language:     "fr",
				Instructions: "short",
				ReportFormat: rpc.ReportStudyGuide,
			}, []string{"s"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := generationParams(GenerateCommand{Kind: "podcast"}, []string{"s"})
	require.ErrorContains(t, err, "unknown generation kind")
}

func TestGenerationProbeObserve(t *testing.T) {
	t.Parallel()

	probe := NewGenerationProbe(nil, config.DefaultStatusTables()[domain.TaskKindGeneration])
	task := domain.AsyncTask{ID: "art-1", Kind: domain.TaskKindGeneration, NotebookID: "nb-1"}

	tests := []struct {
		name string
		row  []any
		want domain.TaskState
		url  string
	}{
		{name: "not listed yet", row: artifactRow("other", domain.ArtifactTypeAudio, 3, "https://x"), want: domain.TaskStatePending},
		{name: "processing", row: artifactRow("art-1", domain.ArtifactTypeAudio, 1), want: domain.TaskStateProcessing},
		{name: "queued", row: artifactRow("art-1", domain.ArtifactTypeReport, 2), want: domain.TaskStatePending},
		{name: "audio completed without url", row: artifactRow("art-1", domain.ArtifactTypeAudio, 3), want: domain.TaskStateProcessing},
		{name: "audio ready", row: artifactRow("art-1", domain.ArtifactTypeAudio, 3, "https://audio"), want: domain.TaskStateCompleted, url: "https://audio"},
		{name: "video ready", row: artifactRow("art-1", domain.ArtifactTypeVideo, 3, "https://video"), want: domain.TaskStateCompleted, url: "https://video"},
		{name: "slides ready", row: artifactRow("art-1", domain.ArtifactTypeSlideDeck, 3, "https://pdf"), want: domain.TaskStateCompleted, url: "https://pdf"},
		{name: "report needs no url", row: artifactRow("art-1", domain.ArtifactTypeReport, 3), want: domain.TaskStateCompleted},
		{name: "failed", row: artifactRow("art-1", domain.ArtifactTypeVideo, 4), want: domain.TaskStateFailed},
		{name: "unknown code", row: artifactRow("art-1", domain.ArtifactTypeQuiz, 42), want: domain.TaskStateProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obs, err := probe.Observe([]any{[]any{tt.row}}, task)
			require.NoError(t, err)
			assert.Equal(t, tt.want, obs.State)
			if tt.url != "" {
				art, ok := obs.Result.(domain.Artifact)
				require.True(t, ok)
				assert.Equal(t, tt.url, art.MediaURL)
			}
			if tt.want == domain.TaskStateFailed {
				assert.NotEmpty(t, obs.Reason)
			}
		})
	}
}

func TestGenerationProbeStatusCallListsNotebookArtifacts(t *testing.T) {
	t.Parallel()

	probe := NewGenerationProbe(nil, config.DefaultStatusTables()[domain.TaskKindGeneration])
	call, err := probe.StatusCall(domain.AsyncTask{ID: "art-1", NotebookID: "nb-1"})
	require.NoError(t, err)
	assert.Equal(t, encode(t, rpc.ListArtifactsParams{NotebookID: "nb-1"}), call)
}

func TestGenerateAndAwaitThroughPoller(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	p, clock := newTestPoller(t, caller, nil)
	service := NewGenerationService(caller, nil, nil, p)
	tasks := NewTaskService(mocks.NewMockTaskRepository(t), p, nil)

	start := encode(t, rpc.CreateReportParams{NotebookID: "nb-1", SourceIDs: []string{"s1"}})
	listCall := encode(t, rpc.ListArtifactsParams{NotebookID: "nb-1"})
	caller.EXPECT().Call(mockAnyContext(), start, false).Return([]any{[]any{"art-1"}}, nil).Once()
	caller.EXPECT().Call(mockAnyContext(), listCall, true).Return([]any{[]any{}}, nil).Once()
	caller.EXPECT().Call(mockAnyContext(), listCall, true).Return([]any{[]any{artifactRow("art-1", domain.ArtifactTypeReport, 1)}}, nil).Once()
	caller.EXPECT().Call(mockAnyContext(), listCall, true).Return([]any{[]any{artifactRow("art-1", domain.ArtifactTypeReport, 3)}}, nil).Once()

	task, err := service.Generate(context.Background(), GenerateCommand{NotebookID: "nb-1", Kind: GenerateReport, SourceIDs: []string{"s1"}})
	require.NoError(t, err)

	result, err := tasks.Await(context.Background(), &task, 0, time.Minute)
	require.NoError(t, err)
	art, ok := result.(domain.Artifact)
	require.True(t, ok)
	assert.Equal(t, "art-1", art.ID)
	assert.Equal(t, domain.ArtifactTypeReport, art.Type)
	assert.Len(t, clock.Sleeps(), 3)
}

func TestArtifactsListing(t *testing.T) {
	t.Parallel()

	caller := mocks.NewMockRPCCaller(t)
	service := NewGenerationService(caller, nil, nil, nil)
	caller.EXPECT().Call(mockAnyContext(), encode(t, rpc.ListArtifactsParams{NotebookID: "nb-1"}), true).Return([]any{[]any{
		artifactRow("a1", domain.ArtifactTypeAudio, 3, "https://audio"),
		artifactRow("a2", domain.ArtifactTypeQuiz, 1),
	}}, nil)

	artifacts, err := service.Artifacts(context.Background(), "nb-1")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, domain.Artifact{ID: "a1", Title: "Deep dive", Type: domain.ArtifactTypeAudio, StatusCode: 3, MediaURL: "https://audio"}, artifacts[0])
	assert.Equal(t, domain.ArtifactTypeQuiz, artifacts[1].Type)
}
