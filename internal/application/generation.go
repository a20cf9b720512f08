package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/poller"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
)

type GenerationService struct {
	caller    ports.RPCCaller
	encoder   *rpc.Encoder
	notebooks *NotebookService
	poller    *poller.Poller
}

func NewGenerationService(caller ports.RPCCaller, encoder *rpc.Encoder, notebooks *NotebookService, p *poller.Poller) *GenerationService {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &GenerationService{caller: caller, encoder: encoder, notebooks: notebooks, poller: p}
}

// Generate submits the artifact job and returns the pending task. The
// artifact id doubles as the task id.
func (s *GenerationService) Generate(ctx context.Context, cmd GenerateCommand) (domain.AsyncTask, error) {
	sourceIDs := cmd.SourceIDs
	if len(sourceIDs) == 0 && s.notebooks != nil {
		nb, err := s.notebooks.Get(ctx, cmd.NotebookID)
		if err != nil {
			return domain.AsyncTask{}, err
		}
		for _, src := range nb.Sources {
			sourceIDs = append(sourceIDs, src.ID)
		}
	}
	if len(sourceIDs) == 0 {
		return domain.AsyncTask{}, errors.New("notebook has no sources to generate from")
	}

	params, err := generationParams(cmd, sourceIDs)
	if err != nil {
		return domain.AsyncTask{}, err
	}
	call, err := s.encoder.Encode(params)
	if err != nil {
		return domain.AsyncTask{}, err
	}

	return s.poller.Submit(ctx, poller.StartCall{
		Kind:          domain.TaskKindGeneration,
		NotebookID:    cmd.NotebookID,
		Call:          call,
		ExtractTaskID: generationTaskID,
	})
}

func (s *GenerationService) Artifacts(ctx context.Context, notebookID string) ([]domain.Artifact, error) {
	call, err := s.encoder.Encode(rpc.ListArtifactsParams{NotebookID: notebookID})
	if err != nil {
		return nil, err
	}
	payload, err := s.caller.Call(ctx, call, true)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	rows := artifactRows(payload)
	artifacts := make([]domain.Artifact, 0, len(rows))
	for _, row := range rows {
		if art, ok := parseArtifact(row); ok {
			artifacts = append(artifacts, art)
		}
	}
	return artifacts, nil
}

func generationParams(cmd GenerateCommand, sourceIDs []string) (rpc.Params, error) {
	switch cmd.Kind {
	case GenerateAudio:
		return rpc.CreateAudioParams{NotebookID: cmd.NotebookID, SourceIDs: sourceIDs, Language: cmd.Language, Instructions: cmd.Instructions}, nil
	case GenerateVideo:
		return rpc.CreateVideoParams{NotebookID: cmd.NotebookID, SourceIDs: sourceIDs, Language: cmd.Language, Instructions: cmd.Instructions}, nil
	case GenerateReport:
		return rpc.CreateReportParams{NotebookID: cmd.NotebookID, SourceIDs: sourceIDs, Language: cmd.Language, Format: cmd.ReportFormat, CustomPrompt: cmd.Instructions}, nil
	case GenerateQuiz, GenerateFlashcards:
		return rpc.CreateQuizParams{NotebookID: cmd.NotebookID, SourceIDs: sourceIDs, Instructions: cmd.Instructions, Flashcards: cmd.Kind == GenerateFlashcards}, nil
	default:
		return nil, fmt.Errorf("unknown generation kind %q", cmd.Kind)
	}
}

func generationTaskID(payload any) (string, error) {
	id := text(pick(payload, 0, 0))
	if id == "" {
		return "", &domain.DecodeError{Reason: "generation reply has no artifact id"}
	}
	return id, nil
}

// GenerationProbe finds a generation task in the notebook's artifact list.
// There is no poll-by-id call.
type GenerationProbe struct {
	encoder *rpc.Encoder
	table   config.StatusTable
}

func NewGenerationProbe(encoder *rpc.Encoder, table config.StatusTable) *GenerationProbe {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &GenerationProbe{encoder: encoder, table: table}
}

func (p *GenerationProbe) StatusCall(task domain.AsyncTask) (domain.EncodedCall, error) {
	return p.encoder.Encode(rpc.ListArtifactsParams{NotebookID: task.NotebookID})
}

// Observe reports pending until the artifact shows up. A media artifact
// marked completed stays processing until its download URL is present.
func (p *GenerationProbe) Observe(payload any, task domain.AsyncTask) (domain.TaskObservation, error) {
	for _, row := range artifactRows(payload) {
		if text(pick(row, 0)) != task.ID {
			continue
		}
		art, _ := parseArtifact(row)
		state, _ := p.table.State(art.StatusCode)
		if state == domain.TaskStateCompleted && art.Type.IsMedia() && art.MediaURL == "" {
			state = domain.TaskStateProcessing
		}
		obs := domain.TaskObservation{State: state, Result: art}
		if state == domain.TaskStateFailed {
			obs.Reason = fmt.Sprintf("%s generation failed", art.Type)
		}
		return obs, nil
	}
	return domain.TaskObservation{State: domain.TaskStatePending}, nil
}

func artifactRows(payload any) []any {
	first := pick(payload, 0)
	if rows, ok := first.([]any); ok {
		if _, nested := pick(rows, 0).([]any); nested || len(rows) == 0 {
			return rows
		}
	}
	return list(payload)
}

// parseArtifact reads [id, title, type, _, status, ...media slots].
func parseArtifact(raw any) (domain.Artifact, bool) {
	id := text(pick(raw, 0))
	if id == "" {
		return domain.Artifact{}, false
	}
	art := domain.Artifact{
		ID:         id,
		Title:      text(pick(raw, 1)),
		Type:       domain.ArtifactType(number(pick(raw, 2))),
		StatusCode: number(pick(raw, 4)),
	}
	art.MediaURL = mediaURL(list(raw), art.Type)
	return art, true
}

func mediaURL(row []any, kind domain.ArtifactType) string {
	switch kind {
	case domain.ArtifactTypeAudio:
		if url := pick(row, 6, 5, 0, 0); isMediaURL(url) {
			return text(url)
		}
	case domain.ArtifactTypeVideo:
		for _, item := range list(pick(row, 8)) {
			if url := pick(item, 0); isMediaURL(url) {
				return text(url)
			}
		}
	case domain.ArtifactTypeSlideDeck:
		if url := pick(row, 16, 3); isMediaURL(url) {
			return text(url)
		}
	case domain.ArtifactTypeInfographic:
		for i := len(row) - 1; i >= 0; i-- {
			if url := pick(row[i], 2, 0, 1, 0); isMediaURL(url) {
				return text(url)
			}
		}
	}
	return ""
}
