package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bnema/notebooklm-cli/internal/config"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/poller"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
)

type ResearchService struct {
	caller  ports.RPCCaller
	encoder *rpc.Encoder
	probe   *ResearchProbe
	poller  *poller.Poller
}

func NewResearchService(caller ports.RPCCaller, encoder *rpc.Encoder, probe *ResearchProbe, p *poller.Poller) *ResearchService {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &ResearchService{caller: caller, encoder: encoder, probe: probe, poller: p}
}

func (s *ResearchService) Start(ctx context.Context, cmd StartResearchCommand) (domain.AsyncTask, error) {
	source := rpc.ResearchWeb
	if cmd.Drive {
		source = rpc.ResearchDrive
	}
	call, err := s.encoder.Encode(rpc.StartResearchParams{
		NotebookID: cmd.NotebookID,
		Query:      cmd.Query,
		Deep:       cmd.Deep,
		Source:     source,
	})
	if err != nil {
		return domain.AsyncTask{}, err
	}

	return s.poller.Submit(ctx, poller.StartCall{
		Kind:          domain.TaskKindResearch,
		NotebookID:    cmd.NotebookID,
		Call:          call,
		ExtractTaskID: researchTaskID,
	})
}

// Import adds the sources found by a completed research task to its
// notebook and returns the created sources.
func (s *ResearchService) Import(ctx context.Context, cmd ImportResearchCommand) ([]domain.SourceRef, error) {
	task := domain.NewAsyncTask(cmd.TaskID, domain.TaskKindResearch, cmd.NotebookID, time.Time{})
	call, err := s.probe.StatusCall(*task)
	if err != nil {
		return nil, err
	}
	payload, err := s.caller.Call(ctx, call, true)
	if err != nil {
		return nil, fmt.Errorf("poll research: %w", err)
	}
	obs, err := s.probe.Observe(payload, *task)
	if err != nil {
		return nil, err
	}
	report, ok := obs.Result.(domain.ResearchReport)
	if obs.State != domain.TaskStateCompleted || !ok {
		return nil, fmt.Errorf("research %s is %s, not completed", cmd.TaskID, obs.State)
	}

	sources := report.Sources
	if len(cmd.URLs) > 0 {
		sources = slices.DeleteFunc(slices.Clone(sources), func(src domain.ResearchSource) bool {
			return !slices.Contains(cmd.URLs, src.URL)
		})
	}
	if len(sources) == 0 {
		return nil, errors.New("research found no matching sources to import")
	}

	call, err = s.encoder.Encode(rpc.ImportResearchParams{NotebookID: cmd.NotebookID, TaskID: cmd.TaskID, Sources: sources})
	if err != nil {
		return nil, err
	}
	payload, err = s.caller.Call(ctx, call, false)
	if err != nil {
		return nil, fmt.Errorf("import research: %w", err)
	}

	var refs []domain.SourceRef
	for _, entry := range list(pick(payload, 0)) {
		if ref, ok := parseSourceRef(entry); ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func researchTaskID(payload any) (string, error) {
	id := text(pick(payload, 0))
	if id == "" {
		return "", &domain.DecodeError{Reason: "research reply has no task id"}
	}
	return id, nil
}

// ResearchProbe reads the notebook's research list, shaped
// [[[taskID, [_, [query], _, [sources, summary], status]], ...]].
type ResearchProbe struct {
	encoder *rpc.Encoder
	table   config.StatusTable
}

func NewResearchProbe(encoder *rpc.Encoder, table config.StatusTable) *ResearchProbe {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &ResearchProbe{encoder: encoder, table: table}
}

func (p *ResearchProbe) StatusCall(task domain.AsyncTask) (domain.EncodedCall, error) {
	return p.encoder.Encode(rpc.PollResearchParams{NotebookID: task.NotebookID})
}

func (p *ResearchProbe) Observe(payload any, task domain.AsyncTask) (domain.TaskObservation, error) {
	for _, entry := range list(pick(payload, 0)) {
		if text(pick(entry, 0)) != task.ID {
			continue
		}
		info := pick(entry, 1)
		state, _ := p.table.State(number(pick(info, 4)))

		report := domain.ResearchReport{
			TaskID:  task.ID,
			Query:   text(pick(info, 1, 0)),
			Summary: text(pick(info, 3, 1)),
		}
		for _, src := range list(pick(info, 3, 0)) {
			report.Sources = append(report.Sources, domain.ResearchSource{
				URL:         text(pick(src, 0)),
				Title:       text(pick(src, 1)),
				Description: text(pick(src, 2)),
			})
		}
		return domain.TaskObservation{State: state, Result: report}, nil
	}
	return domain.TaskObservation{State: domain.TaskStatePending}, nil
}
