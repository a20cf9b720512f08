package rpc

import (
	"errors"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

// ResearchSourceKind selects where fast research searches.
type ResearchSourceKind int

const (
	ResearchWeb   ResearchSourceKind = 1
	ResearchDrive ResearchSourceKind = 2
)

type StartResearchParams struct {
	NotebookID string
	Query      string
	Deep       bool
	Source     ResearchSourceKind
}

func (p StartResearchParams) Method() Method {
	if p.Deep {
		return StartDeepResearch
	}
	return StartFastResearch
}

func (p StartResearchParams) route() route { return notebookRoute(p.NotebookID) }

func (p StartResearchParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return nil, errors.New("query is required")
	}
	source := p.Source
	if source == 0 {
		source = ResearchWeb
	}
	if p.Deep {
		if source != ResearchWeb {
			return nil, errors.New("deep research only supports web sources")
		}
		return []any{nil, []any{1}, []any{p.Query, int(source)}, 5, p.NotebookID}, nil
	}
	return []any{[]any{p.Query, int(source)}, nil, 1, p.NotebookID}, nil
}

type PollResearchParams struct {
	NotebookID string
}

func (PollResearchParams) Method() Method { return PollResearch }
func (p PollResearchParams) route() route { return notebookRoute(p.NotebookID) }

func (p PollResearchParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{nil, nil, p.NotebookID}, nil
}

type ImportResearchParams struct {
	NotebookID string
	TaskID     string
	Sources    []domain.ResearchSource
}

func (ImportResearchParams) Method() Method { return ImportResearch }
func (p ImportResearchParams) route() route { return notebookRoute(p.NotebookID) }

func (p ImportResearchParams) encode() ([]any, error) {
	if err := requireID("task id", p.TaskID); err != nil {
		return nil, err
	}
	entries := make([]any, 0, len(p.Sources))
	for _, src := range p.Sources {
		if src.URL == "" {
			continue
		}
		entries = append(entries, []any{nil, nil, []any{src.URL, src.Title}, nil, nil, nil, nil, nil, nil, nil, 2})
	}
	if len(entries) == 0 {
		return nil, errors.New("no importable sources")
	}
	return []any{nil, []any{1}, p.TaskID, p.NotebookID, entries}, nil
}
