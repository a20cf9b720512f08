package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/ports"
	"github.com/bnema/notebooklm-cli/internal/rpc"
)

type NotebookService struct {
	caller  ports.RPCCaller
	encoder *rpc.Encoder
}

func NewNotebookService(caller ports.RPCCaller, encoder *rpc.Encoder) *NotebookService {
	if encoder == nil {
		encoder = rpc.NewEncoder(nil)
	}
	return &NotebookService{caller: caller, encoder: encoder}
}

func (s *NotebookService) List(ctx context.Context) ([]domain.Notebook, error) {
	payload, err := s.call(ctx, rpc.ListNotebooksParams{}, true)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}

	rows := list(pick(payload, 0))
	notebooks := make([]domain.Notebook, 0, len(rows))
	for _, row := range rows {
		if nb, ok := parseNotebook(row); ok {
			notebooks = append(notebooks, nb)
		}
	}
	return notebooks, nil
}

func (s *NotebookService) Get(ctx context.Context, id string) (domain.Notebook, error) {
	payload, err := s.call(ctx, rpc.GetNotebookParams{NotebookID: id}, false)
	if err != nil {
		return domain.Notebook{}, fmt.Errorf("get notebook %s: %w", id, err)
	}
	nb, ok := parseNotebook(pick(payload, 0))
	if !ok {
		return domain.Notebook{}, &domain.DecodeError{Reason: "notebook reply has no id"}
	}
	return nb, nil
}

func (s *NotebookService) Create(ctx context.Context, title string) (domain.Notebook, error) {
	payload, err := s.call(ctx, rpc.CreateNotebookParams{Title: title}, false)
	if err != nil {
		return domain.Notebook{}, fmt.Errorf("create notebook: %w", err)
	}
	nb, ok := parseNotebook(payload)
	if !ok {
		return domain.Notebook{}, &domain.DecodeError{Reason: "create reply has no notebook id"}
	}
	return nb, nil
}

// Rename returns the notebook as the service reports it after the change.
func (s *NotebookService) Rename(ctx context.Context, id, title string) (domain.Notebook, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Notebook{}, errors.New("title is required")
	}
	if _, err := s.call(ctx, rpc.RenameNotebookParams{NotebookID: id, Title: title}, true); err != nil {
		return domain.Notebook{}, fmt.Errorf("rename notebook %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *NotebookService) Delete(ctx context.Context, id string) error {
	if _, err := s.call(ctx, rpc.DeleteNotebookParams{NotebookID: id}, true); err != nil {
		return fmt.Errorf("delete notebook %s: %w", id, err)
	}
	return nil
}

func (s *NotebookService) AddURLSource(ctx context.Context, notebookID, url string) (domain.SourceRef, error) {
	return s.addSource(ctx, rpc.AddURLSourceParams{NotebookID: notebookID, URL: url})
}

func (s *NotebookService) AddTextSource(ctx context.Context, notebookID, title, content string) (domain.SourceRef, error) {
	return s.addSource(ctx, rpc.AddTextSourceParams{NotebookID: notebookID, Title: title, Content: content})
}

func (s *NotebookService) addSource(ctx context.Context, params rpc.Params) (domain.SourceRef, error) {
	payload, err := s.call(ctx, params, false)
	if err != nil {
		return domain.SourceRef{}, fmt.Errorf("add source: %w", err)
	}
	ref, ok := parseSourceRef(pick(payload, 0, 0))
	if !ok {
		return domain.SourceRef{}, &domain.DecodeError{Reason: "add source reply has no source id"}
	}
	return ref, nil
}

func (s *NotebookService) call(ctx context.Context, params rpc.Params, allowEmpty bool) (any, error) {
	call, err := s.encoder.Encode(params)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, call, allowEmpty)
}

// parseNotebook reads [title, sources, id, _, _, [_, shared, _, _, _, [created]]].
func parseNotebook(raw any) (domain.Notebook, bool) {
	id := text(pick(raw, 2))
	if id == "" {
		return domain.Notebook{}, false
	}

	nb := domain.Notebook{
		ID:        id,
		Title:     strings.TrimSpace(strings.ReplaceAll(text(pick(raw, 0)), "thought\n", "")),
		CreatedAt: unixTime(pick(raw, 5, 5, 0)),
		IsOwner:   pick(raw, 5, 1) == false,
	}
	for _, src := range list(pick(raw, 1)) {
		if ref, ok := parseSourceRef(src); ok {
			nb.Sources = append(nb.Sources, ref)
		}
	}
	return nb, true
}

// parseSourceRef reads [[id], title, ...].
func parseSourceRef(raw any) (domain.SourceRef, bool) {
	id := text(pick(raw, 0, 0))
	if id == "" {
		return domain.SourceRef{}, false
	}
	return domain.SourceRef{ID: id, Title: text(pick(raw, 1))}, true
}
