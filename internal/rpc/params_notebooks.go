package rpc

import "errors"

// flag2 is the constant [2] sub-array the web client sends with most reads.
func flag2() []any { return []any{2} }

type ListNotebooksParams struct{}

func (ListNotebooksParams) Method() Method { return ListNotebooks }
func (ListNotebooksParams) route() route   { return homeRoute() }

func (ListNotebooksParams) encode() ([]any, error) {
	return []any{nil, 1, nil, flag2()}, nil
}

type CreateNotebookParams struct {
	Title string
}

func (CreateNotebookParams) Method() Method { return CreateNotebook }
func (CreateNotebookParams) route() route   { return homeRoute() }

func (p CreateNotebookParams) encode() ([]any, error) {
	if p.Title == "" {
		return nil, errors.New("title is required")
	}
	return []any{p.Title, nil, nil, flag2(), []any{1}}, nil
}

type GetNotebookParams struct {
	NotebookID string
}

func (GetNotebookParams) Method() Method { return GetNotebook }
func (p GetNotebookParams) route() route { return notebookRoute(p.NotebookID) }

func (p GetNotebookParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID, nil, flag2(), nil, 0}, nil
}

// RenameNotebookParams is scoped to the home page, not the notebook.
type RenameNotebookParams struct {
	NotebookID string
	Title      string
}

func (RenameNotebookParams) Method() Method { return RenameNotebook }
func (RenameNotebookParams) route() route   { return homeRoute() }

func (p RenameNotebookParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	if p.Title == "" {
		return nil, errors.New("title is required")
	}
	return []any{p.NotebookID, []any{[]any{nil, nil, nil, []any{nil, p.Title}}}}, nil
}

type DeleteNotebookParams struct {
	NotebookID string
}

func (DeleteNotebookParams) Method() Method { return DeleteNotebook }
func (DeleteNotebookParams) route() route   { return homeRoute() }

func (p DeleteNotebookParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{nestID(DeleteNotebook, "notebook_id", p.NotebookID), flag2()}, nil
}

type SummarizeParams struct {
	NotebookID string
}

func (SummarizeParams) Method() Method { return Summarize }
func (p SummarizeParams) route() route { return notebookRoute(p.NotebookID) }

func (p SummarizeParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID, flag2()}, nil
}

type RemoveRecentlyViewedParams struct {
	NotebookID string
}

func (RemoveRecentlyViewedParams) Method() Method { return RemoveRecentlyViewed }
func (RemoveRecentlyViewedParams) route() route   { return homeRoute() }

func (p RemoveRecentlyViewedParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID}, nil
}

type GetShareStatusParams struct {
	NotebookID string
}

func (GetShareStatusParams) Method() Method { return GetShareStatus }
func (p GetShareStatusParams) route() route { return notebookRoute(p.NotebookID) }

func (p GetShareStatusParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID, flag2()}, nil
}

// ShareNotebookParams toggles link sharing (0 restricted, 1 anyone with link).
type ShareNotebookParams struct {
	NotebookID string
	Public     bool
}

func (ShareNotebookParams) Method() Method { return ShareNotebook }
func (p ShareNotebookParams) route() route { return notebookRoute(p.NotebookID) }

func (p ShareNotebookParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	access := 0
	if p.Public {
		access = 1
	}
	entry := []any{p.NotebookID, nil, []any{access}, []any{access, ""}}
	return []any{[]any{entry}, 1, nil, flag2()}, nil
}

type AddURLSourceParams struct {
	NotebookID string
	URL        string
}

func (AddURLSourceParams) Method() Method { return AddSource }
func (p AddURLSourceParams) route() route { return notebookRoute(p.NotebookID) }

func (p AddURLSourceParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, errors.New("url is required")
	}
	return []any{[]any{[]any{nil, nil, []any{p.URL}}}, p.NotebookID}, nil
}

type AddTextSourceParams struct {
	NotebookID string
	Title      string
	Content    string
}

func (AddTextSourceParams) Method() Method { return AddSource }
func (p AddTextSourceParams) route() route { return notebookRoute(p.NotebookID) }

func (p AddTextSourceParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	if p.Content == "" {
		return nil, errors.New("content is required")
	}
	return []any{[]any{[]any{nil, []any{p.Title, p.Content}, nil, 2}}, p.NotebookID}, nil
}

type DeleteSourceParams struct {
	NotebookID string
	SourceID   string
}

func (DeleteSourceParams) Method() Method { return DeleteSource }
func (p DeleteSourceParams) route() route { return notebookRoute(p.NotebookID) }

func (p DeleteSourceParams) encode() ([]any, error) {
	if err := requireID("source id", p.SourceID); err != nil {
		return nil, err
	}
	return nestID(DeleteSource, "source_id", p.SourceID), nil
}

type GetSourceParams struct {
	NotebookID string
	SourceID   string
}

func (GetSourceParams) Method() Method { return GetSource }
func (p GetSourceParams) route() route { return notebookRoute(p.NotebookID) }

func (p GetSourceParams) encode() ([]any, error) {
	if err := requireID("source id", p.SourceID); err != nil {
		return nil, err
	}
	return []any{nestID(GetSource, "source_id", p.SourceID), flag2(), flag2()}, nil
}

type CreateNoteParams struct {
	NotebookID string
	Title      string
}

func (CreateNoteParams) Method() Method { return CreateNote }
func (p CreateNoteParams) route() route { return notebookRoute(p.NotebookID) }

func (p CreateNoteParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	title := p.Title
	if title == "" {
		title = "New Note"
	}
	return []any{p.NotebookID, "", []any{1}, nil, title}, nil
}

type UpdateNoteParams struct {
	NotebookID string
	NoteID     string
	Title      string
	Content    string
}

func (UpdateNoteParams) Method() Method { return UpdateNote }
func (p UpdateNoteParams) route() route { return notebookRoute(p.NotebookID) }

func (p UpdateNoteParams) encode() ([]any, error) {
	if err := requireID("note id", p.NoteID); err != nil {
		return nil, err
	}
	body := []any{p.Content, p.Title, []any{}, 0}
	return []any{p.NotebookID, p.NoteID, []any{[]any{body}}}, nil
}

type DeleteNoteParams struct {
	NotebookID string
	NoteID     string
}

func (DeleteNoteParams) Method() Method { return DeleteNote }
func (p DeleteNoteParams) route() route { return notebookRoute(p.NotebookID) }

func (p DeleteNoteParams) encode() ([]any, error) {
	if err := requireID("note id", p.NoteID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID, nil, nestID(DeleteNote, "note_id", p.NoteID)}, nil
}

type GetNotesParams struct {
	NotebookID string
}

func (GetNotesParams) Method() Method { return GetNotesAndMindMaps }
func (p GetNotesParams) route() route { return notebookRoute(p.NotebookID) }

func (p GetNotesParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{p.NotebookID}, nil
}
