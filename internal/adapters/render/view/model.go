package view

import (
	"errors"
	"io"
	"time"

	"github.com/bnema/notebooklm-cli/internal/application"
	"github.com/bnema/notebooklm-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// Options controls relative timestamps. A zero Now prints absolute times.
type Options struct {
	Now time.Time
}

type renderReadyMsg struct{}

type model struct {
	draw   func(styles) string
	styles styles
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.draw(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func render(draw func(styles) string) (string, error) {
	p := tea.NewProgram(
		model{draw: draw, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

func Notebooks(notebooks []domain.Notebook, opts Options) (string, error) {
	return render(func(s styles) string { return renderNotebooks(notebooks, opts, s) })
}

func Artifacts(notebookID string, artifacts []domain.Artifact) (string, error) {
	return render(func(s styles) string { return renderArtifacts(notebookID, artifacts, s) })
}

func Tasks(tasks []domain.AsyncTask, opts Options) (string, error) {
	return render(func(s styles) string { return renderTasks(tasks, opts, s) })
}

// Task renders one task and, once it completed, its result.
func Task(task domain.AsyncTask, result any, opts Options) (string, error) {
	return render(func(s styles) string { return renderTask(task, result, opts, s) })
}

func Session(status application.SessionStatus, opts Options) (string, error) {
	return render(func(s styles) string { return renderSession(status, opts, s) })
}
