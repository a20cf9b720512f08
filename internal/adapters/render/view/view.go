package view

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/bnema/notebooklm-cli/internal/application"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
)

const maxSummaryChars = 400

func renderNotebooks(notebooks []domain.Notebook, opts Options, s styles) string {
	lines := []string{
		s.title.Render("Notebooks"),
		s.header.Render(fmt.Sprintf("notebooks: %d", len(notebooks))),
	}

	if len(notebooks) == 0 {
		lines = append(lines, s.empty.Render("No notebooks yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, nb := range notebooks {
		owner := "shared"
		if nb.IsOwner {
			owner = "owner"
		}
		meta := s.faint.Render(fmt.Sprintf("%s, %s, created %s", plural(len(nb.Sources), "source"), owner, formatWhen(nb.CreatedAt, opts.Now)))
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleLine(nb.Title, nb.ID, s),
			meta,
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderArtifacts(notebookID string, artifacts []domain.Artifact, s styles) string {
	lines := []string{
		s.title.Render("Artifacts"),
		s.header.Render(fmt.Sprintf("notebook: %s, artifacts: %d", sanitize(notebookID), len(artifacts))),
	}

	if len(artifacts) == 0 {
		lines = append(lines, s.empty.Render("No artifacts in this notebook."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, artifact := range artifacts {
		lines = append(lines, s.section.Render(renderArtifact(artifact, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderArtifact(artifact domain.Artifact, s styles) string {
	parts := []string{
		titleLine(artifact.Title, artifact.ID, s),
		s.detail.Render(fmt.Sprintf("type: %s, status code: %d", artifact.Type, artifact.StatusCode)),
	}
	if artifact.MediaURL != "" {
		parts = append(parts, s.link.Render(artifact.MediaURL))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTasks(tasks []domain.AsyncTask, opts Options, s styles) string {
	lines := []string{
		s.title.Render("Tasks"),
		s.header.Render(fmt.Sprintf("tasks: %d", len(tasks))),
	}

	if len(tasks) == 0 {
		lines = append(lines, s.empty.Render("No recorded tasks."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, task := range tasks {
		lines = append(lines, taskLine(task, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func taskLine(task domain.AsyncTask, opts Options, s styles) string {
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		stateStyle(task.State, s).Render(fmt.Sprintf("%-10s", task.State)),
		" ",
		s.detail.Render(fmt.Sprintf("%-10s", task.Kind)),
		" ",
		s.id.Render(sanitize(task.ID)),
		" ",
		s.faint.Render(fmt.Sprintf("notebook %s, submitted %s", sanitize(task.NotebookID), formatWhen(task.SubmittedAt, opts.Now))),
	)
	if task.State == domain.TaskStateFailed && task.FailureCause != "" {
		line += " " + s.failed.Render(sanitize(task.FailureCause))
	}
	return line
}

func renderTask(task domain.AsyncTask, result any, opts Options, s styles) string {
	parts := []string{taskLine(task, opts, s)}
	if task.State != domain.TaskStateCompleted {
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	if result == nil {
		result = task.Result
	}

	switch r := result.(type) {
	case domain.Artifact:
		parts = append(parts, s.section.Render(renderArtifact(r, s)))
	case domain.ResearchReport:
		parts = append(parts, s.section.Render(renderResearch(r, s)))
	case nil:
	default:
		encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(r)
		if err != nil {
			encoded = fmt.Sprintf("%v", r)
		}
		parts = append(parts, s.section.Render(s.detail.Render(sanitize(encoded))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderResearch(report domain.ResearchReport, s styles) string {
	parts := []string{
		s.title.Render(sanitize(report.Query)),
		s.header.Render(fmt.Sprintf("task: %s, %s", sanitize(report.TaskID), plural(len(report.Sources), "source"))),
	}
	if report.Summary != "" {
		parts = append(parts, s.detail.Render(truncate(sanitize(report.Summary), maxSummaryChars)))
	}
	for i, src := range report.Sources {
		parts = append(parts, fmt.Sprintf("%2d. %s %s", i+1, s.detail.Render(sanitize(src.Title)), s.link.Render(sanitize(src.URL))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderSession(status application.SessionStatus, opts Options, s styles) string {
	sessionID := "missing"
	if status.HasSessionID {
		sessionID = "present"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render("Session"),
		s.completed.Render("valid"),
		s.detail.Render(fmt.Sprintf("cookies: %d", status.CookieCount)),
		s.detail.Render("session id: "+sessionID),
		s.faint.Render("tokens fetched "+formatWhen(status.TokensFetched, opts.Now)),
	)
}

func titleLine(title, id string, s styles) string {
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.title.Render(sanitize(title)), " ", s.id.Render("("+sanitize(id)+")"))
}

func stateStyle(state domain.TaskState, s styles) lipgloss.Style {
	switch state {
	case domain.TaskStateProcessing:
		return s.running
	case domain.TaskStateCompleted:
		return s.completed
	case domain.TaskStateFailed:
		return s.failed
	default:
		return s.pending
	}
}

func formatWhen(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(math.Floor(elapsed.Minutes())), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(math.Floor(elapsed.Hours())), "hour") + " ago"
	case elapsed < 30*24*time.Hour:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	default:
		return at.Format("02 Jan 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// sanitize drops control characters from service supplied text.
func sanitize(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
