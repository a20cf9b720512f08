package application

import (
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/rpc"
)

type GenerationKind string

const (
	GenerateAudio      GenerationKind = "audio"
	GenerateVideo      GenerationKind = "video"
	GenerateReport     GenerationKind = "report"
	GenerateQuiz       GenerationKind = "quiz"
	GenerateFlashcards GenerationKind = "flashcards"
)

func ParseGenerationKind(raw string) (GenerationKind, error) {
	switch kind := GenerationKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case GenerateAudio, GenerateVideo, GenerateReport, GenerateQuiz, GenerateFlashcards:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown generation kind %q", raw)
	}
}

// GenerateCommand asks for one studio artifact. An empty SourceIDs selects
// every source of the notebook.
type GenerateCommand struct {
	NotebookID   string
	Kind         GenerationKind
	SourceIDs    []string
	Language     string
	Instructions string
	ReportFormat rpc.ReportFormat
}

type StartResearchCommand struct {
	NotebookID string
	Query      string
	Deep       bool
	Drive      bool
}

type ImportResearchCommand struct {
	NotebookID string
	TaskID     string
	// URLs limits the import to these sources. Empty imports all of them.
	URLs []string
}
