package rpc

import (
	"errors"

	"github.com/bnema/notebooklm-cli/internal/domain"
)

const suggestedArtifactFilter = `NOT artifact.status = "ARTIFACT_STATUS_SUGGESTED"`

// optionalCode renders an unset enum choice as a null hole.
func optionalCode(code int) any {
	if code == 0 {
		return nil
	}
	return code
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func language(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}

// artifactSources returns the two source id lists every generation call
// carries: the selection list and the per-type config copy.
func artifactSources(sourceIDs []string) (selection []any, config []any) {
	return nestEach(CreateArtifact, "source_ids", sourceIDs), nestEach(CreateArtifact, "source_ids_config", sourceIDs)
}

func createArtifact(notebookID string, body []any) []any {
	return []any{flag2(), notebookID, body}
}

type CreateAudioParams struct {
	NotebookID   string
	SourceIDs    []string
	Language     string
	Instructions string
	Format       int
	Length       int
}

func (CreateAudioParams) Method() Method { return CreateArtifact }
func (p CreateAudioParams) route() route { return notebookRoute(p.NotebookID) }

func (p CreateAudioParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	selection, config := artifactSources(p.SourceIDs)
	options := []any{optionalString(p.Instructions), optionalCode(p.Length), nil, config, language(p.Language), nil, optionalCode(p.Format)}
	body := []any{nil, nil, int(domain.ArtifactTypeAudio), selection, nil, nil, []any{nil, options}}
	return createArtifact(p.NotebookID, body), nil
}

type CreateVideoParams struct {
	NotebookID   string
	SourceIDs    []string
	Language     string
	Instructions string
	Format       int
	Style        int
}

func (CreateVideoParams) Method() Method { return CreateArtifact }
func (p CreateVideoParams) route() route { return notebookRoute(p.NotebookID) }

func (p CreateVideoParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	selection, config := artifactSources(p.SourceIDs)
	options := []any{config, language(p.Language), optionalString(p.Instructions), nil, optionalCode(p.Format), optionalCode(p.Style)}
	body := []any{nil, nil, int(domain.ArtifactTypeVideo), selection, nil, nil, nil, nil, []any{nil, nil, options}}
	return createArtifact(p.NotebookID, body), nil
}

type ReportFormat string

const (
	ReportBriefingDoc ReportFormat = "briefing-doc"
	ReportStudyGuide  ReportFormat = "study-guide"
	ReportBlogPost    ReportFormat = "blog-post"
	ReportCustom      ReportFormat = "custom"
)

type reportPreset struct {
	title       string
	description string
	prompt      string
}

var reportPresets = map[ReportFormat]reportPreset{
	ReportBriefingDoc: {
		title:       "Briefing Doc",
		description: "Key insights and important quotes",
		prompt: "Create a comprehensive briefing document that includes an Executive Summary, " +
			"detailed analysis of key themes, important quotes with context, and actionable insights.",
	},
	ReportStudyGuide: {
		title:       "Study Guide",
		description: "Short-answer quiz, essay questions, glossary",
		prompt: "Create a comprehensive study guide that includes key concepts, short-answer practice " +
			"questions, essay prompts for deeper exploration, and a glossary of important terms.",
	},
	ReportBlogPost: {
		title:       "Blog Post",
		description: "Insightful takeaways in readable article format",
		prompt: "Write an engaging blog post that presents the key insights in an accessible, " +
			"reader-friendly format. Include an attention-grabbing introduction, well-organized " +
			"sections, and a compelling conclusion with takeaways.",
	},
	ReportCustom: {
		title:       "Custom Report",
		description: "Custom format",
		prompt:      "Create a report based on the provided sources.",
	},
}

type CreateReportParams struct {
	NotebookID   string
	SourceIDs    []string
	Language     string
	Format       ReportFormat
	CustomPrompt string
}

func (CreateReportParams) Method() Method { return CreateArtifact }
func (p CreateReportParams) route() route { return notebookRoute(p.NotebookID) }

func (p CreateReportParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	format := p.Format
	if format == "" {
		format = ReportBriefingDoc
	}
	preset, ok := reportPresets[format]
	if !ok {
		return nil, errors.New("unknown report format " + string(format))
	}
	if format == ReportCustom && p.CustomPrompt != "" {
		preset.prompt = p.CustomPrompt
	}

	selection, config := artifactSources(p.SourceIDs)
	options := []any{preset.title, preset.description, nil, config, language(p.Language), preset.prompt, nil, true}
	body := []any{nil, nil, int(domain.ArtifactTypeReport), selection, nil, nil, nil, []any{nil, options}}
	return createArtifact(p.NotebookID, body), nil
}

// CreateQuizParams covers quizzes and flashcards, which share a type code
// and differ by variant.
type CreateQuizParams struct {
	NotebookID   string
	SourceIDs    []string
	Instructions string
	Quantity     int
	Difficulty   int
	Flashcards   bool
}

func (CreateQuizParams) Method() Method { return CreateArtifact }
func (p CreateQuizParams) route() route { return notebookRoute(p.NotebookID) }

func (p CreateQuizParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	selection, _ := artifactSources(p.SourceIDs)

	var options []any
	if p.Flashcards {
		options = []any{1, nil, optionalString(p.Instructions), nil, nil, nil,
			[]any{optionalCode(p.Difficulty), optionalCode(p.Quantity)}}
	} else {
		options = []any{2, nil, optionalString(p.Instructions), nil, nil, nil, nil,
			[]any{optionalCode(p.Quantity), optionalCode(p.Difficulty)}}
	}
	body := []any{nil, nil, int(domain.ArtifactTypeQuiz), selection, nil, nil, nil, nil, nil, []any{nil, options}}
	return createArtifact(p.NotebookID, body), nil
}

type ListArtifactsParams struct {
	NotebookID string
}

func (ListArtifactsParams) Method() Method { return ListArtifacts }
func (p ListArtifactsParams) route() route { return notebookRoute(p.NotebookID) }

func (p ListArtifactsParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{flag2(), p.NotebookID, suggestedArtifactFilter}, nil
}

type DeleteArtifactParams struct {
	NotebookID string
	ArtifactID string
}

func (DeleteArtifactParams) Method() Method { return DeleteArtifact }
func (p DeleteArtifactParams) route() route { return notebookRoute(p.NotebookID) }

func (p DeleteArtifactParams) encode() ([]any, error) {
	if err := requireID("artifact id", p.ArtifactID); err != nil {
		return nil, err
	}
	return []any{flag2(), p.ArtifactID}, nil
}

type RenameArtifactParams struct {
	NotebookID string
	ArtifactID string
	Title      string
}

func (RenameArtifactParams) Method() Method { return RenameArtifact }
func (p RenameArtifactParams) route() route { return notebookRoute(p.NotebookID) }

func (p RenameArtifactParams) encode() ([]any, error) {
	if err := requireID("artifact id", p.ArtifactID); err != nil {
		return nil, err
	}
	return []any{[]any{p.ArtifactID, p.Title}, []any{[]any{"title"}}}, nil
}

// ExportType selects the export destination (1 docs, 2 sheets).
type ExportType int

const (
	ExportDocs   ExportType = 1
	ExportSheets ExportType = 2
)

type ExportArtifactParams struct {
	NotebookID string
	ArtifactID string
	Content    string
	Title      string
	Type       ExportType
}

func (ExportArtifactParams) Method() Method { return ExportArtifact }
func (p ExportArtifactParams) route() route { return notebookRoute(p.NotebookID) }

func (p ExportArtifactParams) encode() ([]any, error) {
	if err := requireID("artifact id", p.ArtifactID); err != nil {
		return nil, err
	}
	exportType := p.Type
	if exportType == 0 {
		exportType = ExportDocs
	}
	return []any{nil, p.ArtifactID, optionalString(p.Content), p.Title, int(exportType)}, nil
}

type ShareArtifactParams struct {
	NotebookID string
	ArtifactID string
	Public     bool
}

func (ShareArtifactParams) Method() Method { return ShareArtifact }
func (p ShareArtifactParams) route() route { return notebookRoute(p.NotebookID) }

func (p ShareArtifactParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	option := []any{0}
	if p.Public {
		option = []any{1}
	}
	if p.ArtifactID != "" {
		return []any{option, p.NotebookID, p.ArtifactID}, nil
	}
	return []any{option, p.NotebookID}, nil
}

type GetSuggestedReportsParams struct {
	NotebookID string
}

func (GetSuggestedReportsParams) Method() Method { return GetSuggestedReports }
func (p GetSuggestedReportsParams) route() route { return notebookRoute(p.NotebookID) }

func (p GetSuggestedReportsParams) encode() ([]any, error) {
	if err := requireID("notebook id", p.NotebookID); err != nil {
		return nil, err
	}
	return []any{flag2(), p.NotebookID}, nil
}

// GenerateMindMapParams runs the source action that produces a mind map.
type GenerateMindMapParams struct {
	NotebookID string
	SourceIDs  []string
}

func (GenerateMindMapParams) Method() Method { return ActOnSources }
func (p GenerateMindMapParams) route() route { return notebookRoute(p.NotebookID) }

func (p GenerateMindMapParams) encode() ([]any, error) {
	if len(p.SourceIDs) == 0 {
		return nil, errors.New("at least one source id is required")
	}
	sources := nestEach(ActOnSources, "source_ids", p.SourceIDs)
	return []any{sources, nil, nil, nil, nil, []any{"interactive_mindmap", []any{[]any{"[CONTEXT]", ""}}, ""},
		nil, []any{2, nil, []any{1}}}, nil
}
