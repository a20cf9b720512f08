package domain

import (
	"fmt"
	"strings"
	"time"
)

type Notebook struct {
	ID        string
	Title     string
	CreatedAt time.Time
	IsOwner   bool
	Sources   []SourceRef
}

type SourceRef struct {
	ID    string
	Title string
}

// ArtifactType is the numeric artifact family code used by the service.
type ArtifactType int

const (
	ArtifactTypeAudio       ArtifactType = 1
	ArtifactTypeReport      ArtifactType = 2
	ArtifactTypeVideo       ArtifactType = 3
	ArtifactTypeQuiz        ArtifactType = 4
	ArtifactTypeMindMap     ArtifactType = 5
	ArtifactTypeInfographic ArtifactType = 7
	ArtifactTypeSlideDeck   ArtifactType = 8
	ArtifactTypeDataTable   ArtifactType = 9
)

var artifactTypeNames = map[ArtifactType]string{
	ArtifactTypeAudio:       "audio",
	ArtifactTypeReport:      "report",
	ArtifactTypeVideo:       "video",
	ArtifactTypeQuiz:        "quiz",
	ArtifactTypeMindMap:     "mind-map",
	ArtifactTypeInfographic: "infographic",
	ArtifactTypeSlideDeck:   "slide-deck",
	ArtifactTypeDataTable:   "data-table",
}

func (t ArtifactType) String() string {
	if name, ok := artifactTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type-%d", int(t))
}

// IsMedia reports whether the artifact is only usable once a download URL
// has been published.
func (t ArtifactType) IsMedia() bool {
	switch t {
	case ArtifactTypeAudio, ArtifactTypeVideo, ArtifactTypeInfographic, ArtifactTypeSlideDeck:
		return true
	default:
		return false
	}
}

func ParseArtifactType(raw string) (ArtifactType, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for code, name := range artifactTypeNames {
		if name == needle {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown artifact type %q", raw)
}

// Artifact is one row of the studio listing.
type Artifact struct {
	ID         string
	Title      string
	Type       ArtifactType
	StatusCode int
	MediaURL   string
}

type ResearchSource struct {
	URL         string
	Title       string
	Description string
}

type ResearchReport struct {
	TaskID  string
	Query   string
	Summary string
	Sources []ResearchSource
}
