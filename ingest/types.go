package ingest

// Segment is one parsed subtitle cue. Immutable after parsing.
type Segment struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	StartMs   int    `json:"startMs"`
	EndMs     int    `json:"endMs"`

	// Duration is derived, never parsed: EndMs - StartMs, always >= 0.
	Duration int `json:"duration"`
}

// SegmentStats is a derived convenience view over a parsed transcript.
type SegmentStats struct {
	TotalSegments     int     `json:"totalSegments"`
	TotalDurationMs   int     `json:"totalDurationMs"`
	AverageDurationMs float64 `json:"averageDurationMs"`

	// TotalChars counts runes, not bytes.
	TotalChars int `json:"totalChars"`
}

// Sentence is a merged run of contiguous segments forming one utterance.
type Sentence struct {
	SegmentIDs []int  `json:"segmentIds"`
	Text       string `json:"text"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// Paragraph is the Cleaner's unit of work, one sentence with a stable id.
type Paragraph struct {
	ParagraphID int    `json:"paragraphId"`
	FullText    string `json:"fullText"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	SegmentIDs  []int  `json:"segmentIds,omitempty"`
}

// CorrectionRecord is one applied transcription fix.
type CorrectionRecord struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`

	// Position is the rune offset of the match in the text as it stood
	// when the rule fired, not in the original paragraph text.
	Position int `json:"position"`
}

// CleanedParagraph pairs the cleaned text with the untouched original for audit.
type CleanedParagraph struct {
	ParagraphID  int                `json:"paragraphId"`
	OriginalText string             `json:"originalText"`
	CleanedText  string             `json:"cleanedText"`
	StartTime    string             `json:"startTime"`
	EndTime      string             `json:"endTime"`
	SegmentIDs   []int              `json:"segmentIds,omitempty"`
	Corrections  []CorrectionRecord `json:"corrections,omitempty"`
}

// CleanStats summarizes one cleaning run.
type CleanStats struct {
	TotalCorrections    int `json:"totalCorrections"`
	ParagraphsProcessed int `json:"paragraphsProcessed"`
	ParagraphsSkipped   int `json:"paragraphsSkipped"`
}

// Entities holds the pattern-extracted entity sets, one slice per category.
// Every category is de-duplicated with insertion order preserved.
type Entities struct {
	People        []string `json:"people"`
	Concepts      []string `json:"concepts"`
	Organizations []string `json:"organizations"`
	Ages          []int    `json:"ages"`
	Numbers       []string `json:"numbers"`
}

// Total counts entities across all categories.
func (e Entities) Total() int {
	return len(e.People) + len(e.Concepts) + len(e.Organizations) + len(e.Ages) + len(e.Numbers)
}

// Knowledge type labels, first matching rule wins.
const (
	KnowledgeAdvice            = "advice"
	KnowledgeBiographicalEvent = "biographical_event"
	KnowledgeConceptDefinition = "concept_definition"
	KnowledgeGeneral           = "general"
)

// Importance bands.
const (
	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// KnowledgeContent is the textual payload of a knowledge object.
type KnowledgeContent struct {
	Main   string   `json:"main"`
	Quotes []string `json:"quotes"`
}

// KnowledgeObject is one classified, entity-annotated unit of extracted meaning.
type KnowledgeObject struct {
	ParagraphID   int              `json:"paragraphId"`
	Content       KnowledgeContent `json:"content"`
	Entities      Entities         `json:"entities"`
	KnowledgeType string           `json:"knowledgeType"`
	Importance    string           `json:"importance"`
	StartTime     string           `json:"startTime"`
	EndTime       string           `json:"endTime"`
	SegmentIDs    []int            `json:"segmentIds,omitempty"`
}

// TimestampRange spans formatted timestamps from first to last contributor.
type TimestampRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ChunkMetadata is the provenance handed to downstream retrieval.
type ChunkMetadata struct {
	TimestampRange TimestampRange `json:"timestampRange"`
	Topic          string         `json:"topic,omitempty"`
}

// Chunk is the terminal retrieval unit; ownership passes to the external
// embedding/storage collaborator.
type Chunk struct {
	ID          string `json:"id"`
	ChunkNumber int    `json:"chunkNumber"`
	Text        string `json:"text"`

	// CharCount counts runes of Text.
	CharCount int `json:"charCount"`

	// TokenCount is only set when a token counter was configured.
	TokenCount int `json:"tokenCount,omitempty"`

	Knowledge []KnowledgeObject `json:"knowledge"`
	Metadata  ChunkMetadata     `json:"metadata"`
}
