package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// reportTopEntities caps the entity tally in a transcript report.
const reportTopEntities = 10

// RenderTranscriptReport renders a human-readable markdown summary of one
// pipeline run.
func RenderTranscriptReport(result *TranscriptResult) []byte {
	name := strings.TrimSpace(result.Source)
	if name == "" {
		name = "transcript"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Transcript report: %s\n\n", escapeMarkdownInline(name))
	fmt.Fprintf(&b, "- segments: `%d`\n", result.Stats.TotalSegments)
	fmt.Fprintf(&b, "- total duration: `%s`\n", FormatTimestamp(result.Stats.TotalDurationMs))
	fmt.Fprintf(&b, "- sentences: `%d`\n", len(result.Sentences))
	fmt.Fprintf(&b, "- paragraphs: `%d`\n", len(result.Paragraphs))
	fmt.Fprintf(&b, "- corrections: `%d`\n", result.CleanStats.TotalCorrections)
	fmt.Fprintf(&b, "- knowledge objects: `%d`\n", len(result.Knowledge))
	fmt.Fprintf(&b, "- chunks: `%d`\n\n", len(result.Chunks))

	renderKnowledgeTally(&b, result.Knowledge)
	renderEntityTally(&b, result.Knowledge)
	renderQuoteList(&b, result.Knowledge)
	renderChunkList(&b, result.Chunks)

	b.WriteString("---\n")
	return []byte(b.String())
}

func renderKnowledgeTally(b *strings.Builder, objects []KnowledgeObject) {
	if len(objects) == 0 {
		return
	}
	typeCounts := map[string]int{}
	importanceCounts := map[string]int{}
	for _, ko := range objects {
		typeCounts[ko.KnowledgeType]++
		importanceCounts[ko.Importance]++
	}

	b.WriteString("## Knowledge\n\n")
	for _, kt := range []string{KnowledgeAdvice, KnowledgeBiographicalEvent, KnowledgeConceptDefinition, KnowledgeGeneral} {
		if n := typeCounts[kt]; n > 0 {
			fmt.Fprintf(b, "- %s: `%d`\n", kt, n)
		}
	}
	b.WriteString("\n")
	for _, imp := range []string{ImportanceHigh, ImportanceMedium, ImportanceLow} {
		if n := importanceCounts[imp]; n > 0 {
			fmt.Fprintf(b, "- importance %s: `%d`\n", imp, n)
		}
	}
	b.WriteString("\n")
}

func renderEntityTally(b *strings.Builder, objects []KnowledgeObject) {
	additions := GlossaryAdditionsFromKnowledge(objects)
	if len(additions) == 0 {
		return
	}
	var g Glossary
	MergeGlossary(&g, additions, "")

	b.WriteString("## Entities\n\n")
	for i, e := range g.Entries {
		if i >= reportTopEntities {
			break
		}
		fmt.Fprintf(b, "- %s (%s): `%d`\n", escapeMarkdownInline(e.Term), e.Category, e.Count)
	}
	b.WriteString("\n")
}

func renderQuoteList(b *strings.Builder, objects []KnowledgeObject) {
	total := 0
	for _, ko := range objects {
		total += len(ko.Content.Quotes)
	}
	if total == 0 {
		return
	}

	b.WriteString("## Quotes\n\n")
	for _, ko := range objects {
		for _, quote := range ko.Content.Quotes {
			fmt.Fprintf(b, "- 「%s」 (paragraph %d)\n", fileutils.FlattenNewlines(quote), ko.ParagraphID)
		}
	}
	b.WriteString("\n")
}

func renderChunkList(b *strings.Builder, chunks []Chunk) {
	if len(chunks) == 0 {
		return
	}

	b.WriteString("## Chunks\n\n")
	for _, chunk := range chunks {
		fmt.Fprintf(b, "### Chunk %03d\n\n", chunk.ChunkNumber)
		fmt.Fprintf(b, "- id: `%s`\n", chunk.ID)
		fmt.Fprintf(b, "- range: `%s` to `%s`\n", chunk.Metadata.TimestampRange.Start, chunk.Metadata.TimestampRange.End)
		if chunk.Metadata.Topic != "" {
			fmt.Fprintf(b, "- topic: %s\n", escapeMarkdownInline(chunk.Metadata.Topic))
		}
		fmt.Fprintf(b, "- chars: `%d`\n", chunk.CharCount)
		if chunk.TokenCount > 0 {
			fmt.Fprintf(b, "- tokens: `%d`\n", chunk.TokenCount)
		}
		fmt.Fprintf(b, "- knowledge objects: `%d`\n\n", len(chunk.Knowledge))
	}
}

// WriteTranscriptReport writes the rendered report to path.
func WriteTranscriptReport(path string, result *TranscriptResult, overwrite bool) error {
	if path == "" {
		return errors.New("WriteTranscriptReport: path is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("WriteTranscriptReport: file exists: %s", path)
		}
	}
	if err := fileutils.WriteFileAtomicSameDir(path, RenderTranscriptReport(result), 0o644); err != nil {
		return fmt.Errorf("WriteTranscriptReport: write report: %w", err)
	}
	return nil
}

func escapeMarkdownInline(s string) string {
	// Minimal: avoid accidental code fences/headers in titles.
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
