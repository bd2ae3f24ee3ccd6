package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderTranscriptReport(t *testing.T) {
	t.Parallel()

	p := &Pipeline{}
	result, err := p.RunText(context.Background(), pipelineFixtureSRT)
	if err != nil {
		t.Fatalf("RunText: %v", err)
	}
	result.Source = "talk_001"

	report := string(RenderTranscriptReport(result))
	for _, want := range []string{
		"# Transcript report: talk_001",
		"- segments: `4`",
		"- total duration: `00:00:09,219`",
		"- paragraphs: `3`",
		"- corrections: `1`",
		"- advice: `1`",
		"- biographical_event: `1`",
		"- importance low: `1`",
		"- importance medium: `2`",
		"- バイブル (concept): `1`",
		"- 青木 (person): `1`",
		"### Chunk 001",
		"- topic: バイブル",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "## Quotes") {
		t.Fatalf("report has a Quotes section without quotes:\n%s", report)
	}
}

func TestRenderTranscriptReportQuotes(t *testing.T) {
	t.Parallel()

	result := &TranscriptResult{
		Knowledge: []KnowledgeObject{
			{
				ParagraphID:   2,
				Content:       KnowledgeContent{Quotes: []string{"人生は選択だ"}},
				KnowledgeType: KnowledgeAdvice,
				Importance:    ImportanceHigh,
			},
		},
	}

	report := string(RenderTranscriptReport(result))
	if !strings.Contains(report, "「人生は選択だ」 (paragraph 2)") {
		t.Fatalf("report missing quote line:\n%s", report)
	}
	if !strings.Contains(report, "# Transcript report: transcript") {
		t.Fatalf("report missing fallback title:\n%s", report)
	}
}

func TestWriteTranscriptReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "talk_001.md")
	result := &TranscriptResult{Source: "talk_001"}

	if err := WriteTranscriptReport(path, result, false); err != nil {
		t.Fatalf("WriteTranscriptReport: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "# Transcript report: talk_001") {
		t.Fatalf("report content wrong:\n%s", string(b))
	}

	if err := WriteTranscriptReport(path, result, false); err == nil {
		t.Fatalf("WriteTranscriptReport overwrote an existing file")
	}
	if err := WriteTranscriptReport(path, result, true); err != nil {
		t.Fatalf("WriteTranscriptReport overwrite: %v", err)
	}
}
