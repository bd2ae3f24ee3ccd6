package ingest

import (
	"context"
	"fmt"
)

// Options bundles the per-stage knobs for a pipeline run. The zero value
// uses every stage's defaults.
type Options struct {
	Reconstruct ReconstructOptions
	Clean       CleanOptions
	Thresholds  ImportanceThresholds
	Chunk       ChunkOptions
}

// Pipeline runs the five stages over one transcript: parse, reconstruct,
// clean, extract, chunk. A nil Rules falls back to DefaultRules.
type Pipeline struct {
	Rules *Rules
	Opts  Options
}

// TranscriptResult carries every artifact produced for one transcript.
type TranscriptResult struct {
	Source     string             `json:"source,omitempty"`
	Segments   []Segment          `json:"segments"`
	Stats      SegmentStats       `json:"stats"`
	Sentences  []Sentence         `json:"sentences"`
	Paragraphs []Paragraph        `json:"paragraphs"`
	Cleaned    []CleanedParagraph `json:"cleaned"`
	CleanStats CleanStats         `json:"cleanStats"`
	Knowledge  []KnowledgeObject  `json:"knowledge"`
	Chunks     []Chunk            `json:"chunks"`
}

// Run parses the SRT file at path and feeds it through the stages.
func (p *Pipeline) Run(ctx context.Context, path string) (*TranscriptResult, error) {
	segments, err := ParseSubtitleFile(path)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	result, err := p.RunSegments(ctx, segments)
	if err != nil {
		return nil, err
	}
	result.Source = path
	return result, nil
}

// RunText feeds raw SRT content through the stages.
func (p *Pipeline) RunText(ctx context.Context, text string) (*TranscriptResult, error) {
	segments, err := ParseSubtitles(text)
	if err != nil {
		return nil, fmt.Errorf("RunText: %w", err)
	}
	return p.RunSegments(ctx, segments)
}

// RunSegments feeds already-parsed segments through the remaining stages.
// The context is checked between stages so long batches cancel promptly.
func (p *Pipeline) RunSegments(ctx context.Context, segments []Segment) (*TranscriptResult, error) {
	rules := p.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	result := &TranscriptResult{
		Segments: segments,
		Stats:    ComputeSegmentStats(segments),
	}

	if err := stageErr(ctx, "reconstruct"); err != nil {
		return nil, err
	}
	result.Sentences = ReconstructSentences(segments, p.Opts.Reconstruct)
	result.Paragraphs = BuildParagraphs(result.Sentences)

	if err := stageErr(ctx, "clean"); err != nil {
		return nil, err
	}
	result.Cleaned, result.CleanStats = CleanParagraphs(result.Paragraphs, rules, p.Opts.Clean)

	if err := stageErr(ctx, "extract"); err != nil {
		return nil, err
	}
	result.Knowledge = BuildKnowledge(result.Cleaned, rules, p.Opts.Thresholds)

	if err := stageErr(ctx, "chunk"); err != nil {
		return nil, err
	}
	result.Chunks = BuildChunks(result.Knowledge, p.Opts.Chunk)

	return result, nil
}

func stageErr(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline stage %s: %w", stage, err)
	}
	return nil
}
