package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// ParseSubtitleFile reads an SRT file and parses it into segments. This is
// the pipeline's only I/O entry point; every later stage is pure.
func ParseSubtitleFile(path string) ([]Segment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ParseSubtitleFile: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("ParseSubtitleFile: read %s: %w", path, err)
	}
	segs, err := ParseSubtitles(string(b))
	if err != nil {
		return nil, fmt.Errorf("ParseSubtitleFile: %s: %w", path, err)
	}
	return segs, nil
}

// ParseSubtitles parses SRT text into an ordered segment list. A cue is an
// integer id line, a timestamp arrow line, one or more text lines (joined
// with a single space), and a blank separator line. Parse errors are fatal
// for the whole transcript; a silently dropped cue would corrupt sentence
// reconstruction downstream.
func ParseSubtitles(text string) ([]Segment, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("ParseSubtitles: invalid UTF-8 input: %w", ErrMalformedInput)
	}
	text = strings.TrimPrefix(text, "\uFEFF")
	lines := strings.Split(fileutils.NormalizeNewlines(text), "\n")

	var segments []Segment
	lastID := 0
	i := 0
	for i < len(lines) {
		idLine := strings.TrimSpace(lines[i])
		if idLine == "" {
			i++
			continue
		}

		id, err := strconv.Atoi(idLine)
		if err != nil {
			return nil, fmt.Errorf("ParseSubtitles: line %d: cue id %q is not numeric: %w", i+1, idLine, ErrMalformedInput)
		}
		if id <= 0 {
			return nil, fmt.Errorf("ParseSubtitles: line %d: cue id %d must be positive: %w", i+1, id, ErrMalformedInput)
		}
		if id <= lastID {
			return nil, fmt.Errorf("ParseSubtitles: line %d: cue id %d not increasing after %d: %w", i+1, id, lastID, ErrMalformedInput)
		}
		i++

		if i >= len(lines) {
			return nil, fmt.Errorf("ParseSubtitles: cue %d: missing timestamp line: %w", id, ErrMalformedInput)
		}
		startMs, endMs, err := parseArrowLine(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("ParseSubtitles: cue %d: %w", id, err)
		}
		if endMs < startMs {
			return nil, fmt.Errorf("ParseSubtitles: cue %d: negative duration (%dms to %dms): %w", id, startMs, endMs, ErrMalformedInput)
		}
		i++

		var parts []string
		for i < len(lines) {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				break
			}
			parts = append(parts, line)
			i++
		}

		segments = append(segments, Segment{
			ID:        id,
			Text:      strings.Join(parts, " "),
			StartTime: FormatTimestamp(startMs),
			EndTime:   FormatTimestamp(endMs),
			StartMs:   startMs,
			EndMs:     endMs,
			Duration:  endMs - startMs,
		})
		lastID = id
	}
	return segments, nil
}

// parseArrowLine splits "HH:MM:SS,mmm --> HH:MM:SS,mmm" into millisecond
// start and end values.
func parseArrowLine(line string) (int, int, error) {
	left, right, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("invalid timestamp line %q: %w", line, ErrMalformedInput)
	}
	startMs, err := ParseTimestamp(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("start timestamp: %w", err)
	}
	endMs, err := ParseTimestamp(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("end timestamp: %w", err)
	}
	return startMs, endMs, nil
}

// ComputeSegmentStats derives the aggregate view over a parsed transcript.
// Character counts are runes, not bytes, so CJK text counts as read.
func ComputeSegmentStats(segments []Segment) SegmentStats {
	stats := SegmentStats{TotalSegments: len(segments)}
	for _, seg := range segments {
		stats.TotalDurationMs += seg.Duration
		stats.TotalChars += utf8.RuneCountInString(seg.Text)
	}
	if stats.TotalSegments > 0 {
		stats.AverageDurationMs = float64(stats.TotalDurationMs) / float64(stats.TotalSegments)
	}
	return stats
}
