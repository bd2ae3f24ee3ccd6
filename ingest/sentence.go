package ingest

import (
	"strings"
	"unicode/utf8"
)

// DefaultGapThresholdMs is the silence gap beyond which two adjacent cues
// are treated as separate sentences.
const DefaultGapThresholdMs = 2000

// defaultSentenceEndMarks terminate a sentence when one appears at the tail
// of a segment's text.
var defaultSentenceEndMarks = []rune{'。', '！', '？', '.', '!', '?'}

// ReconstructOptions controls sentence reconstruction.
type ReconstructOptions struct {
	// GapThresholdMs is the silence gap in milliseconds that forces a
	// sentence boundary (defaults to DefaultGapThresholdMs).
	GapThresholdMs int

	// SentenceEndMarks overrides the default sentence-ending punctuation.
	SentenceEndMarks []rune
}

func (o ReconstructOptions) withDefaults() ReconstructOptions {
	if o.GapThresholdMs <= 0 {
		o.GapThresholdMs = DefaultGapThresholdMs
	}
	if len(o.SentenceEndMarks) == 0 {
		o.SentenceEndMarks = defaultSentenceEndMarks
	}
	return o
}

// ReconstructSentences merges cue fragments into complete sentences. The
// accumulator closes the open sentence before appending the next segment
// when the buffered tail already ends with a sentence mark, or when the
// silence gap to the next segment exceeds the threshold. Every input
// segment lands in exactly one sentence; order is preserved.
func ReconstructSentences(segments []Segment, opts ReconstructOptions) []Sentence {
	opts = opts.withDefaults()
	if len(segments) == 0 {
		return nil
	}

	sentences := make([]Sentence, 0, len(segments))
	var buf []Segment
	flush := func() {
		if len(buf) == 0 {
			return
		}
		sentences = append(sentences, sentenceFromSegments(buf))
		buf = nil
	}

	for _, seg := range segments {
		if len(buf) > 0 {
			last := buf[len(buf)-1]
			if endsWithSentenceMark(last.Text, opts.SentenceEndMarks) || seg.StartMs-last.EndMs > opts.GapThresholdMs {
				flush()
			}
		}
		buf = append(buf, seg)
	}
	flush()

	return sentences
}

func sentenceFromSegments(segs []Segment) Sentence {
	ids := make([]int, 0, len(segs))
	var text strings.Builder
	for _, seg := range segs {
		ids = append(ids, seg.ID)
		text.WriteString(seg.Text)
	}
	return Sentence{
		SegmentIDs: ids,
		Text:       text.String(),
		StartTime:  segs[0].StartTime,
		EndTime:    segs[len(segs)-1].EndTime,
	}
}

func endsWithSentenceMark(text string, marks []rune) bool {
	r, size := utf8.DecodeLastRuneInString(text)
	if size == 0 {
		return false
	}
	for _, m := range marks {
		if r == m {
			return true
		}
	}
	return false
}

// BuildParagraphs numbers sentences sequentially from 1 and reshapes them
// into the Cleaner's input records.
func BuildParagraphs(sentences []Sentence) []Paragraph {
	if len(sentences) == 0 {
		return nil
	}
	paragraphs := make([]Paragraph, 0, len(sentences))
	for i, s := range sentences {
		paragraphs = append(paragraphs, Paragraph{
			ParagraphID: i + 1,
			FullText:    s.Text,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			SegmentIDs:  append([]int(nil), s.SegmentIDs...),
		})
	}
	return paragraphs
}
