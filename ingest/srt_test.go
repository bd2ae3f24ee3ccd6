package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSubtitlesTwoCues(t *testing.T) {
	t.Parallel()

	in := "1\n00:00:00,160 --> 00:00:03,879\n本当に自分に責任がある\n\n2\n00:00:03,879 --> 00:00:07,240\n人間って変わらないんだよ"
	segs, err := ParseSubtitles(in)
	if err != nil {
		t.Fatalf("ParseSubtitles: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs)=%d, want 2", len(segs))
	}

	if segs[0].ID != 1 || segs[1].ID != 2 {
		t.Fatalf("ids=%d,%d, want 1,2", segs[0].ID, segs[1].ID)
	}
	if segs[0].Duration != 3719 {
		t.Fatalf("segs[0].Duration=%d, want 3719", segs[0].Duration)
	}
	if segs[1].Duration != 3361 {
		t.Fatalf("segs[1].Duration=%d, want 3361", segs[1].Duration)
	}
	if segs[0].Text != "本当に自分に責任がある" {
		t.Fatalf("segs[0].Text=%q", segs[0].Text)
	}
	if segs[0].StartTime != "00:00:00,160" || segs[0].EndTime != "00:00:03,879" {
		t.Fatalf("segs[0] times=%q..%q", segs[0].StartTime, segs[0].EndTime)
	}
	if segs[0].StartMs != 160 || segs[0].EndMs != 3879 {
		t.Fatalf("segs[0] ms=%d..%d", segs[0].StartMs, segs[0].EndMs)
	}
	if segs[1].StartMs != 3879 || segs[1].EndMs != 7240 {
		t.Fatalf("segs[1] ms=%d..%d", segs[1].StartMs, segs[1].EndMs)
	}
}

func TestParseSubtitlesJoinsMultilineBodies(t *testing.T) {
	t.Parallel()

	in := "1\n00:00:00,000 --> 00:00:02,000\n  人を \n 変えようとする  \n\n"
	segs, err := ParseSubtitles(in)
	if err != nil {
		t.Fatalf("ParseSubtitles: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("len(segs)=%d, want 1", len(segs))
	}
	if segs[0].Text != "人を 変えようとする" {
		t.Fatalf("Text=%q, want joined with single space", segs[0].Text)
	}
}

func TestParseSubtitlesCRLFAndBOM(t *testing.T) {
	t.Parallel()

	in := "\uFEFF1\r\n00:00:00,000 --> 00:00:01,000\r\nこんにちは\r\n\r\n2\r\n00:00:01,000 --> 00:00:02,500\r\nさようなら\r\n"
	segs, err := ParseSubtitles(in)
	if err != nil {
		t.Fatalf("ParseSubtitles: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs)=%d, want 2", len(segs))
	}
	if segs[0].Text != "こんにちは" || segs[1].Text != "さようなら" {
		t.Fatalf("texts=%q,%q", segs[0].Text, segs[1].Text)
	}
	if segs[1].Duration != 1500 {
		t.Fatalf("segs[1].Duration=%d, want 1500", segs[1].Duration)
	}
}

func TestParseSubtitlesEmptyInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "\n\n\n", "   \n  \n"} {
		segs, err := ParseSubtitles(in)
		if err != nil {
			t.Fatalf("ParseSubtitles(%q): %v", in, err)
		}
		if len(segs) != 0 {
			t.Fatalf("ParseSubtitles(%q) len=%d, want 0", in, len(segs))
		}
	}
}

func TestParseSubtitlesKeepsEmptyCueText(t *testing.T) {
	t.Parallel()

	in := "1\n00:00:00,000 --> 00:00:01,000\n\n2\n00:00:01,000 --> 00:00:02,000\n続き\n"
	segs, err := ParseSubtitles(in)
	if err != nil {
		t.Fatalf("ParseSubtitles: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs)=%d, want 2", len(segs))
	}
	if segs[0].Text != "" {
		t.Fatalf("segs[0].Text=%q, want empty", segs[0].Text)
	}
}

func TestParseSubtitlesMalformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
	}{
		{"non numeric id", "one\n00:00:00,000 --> 00:00:01,000\nテキスト\n"},
		{"zero id", "0\n00:00:00,000 --> 00:00:01,000\nテキスト\n"},
		{"decreasing id", "2\n00:00:00,000 --> 00:00:01,000\nあ\n\n1\n00:00:01,000 --> 00:00:02,000\nい\n"},
		{"missing timestamp line", "1"},
		{"no arrow", "1\n00:00:00,000 00:00:01,000\nテキスト\n"},
		{"bad start timestamp", "1\n0:00:00,000 --> 00:00:01,000\nテキスト\n"},
		{"bad end timestamp", "1\n00:00:00,000 --> 00:00:99,000\nテキスト\n"},
		{"negative duration", "1\n00:00:05,000 --> 00:00:01,000\nテキスト\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseSubtitles(tc.in); !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("err=%v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestParseSubtitleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "talk.srt")
	data := "1\n00:00:00,160 --> 00:00:03,879\n本当に自分に責任がある\n\n2\n00:00:03,879 --> 00:00:07,240\n人間って変わらないんだよ\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	segs, err := ParseSubtitleFile(path)
	if err != nil {
		t.Fatalf("ParseSubtitleFile: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs)=%d, want 2", len(segs))
	}
}

func TestParseSubtitleFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ParseSubtitleFile(filepath.Join(t.TempDir(), "nope.srt"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestComputeSegmentStats(t *testing.T) {
	t.Parallel()

	segs := []Segment{
		{ID: 1, Text: "あいう", Duration: 1000},
		{ID: 2, Text: "abcde", Duration: 2000},
	}
	stats := ComputeSegmentStats(segs)
	if stats.TotalSegments != 2 {
		t.Fatalf("TotalSegments=%d, want 2", stats.TotalSegments)
	}
	if stats.TotalDurationMs != 3000 {
		t.Fatalf("TotalDurationMs=%d, want 3000", stats.TotalDurationMs)
	}
	if stats.AverageDurationMs != 1500 {
		t.Fatalf("AverageDurationMs=%v, want 1500", stats.AverageDurationMs)
	}
	if stats.TotalChars != 8 {
		t.Fatalf("TotalChars=%d, want 8 runes", stats.TotalChars)
	}

	empty := ComputeSegmentStats(nil)
	if empty.TotalSegments != 0 || empty.AverageDurationMs != 0 {
		t.Fatalf("empty stats=%+v", empty)
	}
}
