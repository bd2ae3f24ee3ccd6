package ingest

import (
	"fmt"
	"regexp"
	"strconv"
)

// timestampRe accepts the SRT timestamp shape HH:MM:SS,mmm. Some encoders
// emit a dot before the milliseconds; both are accepted on input, the comma
// form is emitted on output.
var timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)

// ParseTimestamp converts HH:MM:SS,mmm to milliseconds.
func ParseTimestamp(s string) (int, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("ParseTimestamp: %q: %w", s, ErrMalformedInput)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	if mi >= 60 || sec >= 60 {
		return 0, fmt.Errorf("ParseTimestamp: %q: minutes and seconds must be < 60: %w", s, ErrMalformedInput)
	}
	return ((h*60+mi)*60+sec)*1000 + ms, nil
}

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm. Negative values
// clamp to zero. The conversion round-trips with ParseTimestamp exactly.
func FormatTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	ms -= h * 3600000
	mi := ms / 60000
	ms -= mi * 60000
	sec := ms / 1000
	ms -= sec * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, mi, sec, ms)
}
