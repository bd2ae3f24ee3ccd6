package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CleanOptions controls the cleaning pass. The zero value applies the full
// fixed sub-operation order, corrections included.
type CleanOptions struct {
	// SkipCorrections disables the transcription-error correction step;
	// width normalization, marker removal, and punctuation collapsing
	// always run.
	SkipCorrections bool
}

var spaceRunRe = regexp.MustCompile(` {2,}`)

// NormalizeWidths maps full-width ASCII letters and digits and the
// full-width space to their half-width equivalents. Everything else,
// full-width punctuation included, passes through untouched. Idempotent.
func NormalizeWidths(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return r - '０' + '0'
		case r >= 'Ａ' && r <= 'Ｚ':
			return r - 'Ａ' + 'A'
		case r >= 'ａ' && r <= 'ｚ':
			return r - 'ａ' + 'a'
		case r == '　':
			return ' '
		}
		return r
	}, s)
}

// CleanParagraphs runs the fixed cleaning order over each paragraph: width
// normalization, correction rules, non-verbal marker removal, punctuation
// collapsing. Paragraphs without text are skipped and counted, never an
// error; the batch always completes.
func CleanParagraphs(paragraphs []Paragraph, rules *Rules, opts CleanOptions) ([]CleanedParagraph, CleanStats) {
	if rules == nil {
		rules = DefaultRules()
	}
	c := rules.mustCompiled()

	var stats CleanStats
	out := make([]CleanedParagraph, 0, len(paragraphs))
	for _, p := range paragraphs {
		if strings.TrimSpace(p.FullText) == "" {
			stats.ParagraphsSkipped++
			continue
		}

		text := NormalizeWidths(p.FullText)
		var records []CorrectionRecord
		if !opts.SkipCorrections {
			text, records = applyCorrections(text, c)
		}
		text = removeMarkers(text, c)
		text = collapsePunctuation(text)
		text = strings.TrimSpace(text)

		stats.TotalCorrections += len(records)
		stats.ParagraphsProcessed++
		out = append(out, CleanedParagraph{
			ParagraphID:  p.ParagraphID,
			OriginalText: p.FullText,
			CleanedText:  text,
			StartTime:    p.StartTime,
			EndTime:      p.EndTime,
			SegmentIDs:   append([]int(nil), p.SegmentIDs...),
			Corrections:  records,
		})
	}
	return out, stats
}

// applyCorrections runs the ordered rules against the progressively
// corrected text. Each rule finds its matches in the text as left by the
// previous rule, so rule applications never overlap; positions are rune
// offsets into the text the rule actually saw.
func applyCorrections(text string, c *compiledRules) (string, []CorrectionRecord) {
	var records []CorrectionRecord
	for _, cr := range c.corrections {
		locs := cr.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		for _, loc := range locs {
			matched := text[loc[0]:loc[1]]
			records = append(records, CorrectionRecord{
				Original:  matched,
				Corrected: cr.re.ReplaceAllString(matched, cr.replacement),
				Position:  utf8.RuneCountInString(text[:loc[0]]),
			})
		}
		text = cr.re.ReplaceAllString(text, cr.replacement)
	}
	return text, records
}

// removeMarkers deletes bracketed non-verbal annotations, delimiters
// included, and collapses any doubled spaces the deletions leave behind.
func removeMarkers(text string, c *compiledRules) string {
	for _, re := range c.markers {
		text = re.ReplaceAllString(text, "")
	}
	return spaceRunRe.ReplaceAllString(text, " ")
}

func isCollapsible(r rune) bool {
	switch r {
	case '!', '！', '?', '？', '.', '。':
		return true
	}
	return false
}

// collapsePunctuation shortens homogeneous punctuation runs: two or more
// identical exclamation or question marks become one, three or more
// identical periods become an ellipsis. A run mixing different marks is
// left completely unchanged.
func collapsePunctuation(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(runes) {
		r := runes[i]
		if !isCollapsible(r) {
			b.WriteRune(r)
			i++
			continue
		}

		j := i
		mixed := false
		for j < len(runes) && isCollapsible(runes[j]) {
			if runes[j] != r {
				mixed = true
			}
			j++
		}
		run := runes[i:j]

		switch {
		case mixed:
			b.WriteString(string(run))
		case (r == '.' || r == '。') && len(run) >= 3:
			b.WriteRune('…')
		case (r == '!' || r == '！' || r == '?' || r == '？') && len(run) >= 2:
			b.WriteRune(r)
		default:
			b.WriteString(string(run))
		}
		i = j
	}
	return b.String()
}
