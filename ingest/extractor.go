package ingest

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultLongContentChars is the rune count above which content counts
// as long for importance scoring.
const DefaultLongContentChars = 100

// ImportanceThresholds configures the three-band importance scoring.
type ImportanceThresholds struct {
	// LongContentChars is the rune count above which content counts as
	// long (defaults to DefaultLongContentChars).
	LongContentChars int

	// HighQuotes and HighConcepts are the minimum quote/concept counts
	// for the high band (both default to 2).
	HighQuotes   int
	HighConcepts int
}

func (t ImportanceThresholds) withDefaults() ImportanceThresholds {
	if t.LongContentChars <= 0 {
		t.LongContentChars = DefaultLongContentChars
	}
	if t.HighQuotes <= 0 {
		t.HighQuotes = 2
	}
	if t.HighConcepts <= 0 {
		t.HighConcepts = 2
	}
	return t
}

// ExtractKnowledge turns one cleaned passage into a knowledge object. It
// never fails: empty text yields empty entity sets, no quotes, the general
// type, and the low band.
func ExtractKnowledge(text string, rules *Rules, thr ImportanceThresholds) KnowledgeObject {
	if rules == nil {
		rules = DefaultRules()
	}
	c := rules.mustCompiled()
	thr = thr.withDefaults()

	entities := extractEntities(text, rules, c)
	quotes := extractQuotes(text)

	return KnowledgeObject{
		Content:       KnowledgeContent{Main: text, Quotes: quotes},
		Entities:      entities,
		KnowledgeType: classifyKnowledgeType(text, rules, entities),
		Importance:    scoreImportance(text, quotes, entities, thr),
	}
}

// BuildKnowledge extracts one knowledge object per cleaned paragraph,
// carrying the paragraph's provenance through.
func BuildKnowledge(paragraphs []CleanedParagraph, rules *Rules, thr ImportanceThresholds) []KnowledgeObject {
	if len(paragraphs) == 0 {
		return nil
	}
	out := make([]KnowledgeObject, 0, len(paragraphs))
	for _, p := range paragraphs {
		ko := ExtractKnowledge(p.CleanedText, rules, thr)
		ko.ParagraphID = p.ParagraphID
		ko.StartTime = p.StartTime
		ko.EndTime = p.EndTime
		ko.SegmentIDs = append([]int(nil), p.SegmentIDs...)
		out = append(out, ko)
	}
	return out
}

func extractEntities(text string, rules *Rules, c *compiledRules) Entities {
	entities := Entities{
		People:        []string{},
		Concepts:      []string{},
		Organizations: []string{},
		Ages:          []int{},
		Numbers:       []string{},
	}
	if text == "" {
		return entities
	}

	if c.person != nil {
		seen := map[string]struct{}{}
		for _, m := range c.person.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			entities.People = append(entities.People, name)
		}
	}

	entities.Concepts = scanVocabulary(text, rules.Concepts)
	entities.Organizations = scanVocabulary(text, rules.Organizations)

	seenAges := map[int]struct{}{}
	for _, m := range c.age.FindAllStringSubmatch(text, -1) {
		age, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := seenAges[age]; ok {
			continue
		}
		seenAges[age] = struct{}{}
		entities.Ages = append(entities.Ages, age)
	}

	if c.amount != nil {
		seen := map[string]struct{}{}
		for _, m := range c.amount.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			entities.Numbers = append(entities.Numbers, m)
		}
	}

	return entities
}

// scanVocabulary collects the vocabulary terms contained in text, in rule
// order, each at most once.
func scanVocabulary(text string, vocabulary []string) []string {
	found := []string{}
	seen := map[string]struct{}{}
	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		if strings.Contains(text, term) {
			seen[term] = struct{}{}
			found = append(found, term)
		}
	}
	return found
}

// extractQuotes pulls 「...」 spans in order, delimiters stripped. An
// opener without a closer is ignored rather than reported as a partial
// match.
func extractQuotes(text string) []string {
	quotes := []string{}
	for {
		start := strings.Index(text, "「")
		if start < 0 {
			break
		}
		rest := text[start+len("「"):]
		end := strings.Index(rest, "」")
		if end < 0 {
			break
		}
		quotes = append(quotes, rest[:end])
		text = rest[end+len("」"):]
	}
	return quotes
}

// classifyKnowledgeType applies the fixed rule order: advice, then
// biographical event, then concept definition, then general. The first
// match wins; the order is what keeps classification deterministic.
func classifyKnowledgeType(text string, rules *Rules, entities Entities) string {
	if containsAny(text, rules.AdviceMarkers) {
		return KnowledgeAdvice
	}
	if len(entities.Ages) > 0 && containsAny(text, rules.ExperienceMarkers) {
		return KnowledgeBiographicalEvent
	}
	if containsAny(text, rules.DefinitionMarkers) {
		return KnowledgeConceptDefinition
	}
	return KnowledgeGeneral
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// scoreImportance buckets a passage into low/medium/high from content
// length, quote count, and entity count. More signal never lowers the band.
func scoreImportance(text string, quotes []string, entities Entities, thr ImportanceThresholds) string {
	long := utf8.RuneCountInString(text) > thr.LongContentChars
	switch {
	case long && (len(quotes) >= thr.HighQuotes || len(entities.Concepts) >= thr.HighConcepts):
		return ImportanceHigh
	case !long && len(quotes) == 0 && entities.Total() == 0:
		return ImportanceLow
	default:
		return ImportanceMedium
	}
}
