package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// CorrectionRule is one ordered transcription fix: an RE2 pattern and its
// replacement text.
type CorrectionRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// Rules is the versioned configuration document driving the Cleaner and the
// Extractor: correction rules, non-verbal marker patterns, entity
// vocabularies, and classification marker lists. Rule order is meaningful
// everywhere; earlier entries win.
type Rules struct {
	Version int `json:"version"`

	Corrections    []CorrectionRule `json:"corrections"`
	MarkerPatterns []string         `json:"markerPatterns"`

	Honorifics    []string `json:"honorifics"`
	Concepts      []string `json:"concepts"`
	Organizations []string `json:"organizations"`

	AdviceMarkers     []string `json:"adviceMarkers"`
	ExperienceMarkers []string `json:"experienceMarkers"`
	DefinitionMarkers []string `json:"definitionMarkers"`

	MagnitudeTokens []string `json:"magnitudeTokens"`
	CurrencyTokens  []string `json:"currencyTokens"`

	compiled *compiledRules
}

type compiledRules struct {
	corrections []compiledCorrection
	markers     []*regexp.Regexp
	person      *regexp.Regexp
	age         *regexp.Regexp
	amount      *regexp.Regexp
}

type compiledCorrection struct {
	re          *regexp.Regexp
	replacement string
}

// DefaultRules returns the built-in version 1 rule set for Japanese
// self-improvement transcripts, compiled and ready to use.
func DefaultRules() *Rules {
	r := &Rules{
		Version: 1,
		Corrections: []CorrectionRule{
			{Pattern: "青木サ", Replacement: "青木さん"},
			{Pattern: "アチーブメソト", Replacement: "アチーブメント"},
		},
		MarkerPatterns: []string{
			`\[[^\]]*\]`,
			`【[^】]*】`,
			`（[^）]*）`,
		},
		Honorifics:        []string{"さん", "先生", "氏", "様", "君", "ちゃん"},
		Concepts:          []string{"バイブル", "メンター", "成功哲学", "目標設定", "自己投資", "価値観", "習慣", "選択理論"},
		Organizations:     []string{"アチーブメント", "ナポレオン・ヒル財団"},
		AdviceMarkers:     []string{"べき", "なければならない", "てはいけない", "ないでください", "ダメ", "しなさい", "ほうがいい", "必要があります"},
		ExperienceMarkers: []string{"出会", "始め", "入社", "卒業", "結婚", "生まれ", "経験", "学び"},
		DefinitionMarkers: []string{"とは", "というのは", "の定義", "を意味", "ということです"},
		MagnitudeTokens:   []string{"万", "億", "兆"},
		CurrencyTokens:    []string{"円", "ドル"},
	}
	if err := r.Compile(); err != nil {
		panic("ingest: default rules do not compile: " + err.Error())
	}
	return r
}

// Compile validates the rule document and builds its matchers. LoadRules
// and DefaultRules return compiled instances; hand-built Rules must call
// Compile before use.
func (r *Rules) Compile() error {
	c := &compiledRules{}

	for i, cr := range r.Corrections {
		if strings.TrimSpace(cr.Pattern) == "" {
			return fmt.Errorf("Compile: correction %d: empty pattern: %w", i, ErrValidation)
		}
		re, err := regexp.Compile(cr.Pattern)
		if err != nil {
			return fmt.Errorf("Compile: correction %d (%q): %v: %w", i, cr.Pattern, err, ErrValidation)
		}
		c.corrections = append(c.corrections, compiledCorrection{re: re, replacement: cr.Replacement})
	}

	for i, p := range r.MarkerPatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("Compile: marker pattern %d: empty pattern: %w", i, ErrValidation)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("Compile: marker pattern %d (%q): %v: %w", i, p, err, ErrValidation)
		}
		c.markers = append(c.markers, re)
	}

	if alts := quoteAlternatives(r.Honorifics); alts != "" {
		c.person = regexp.MustCompile(`([\p{Han}\p{Katakana}ー]{1,8})(?:` + alts + `)`)
	}
	c.age = regexp.MustCompile(`(\d+)歳`)

	mags := quoteAlternatives(r.MagnitudeTokens)
	curs := quoteAlternatives(r.CurrencyTokens)
	switch {
	case mags != "" && curs != "":
		c.amount = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:(?:` + mags + `)(?:` + curs + `)?|(?:` + curs + `))`)
	case mags != "":
		c.amount = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:` + mags + `)`)
	case curs != "":
		c.amount = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:` + curs + `)`)
	}

	r.compiled = c
	return nil
}

// mustCompiled lazily compiles hand-built rules. Invalid patterns are a
// programmer error on this path; user-supplied files go through LoadRules,
// which reports them as ErrValidation instead.
func (r *Rules) mustCompiled() *compiledRules {
	if r.compiled == nil {
		if err := r.Compile(); err != nil {
			panic("ingest: invalid rules: " + err.Error())
		}
	}
	return r.compiled
}

func quoteAlternatives(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	return strings.Join(quoted, "|")
}

// LoadRules reads and compiles a rules JSON file. A missing file is
// ErrNotFound; an unversioned or uncompilable document is ErrValidation.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, errors.New("LoadRules: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("LoadRules: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("LoadRules: read file: %w", err)
	}
	var r Rules
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("LoadRules: unmarshal: %w", err)
	}
	if r.Version < 1 {
		return nil, fmt.Errorf("LoadRules: %s: missing version: %w", path, ErrValidation)
	}
	if err := r.Compile(); err != nil {
		return nil, fmt.Errorf("LoadRules: %s: %w", path, err)
	}
	return &r, nil
}

// LoadRulesOrDefault loads path when given, otherwise the built-in rules.
func LoadRulesOrDefault(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	return LoadRules(path)
}

// SaveRules writes the rules JSON file atomically.
func SaveRules(path string, r *Rules) error {
	if path == "" {
		return errors.New("SaveRules: path is empty")
	}
	if r == nil {
		return errors.New("SaveRules: rules is nil")
	}
	if err := fileutils.WriteJSONFileAtomic(path, r, true); err != nil {
		return fmt.Errorf("SaveRules: %w", err)
	}
	return nil
}
