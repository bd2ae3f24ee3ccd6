package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// Glossary entry categories.
const (
	GlossaryPerson       = "person"
	GlossaryConcept      = "concept"
	GlossaryOrganization = "organization"
)

// GlossaryEntry is one recurring term with its cross-transcript tallies.
type GlossaryEntry struct {
	Term        string `json:"term"`
	Category    string `json:"category,omitempty"`
	Count       int    `json:"count"`
	FirstSeenIn string `json:"firstSeenIn,omitempty"`
	LastSeenIn  string `json:"lastSeenIn,omitempty"`
}

// Glossary accumulates the people, concepts, and organizations seen across
// processed transcripts. Meta carries run bookkeeping such as the last run
// id and time.
type Glossary struct {
	Version int               `json:"version"`
	Entries []GlossaryEntry   `json:"entries"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// GlossaryAddition is one term occurrence to fold into the glossary.
type GlossaryAddition struct {
	Term     string
	Category string
}

// GlossaryAdditionsFromKnowledge flattens the entities of a transcript's
// knowledge objects into glossary additions, one per mention.
func GlossaryAdditionsFromKnowledge(objects []KnowledgeObject) []GlossaryAddition {
	var adds []GlossaryAddition
	for _, ko := range objects {
		for _, p := range ko.Entities.People {
			adds = append(adds, GlossaryAddition{Term: p, Category: GlossaryPerson})
		}
		for _, c := range ko.Entities.Concepts {
			adds = append(adds, GlossaryAddition{Term: c, Category: GlossaryConcept})
		}
		for _, o := range ko.Entities.Organizations {
			adds = append(adds, GlossaryAddition{Term: o, Category: GlossaryOrganization})
		}
	}
	return adds
}

// LoadGlossary reads a glossary JSON file. A missing file yields an empty
// glossary rather than an error.
func LoadGlossary(path string) (Glossary, error) {
	if path == "" {
		return Glossary{}, errors.New("LoadGlossary: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Glossary{Version: 1, Entries: []GlossaryEntry{}}, nil
		}
		return Glossary{}, fmt.Errorf("LoadGlossary: read file: %w", err)
	}
	var g Glossary
	if err := json.Unmarshal(b, &g); err != nil {
		return Glossary{}, fmt.Errorf("LoadGlossary: unmarshal: %w", err)
	}
	if g.Version == 0 {
		g.Version = 1
	}
	if g.Entries == nil {
		g.Entries = []GlossaryEntry{}
	}
	return g, nil
}

// SaveGlossary writes the glossary JSON file atomically.
func SaveGlossary(path string, g Glossary) error {
	if path == "" {
		return errors.New("SaveGlossary: path is empty")
	}
	if err := fileutils.WriteJSONFileAtomic(path, g, true); err != nil {
		return fmt.Errorf("SaveGlossary: %w", err)
	}
	return nil
}

// MergeGlossary folds additions into the glossary, bumping counts and seen
// markers, and returns the normalized keys that were touched. seenIn names
// the transcript the additions came from.
func MergeGlossary(g *Glossary, additions []GlossaryAddition, seenIn string) []string {
	if g == nil {
		return nil
	}
	if g.Version == 0 {
		g.Version = 1
	}
	if g.Entries == nil {
		g.Entries = []GlossaryEntry{}
	}

	index := make(map[string]int, len(g.Entries))
	for i := range g.Entries {
		key := normalizeGlossaryKey(g.Entries[i].Term)
		if key != "" {
			index[key] = i
		}
	}

	touched := make(map[string]struct{}, len(additions))
	for _, a := range additions {
		key := normalizeGlossaryKey(a.Term)
		if key == "" {
			continue
		}
		touched[key] = struct{}{}

		if i, ok := index[key]; ok {
			e := &g.Entries[i]
			e.Count++
			if e.FirstSeenIn == "" {
				e.FirstSeenIn = seenIn
			}
			if seenIn != "" {
				e.LastSeenIn = seenIn
			}
			if e.Category == "" {
				e.Category = a.Category
			}
			continue
		}

		g.Entries = append(g.Entries, GlossaryEntry{
			Term:        strings.TrimSpace(a.Term),
			Category:    a.Category,
			Count:       1,
			FirstSeenIn: seenIn,
			LastSeenIn:  seenIn,
		})
		index[key] = len(g.Entries) - 1
	}

	// Keep stable ordering: highest count first, then term.
	sort.SliceStable(g.Entries, func(i, j int) bool {
		if g.Entries[i].Count != g.Entries[j].Count {
			return g.Entries[i].Count > g.Entries[j].Count
		}
		return strings.ToLower(g.Entries[i].Term) < strings.ToLower(g.Entries[j].Term)
	})

	terms := make([]string, 0, len(touched))
	for key := range touched {
		terms = append(terms, key)
	}
	sort.Strings(terms)
	return terms
}

// CullGlossary removes entries with Count < minCount.
func CullGlossary(g *Glossary, minCount int) {
	if g == nil || minCount <= 1 {
		return
	}
	out := g.Entries[:0]
	for _, e := range g.Entries {
		if e.Count >= minCount {
			out = append(out, e)
		}
	}
	g.Entries = out
}

func normalizeGlossaryKey(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	return strings.ToLower(term)
}
