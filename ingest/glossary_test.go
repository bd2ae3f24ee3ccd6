package ingest

import (
	"path/filepath"
	"testing"
)

func TestMergeGlossary_AddsAndIncrements(t *testing.T) {
	t.Parallel()

	g := Glossary{
		Version: 1,
		Entries: []GlossaryEntry{
			{Term: "バイブル", Category: GlossaryConcept, Count: 2, FirstSeenIn: "talk_001", LastSeenIn: "talk_001"},
		},
	}

	terms := MergeGlossary(&g, []GlossaryAddition{
		{Term: "バイブル", Category: GlossaryConcept},
		{Term: "青木", Category: GlossaryPerson},
		{Term: "バイブル", Category: GlossaryConcept},
	}, "talk_002")

	if len(terms) != 2 {
		t.Fatalf("terms=%v, want 2 keys", terms)
	}

	var bible, aoki *GlossaryEntry
	for i := range g.Entries {
		switch g.Entries[i].Term {
		case "バイブル":
			bible = &g.Entries[i]
		case "青木":
			aoki = &g.Entries[i]
		}
	}
	if bible == nil || aoki == nil {
		t.Fatalf("entries=%v, want バイブル and 青木", g.Entries)
	}
	if bible.Count != 4 {
		t.Fatalf("バイブル.Count=%d, want 4", bible.Count)
	}
	if bible.FirstSeenIn != "talk_001" || bible.LastSeenIn != "talk_002" {
		t.Fatalf("バイブル seen in %q..%q, want talk_001..talk_002", bible.FirstSeenIn, bible.LastSeenIn)
	}
	if aoki.Count != 1 || aoki.Category != GlossaryPerson {
		t.Fatalf("青木=%+v, want count 1 category person", *aoki)
	}
	if aoki.FirstSeenIn != "talk_002" || aoki.LastSeenIn != "talk_002" {
		t.Fatalf("青木 seen in %q..%q, want talk_002 on both", aoki.FirstSeenIn, aoki.LastSeenIn)
	}
	if g.Entries[0].Term != "バイブル" {
		t.Fatalf("entries[0].Term=%q, want バイブル sorted first by count", g.Entries[0].Term)
	}
}

func TestMergeGlossary_SkipsBlankTerms(t *testing.T) {
	t.Parallel()

	g := Glossary{}
	terms := MergeGlossary(&g, []GlossaryAddition{{Term: "  "}, {Term: ""}}, "talk_001")
	if len(terms) != 0 {
		t.Fatalf("terms=%v, want none", terms)
	}
	if len(g.Entries) != 0 {
		t.Fatalf("entries=%v, want none", g.Entries)
	}
	if g.Version != 1 {
		t.Fatalf("Version=%d, want 1", g.Version)
	}
}

func TestGlossaryAdditionsFromKnowledge(t *testing.T) {
	t.Parallel()

	objects := []KnowledgeObject{
		{Entities: Entities{
			People:        []string{"青木"},
			Concepts:      []string{"バイブル", "メンター"},
			Organizations: []string{"アチーブメント"},
		}},
		{Entities: Entities{Concepts: []string{"バイブル"}}},
	}

	adds := GlossaryAdditionsFromKnowledge(objects)
	if len(adds) != 5 {
		t.Fatalf("len(adds)=%d, want 5", len(adds))
	}

	bibles := 0
	for _, a := range adds {
		if a.Term == "バイブル" {
			bibles++
			if a.Category != GlossaryConcept {
				t.Fatalf("バイブル category=%q, want %q", a.Category, GlossaryConcept)
			}
		}
	}
	if bibles != 2 {
		t.Fatalf("バイブル additions=%d, want 2", bibles)
	}
}

func TestLoadGlossary_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glossary.json")
	g, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}
	if g.Version != 1 {
		t.Fatalf("Version=%d, want 1", g.Version)
	}
	if len(g.Entries) != 0 {
		t.Fatalf("entries=%v, want none", g.Entries)
	}
}

func TestSaveAndLoadGlossary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "glossary.json")
	g := Glossary{
		Version: 1,
		Entries: []GlossaryEntry{
			{Term: "成功哲学", Category: GlossaryConcept, Count: 3, FirstSeenIn: "talk_001", LastSeenIn: "talk_004"},
		},
	}
	if err := SaveGlossary(path, g); err != nil {
		t.Fatalf("SaveGlossary: %v", err)
	}

	got, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("len(entries)=%d, want 1", len(got.Entries))
	}
	if got.Entries[0] != g.Entries[0] {
		t.Fatalf("entry=%+v, want %+v", got.Entries[0], g.Entries[0])
	}
}

func TestCullGlossary_RemovesInfrequent(t *testing.T) {
	t.Parallel()

	g := Glossary{
		Version: 1,
		Entries: []GlossaryEntry{
			{Term: "単発", Count: 1},
			{Term: "バイブル", Count: 2},
		},
	}
	CullGlossary(&g, 2)
	if len(g.Entries) != 1 || g.Entries[0].Term != "バイブル" {
		t.Fatalf("entries=%v, want only バイブル", g.Entries)
	}
}
