package ingest

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

func TestCollectQuotes(t *testing.T) {
	t.Parallel()

	objects := []KnowledgeObject{
		{
			ParagraphID:   1,
			Content:       KnowledgeContent{Quotes: []string{"人生は選択だ", "続けなさい"}},
			KnowledgeType: KnowledgeAdvice,
			Importance:    ImportanceHigh,
			StartTime:     "00:00:00,160",
			EndTime:       "00:00:07,240",
		},
		{
			ParagraphID:   2,
			Content:       KnowledgeContent{Quotes: []string{}},
			KnowledgeType: KnowledgeGeneral,
			Importance:    ImportanceLow,
		},
		{
			ParagraphID:   3,
			Content:       KnowledgeContent{Quotes: []string{"人生は選択だ"}},
			KnowledgeType: KnowledgeGeneral,
			Importance:    ImportanceMedium,
			StartTime:     "00:00:10,000",
			EndTime:       "00:00:12,000",
		},
	}

	records := CollectQuotes("talk_001", objects)
	if len(records) != 3 {
		t.Fatalf("len(records)=%d, want 3", len(records))
	}
	if records[0].Quote != "人生は選択だ" || records[1].Quote != "続けなさい" {
		t.Fatalf("records order wrong: %q, %q", records[0].Quote, records[1].Quote)
	}
	if records[0].ParagraphID != 1 || records[2].ParagraphID != 3 {
		t.Fatalf("ParagraphIDs=%d,%d, want 1,3", records[0].ParagraphID, records[2].ParagraphID)
	}
	if records[0].KnowledgeType != KnowledgeAdvice || records[0].Importance != ImportanceHigh {
		t.Fatalf("records[0]=%+v, want advice/high", records[0])
	}
	if records[0].TimestampRange.Start != "00:00:00,160" || records[0].TimestampRange.End != "00:00:07,240" {
		t.Fatalf("TimestampRange=%+v", records[0].TimestampRange)
	}
	// The same wording in another paragraph stays a separate row.
	if records[2].Quote != "人生は選択だ" {
		t.Fatalf("records[2].Quote=%q", records[2].Quote)
	}
}

func TestCollectQuotesEmpty(t *testing.T) {
	t.Parallel()

	if records := CollectQuotes("talk_001", nil); records != nil {
		t.Fatalf("CollectQuotes(nil)=%v, want nil", records)
	}
}

func TestRebuildQuoteIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	objects := []KnowledgeObject{
		{
			ParagraphID:   1,
			Content:       KnowledgeContent{Quotes: []string{"準備が全てです"}},
			KnowledgeType: KnowledgeAdvice,
			Importance:    ImportanceMedium,
			StartTime:     "00:00:00,000",
			EndTime:       "00:00:02,000",
		},
	}
	if err := fileutils.WriteJSONFileAtomic(filepath.Join(dir, "talk_001.knowledge.json"), objects, false); err != nil {
		t.Fatalf("write knowledge: %v", err)
	}
	if err := fileutils.WriteJSONFileAtomic(filepath.Join(dir, "talk_002.knowledge.json"), []KnowledgeObject{}, false); err != nil {
		t.Fatalf("write knowledge: %v", err)
	}

	indexPath := filepath.Join(dir, "quote_index.jsonl")
	n, err := RebuildQuoteIndex(dir, indexPath)
	if err != nil {
		t.Fatalf("RebuildQuoteIndex: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows=%d, want 1", n)
	}

	f, err := os.Open(indexPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer f.Close()

	var records []QuoteRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec QuoteRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("len(records)=%d, want 1", len(records))
	}
	if records[0].Transcript != "talk_001" {
		t.Fatalf("Transcript=%q, want talk_001", records[0].Transcript)
	}
	if records[0].Quote != "準備が全てです" {
		t.Fatalf("Quote=%q", records[0].Quote)
	}
}
