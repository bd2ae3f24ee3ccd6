package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// knowledgeFileSuffix names the per-transcript knowledge artifact.
const knowledgeFileSuffix = ".knowledge.json"

// QuoteRecord is one JSONL row for a direct quotation, kept separately so
// quoted speech can be scanned without loading knowledge files.
type QuoteRecord struct {
	Transcript     string         `json:"transcript"`
	ParagraphID    int            `json:"paragraphId"`
	Quote          string         `json:"quote"`
	KnowledgeType  string         `json:"knowledgeType"`
	Importance     string         `json:"importance"`
	TimestampRange TimestampRange `json:"timestampRange"`
}

// CollectQuotes flattens the quotations of a transcript's knowledge objects
// into index rows, preserving paragraph order and repeats.
func CollectQuotes(transcript string, objects []KnowledgeObject) []QuoteRecord {
	var records []QuoteRecord
	for _, ko := range objects {
		for _, quote := range ko.Content.Quotes {
			records = append(records, QuoteRecord{
				Transcript:    transcript,
				ParagraphID:   ko.ParagraphID,
				Quote:         quote,
				KnowledgeType: ko.KnowledgeType,
				Importance:    ko.Importance,
				TimestampRange: TimestampRange{
					Start: ko.StartTime,
					End:   ko.EndTime,
				},
			})
		}
	}
	return records
}

// WriteQuoteIndex writes records as JSONL, replacing any existing index.
func WriteQuoteIndex(path string, records []QuoteRecord) error {
	if path == "" {
		return errors.New("WriteQuoteIndex: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("WriteQuoteIndex: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("WriteQuoteIndex: open index: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("WriteQuoteIndex: marshal: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("WriteQuoteIndex: write: %w", err)
		}
	}
	return w.Flush()
}

// RebuildQuoteIndex walks rootDir for *.knowledge.json artifacts and
// rewrites the quote index from scratch. Returns the number of rows written.
func RebuildQuoteIndex(rootDir, indexPath string) (int, error) {
	var paths []string
	if err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), knowledgeFileSuffix) {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("RebuildQuoteIndex: walk knowledge files: %w", err)
	}
	sort.Strings(paths)

	var records []QuoteRecord
	for _, p := range paths {
		var objects []KnowledgeObject
		if err := fileutils.ReadJSONFile(p, &objects); err != nil {
			return 0, fmt.Errorf("RebuildQuoteIndex: %w", err)
		}
		base := filepath.Base(p)
		transcript := base[:len(base)-len(knowledgeFileSuffix)]
		records = append(records, CollectQuotes(transcript, objects)...)
	}

	if err := WriteQuoteIndex(indexPath, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
