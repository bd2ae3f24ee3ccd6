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

// DefaultIndexPreviewMaxChars caps the text preview stored per index row.
const DefaultIndexPreviewMaxChars = 120

// chunksFileSuffix names the per-transcript chunk artifact.
const chunksFileSuffix = ".chunks.json"

// ChunkIndexRecord is one JSONL row describing a stored chunk, for lookup
// without opening the chunk files themselves.
type ChunkIndexRecord struct {
	ChunkID        string         `json:"chunkId"`
	Transcript     string         `json:"transcript"`
	ChunkNumber    int            `json:"chunkNumber"`
	Topic          string         `json:"topic,omitempty"`
	KnowledgeTypes []string       `json:"knowledgeTypes,omitempty"`
	QuoteCount     int            `json:"quoteCount"`
	CharCount      int            `json:"charCount"`
	TokenCount     int            `json:"tokenCount,omitempty"`
	TimestampRange TimestampRange `json:"timestampRange"`
	TextPreview    string         `json:"textPreview,omitempty"`
}

// BuildChunkIndexRecord creates a stable index row for a chunk. transcript
// is the source transcript's base name; previewMaxChars caps the preview
// (<= 0 keeps the full text).
func BuildChunkIndexRecord(transcript string, chunk Chunk, previewMaxChars int) ChunkIndexRecord {
	types := make([]string, 0, len(chunk.Knowledge))
	quotes := 0
	for _, ko := range chunk.Knowledge {
		types = append(types, ko.KnowledgeType)
		quotes += len(ko.Content.Quotes)
	}
	return ChunkIndexRecord{
		ChunkID:        chunk.ID,
		Transcript:     transcript,
		ChunkNumber:    chunk.ChunkNumber,
		Topic:          chunk.Metadata.Topic,
		KnowledgeTypes: dedupeStrings(types),
		QuoteCount:     quotes,
		CharCount:      chunk.CharCount,
		TokenCount:     chunk.TokenCount,
		TimestampRange: chunk.Metadata.TimestampRange,
		TextPreview:    fileutils.Truncate(chunk.Text, previewMaxChars),
	}
}

// WriteChunkIndex writes records as JSONL, replacing any existing index.
func WriteChunkIndex(path string, records []ChunkIndexRecord) error {
	if path == "" {
		return errors.New("WriteChunkIndex: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("WriteChunkIndex: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("WriteChunkIndex: open index: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("WriteChunkIndex: marshal: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("WriteChunkIndex: write: %w", err)
		}
	}
	return w.Flush()
}

// RebuildChunkIndex walks rootDir for *.chunks.json artifacts and rewrites
// the index from scratch. Returns the number of rows written.
func RebuildChunkIndex(rootDir, indexPath string, previewMaxChars int) (int, error) {
	var paths []string
	if err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), chunksFileSuffix) {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("RebuildChunkIndex: walk chunk files: %w", err)
	}
	sort.Strings(paths)

	var records []ChunkIndexRecord
	for _, p := range paths {
		var chunks []Chunk
		if err := fileutils.ReadJSONFile(p, &chunks); err != nil {
			return 0, fmt.Errorf("RebuildChunkIndex: %w", err)
		}
		base := filepath.Base(p)
		transcript := base[:len(base)-len(chunksFileSuffix)]
		for _, chunk := range chunks {
			records = append(records, BuildChunkIndexRecord(transcript, chunk, previewMaxChars))
		}
	}

	if err := WriteChunkIndex(indexPath, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
