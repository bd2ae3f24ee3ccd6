package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
)

func writeKnowledgeFixture(t *testing.T, path string) {
	t.Helper()
	objects := []ingest.KnowledgeObject{
		{
			ParagraphID:   1,
			Content:       ingest.KnowledgeContent{Main: "一つ目の話です。", Quotes: []string{}},
			Entities:      ingest.Entities{Concepts: []string{"バイブル"}},
			KnowledgeType: ingest.KnowledgeAdvice,
			Importance:    ingest.ImportanceMedium,
			StartTime:     "00:00:00,160",
			EndTime:       "00:00:03,879",
		},
		{
			ParagraphID:   2,
			Content:       ingest.KnowledgeContent{Main: "二つ目の話です。", Quotes: []string{}},
			KnowledgeType: ingest.KnowledgeGeneral,
			Importance:    ingest.ImportanceLow,
			StartTime:     "00:00:04,000",
			EndTime:       "00:00:05,500",
		},
	}
	data, err := json.Marshal(objects)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func readChunks(t *testing.T, path string) []ingest.Chunk {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []ingest.Chunk
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
	return out
}

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("knowledge-chunker", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-in", "out/transcripts",
		"-out", "out/chunked",
		"-max-chars", "500",
		"-tokenizer", "tokenizer.json",
		"-reindex",
		"-pretty",
		"-overwrite",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InputPath != filepath.Clean("out/transcripts") {
		t.Fatalf("InputPath=%q", cfg.InputPath)
	}
	if cfg.OutputDir != filepath.Clean("out/chunked") {
		t.Fatalf("OutputDir=%q", cfg.OutputDir)
	}
	if cfg.MaxChars != 500 {
		t.Fatalf("MaxChars=%d", cfg.MaxChars)
	}
	if cfg.TokenizerPath != "tokenizer.json" {
		t.Fatalf("TokenizerPath=%q", cfg.TokenizerPath)
	}
	if !cfg.Reindex || !cfg.Pretty || !cfg.Overwrite {
		t.Fatalf("Reindex=%v Pretty=%v Overwrite=%v", cfg.Reindex, cfg.Pretty, cfg.Overwrite)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("knowledge-chunker", flag.ContinueOnError)
	cfg, err := parseFlags(fs, nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.MaxChars != ingest.DefaultChunkMaxChars {
		t.Fatalf("MaxChars=%d, want %d", cfg.MaxChars, ingest.DefaultChunkMaxChars)
	}
	if cfg.TokenizerPath != "" {
		t.Fatalf("TokenizerPath=%q, want empty", cfg.TokenizerPath)
	}
	if cfg.Reindex || cfg.Pretty || cfg.Overwrite {
		t.Fatalf("Reindex=%v Pretty=%v Overwrite=%v, want false", cfg.Reindex, cfg.Pretty, cfg.Overwrite)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if err := (Config{OutputDir: "out", MaxChars: 1000}).Validate(); err == nil {
		t.Fatalf("expected error for missing -in")
	}
	if err := (Config{InputPath: "in", OutputDir: "out"}).Validate(); err == nil {
		t.Fatalf("expected error for zero max-chars")
	}
	if err := (Config{OutputDir: "out", Reindex: true}).Validate(); err != nil {
		t.Fatalf("reindex should not need -in: %v", err)
	}
	if err := (Config{InputPath: "in", OutputDir: "out", MaxChars: 1000}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestCollectKnowledgeFiles_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.knowledge.json", "a.knowledge.json", "a.chunks.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := collectKnowledgeFiles(dir)
	if err != nil {
		t.Fatalf("collectKnowledgeFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v, want 2 sorted knowledge files", files)
	}
	if filepath.Base(files[0]) != "a.knowledge.json" || filepath.Base(files[1]) != "b.knowledge.json" {
		t.Fatalf("files=%v, want [a.knowledge.json b.knowledge.json]", files)
	}
}

func TestChunkTranscriptFile_WritesAndSkips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inFile := filepath.Join(dir, "talk_001.knowledge.json")
	writeKnowledgeFixture(t, inFile)

	cfg := Config{InputPath: inFile, OutputDir: filepath.Join(dir, "out"), MaxChars: 1000}
	chunks, skipped, err := chunkTranscriptFile(cfg, nil, inFile)
	if err != nil {
		t.Fatalf("chunkTranscriptFile: %v", err)
	}
	if skipped {
		t.Fatalf("first run was skipped")
	}
	if chunks != 1 {
		t.Fatalf("chunks=%d, want 1", chunks)
	}

	out := readChunks(t, filepath.Join(cfg.OutputDir, "talk_001.chunks.json"))
	if len(out) != 1 {
		t.Fatalf("len(out)=%d, want 1", len(out))
	}
	if out[0].Text != "一つ目の話です。\n二つ目の話です。" {
		t.Fatalf("Text=%q", out[0].Text)
	}
	if out[0].Metadata.Topic != "バイブル" {
		t.Fatalf("Topic=%q", out[0].Metadata.Topic)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "chunks", "talk_001", "chunk_0001.json")); err != nil {
		t.Fatalf("missing per-chunk file: %v", err)
	}

	if _, skipped, err = chunkTranscriptFile(cfg, nil, inFile); err != nil || !skipped {
		t.Fatalf("second run skipped=%v err=%v, want skip", skipped, err)
	}

	cfg.Overwrite = true
	if _, skipped, err = chunkTranscriptFile(cfg, nil, inFile); err != nil || skipped {
		t.Fatalf("overwrite run skipped=%v err=%v, want rewrite", skipped, err)
	}
}

func TestChunkTranscriptFile_SplitsOnBudget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inFile := filepath.Join(dir, "talk_003.knowledge.json")
	writeKnowledgeFixture(t, inFile)

	cfg := Config{InputPath: inFile, OutputDir: filepath.Join(dir, "out"), MaxChars: 8}
	chunks, _, err := chunkTranscriptFile(cfg, nil, inFile)
	if err != nil {
		t.Fatalf("chunkTranscriptFile: %v", err)
	}
	if chunks != 2 {
		t.Fatalf("chunks=%d, want 2", chunks)
	}
	for _, name := range []string{"chunk_0001.json", "chunk_0002.json"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, "chunks", "talk_003", name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
