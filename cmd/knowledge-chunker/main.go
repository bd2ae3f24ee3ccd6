package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
	"github.com/vumichien/voice-chatbot-sub001/ingest/tokencount"
)

const (
	knowledgeFileSuffix = ".knowledge.json"
	chunkIndexFile      = "chunk_index.jsonl"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexPath := filepath.Join(cfg.OutputDir, chunkIndexFile)
	if cfg.Reindex {
		rows, err := ingest.RebuildChunkIndex(cfg.OutputDir, indexPath, ingest.DefaultIndexPreviewMaxChars)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed rebuilding chunk index: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "index_rows=%d index=%s\n", rows, indexPath)
		return
	}

	inputFiles, err := collectKnowledgeFiles(cfg.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(inputFiles) == 0 {
		fmt.Fprintf(os.Stderr, "no input %s files found\n", knowledgeFileSuffix)
		os.Exit(2)
	}

	var counter ingest.TokenCounter
	if cfg.TokenizerPath != "" {
		c, err := tokencount.Load(cfg.TokenizerPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed loading tokenizer: %s\n", err.Error())
			os.Exit(1)
		}
		counter = c
	}

	start := time.Now()
	var processed, skipped, totalChunks int
	for i, inFile := range inputFiles {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(1)
		}

		chunks, wasSkipped, err := chunkTranscriptFile(cfg, counter, inFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed chunking %s: %s\n", inFile, err.Error())
			os.Exit(1)
		}
		if wasSkipped {
			skipped++
		} else {
			processed++
			totalChunks += chunks
		}

		fmt.Fprintf(os.Stderr, "progress knowledge-chunker: %d/%d files chunked (last=%s chunks=%d elapsed=%s)\n",
			i+1, len(inputFiles), filepath.Base(inFile), chunks, time.Since(start).Round(time.Second))
	}

	// The index always covers every chunks file under -out, including ones
	// untouched by this run.
	rows, err := ingest.RebuildChunkIndex(cfg.OutputDir, indexPath, ingest.DefaultIndexPreviewMaxChars)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed rebuilding chunk index: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "files_processed=%d files_skipped=%d chunks=%d index_rows=%d out_dir=%s\n",
		processed, skipped, totalChunks, rows, cfg.OutputDir)
}

// chunkTranscriptFile groups one transcript's knowledge objects into chunks
// and writes both the combined chunks file and one file per chunk. An
// existing combined file is skipped unless -overwrite.
func chunkTranscriptFile(cfg Config, counter ingest.TokenCounter, inFile string) (chunkCount int, skipped bool, err error) {
	base := transcriptName(inFile)
	outPath := filepath.Join(cfg.OutputDir, base+".chunks.json")
	if !cfg.Overwrite && fileutils.FileExists(outPath) {
		return 0, true, nil
	}

	var objects []ingest.KnowledgeObject
	if err := fileutils.ReadJSONFile(inFile, &objects); err != nil {
		return 0, false, fmt.Errorf("read knowledge: %w", err)
	}

	chunks := ingest.BuildChunks(objects, ingest.ChunkOptions{MaxChars: cfg.MaxChars, Counter: counter})
	if chunks == nil {
		chunks = []ingest.Chunk{}
	}
	if err := fileutils.WriteJSONFileAtomic(outPath, chunks, cfg.Pretty); err != nil {
		return 0, false, fmt.Errorf("write chunks: %w", err)
	}
	chunkDir := filepath.Join(cfg.OutputDir, "chunks", base)
	if _, err := ingest.WriteChunkFiles(chunkDir, chunks, cfg.Pretty, cfg.Overwrite); err != nil {
		return 0, false, fmt.Errorf("write chunk files: %w", err)
	}
	return len(chunks), false, nil
}

func transcriptName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(knowledgeFileSuffix)]
}

func collectKnowledgeFiles(inputPath string) ([]string, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("stat -in: %w", err)
	}

	if !fi.IsDir() {
		if !strings.HasSuffix(strings.ToLower(inputPath), knowledgeFileSuffix) {
			return nil, fmt.Errorf("input file must be %s: %s", knowledgeFileSuffix, inputPath)
		}
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), knowledgeFileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("read dir entry info %s: %w", name, err)
		}
		if info.Mode()&fs.ModeType != 0 {
			continue
		}
		files = append(files, filepath.Join(inputPath, name))
	}
	sort.Strings(files)
	return files, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to a single .knowledge.json file OR a directory containing them")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write chunks and the chunk index into")
	fs.IntVar(&cfg.MaxChars, "max-chars", cfg.MaxChars, "Chunk text budget in runes")
	fs.StringVar(&cfg.TokenizerPath, "tokenizer", cfg.TokenizerPath, "Path to a HuggingFace tokenizer.json (token counts omitted when empty)")
	fs.BoolVar(&cfg.Reindex, "reindex", false, "Only rebuild chunk_index.jsonl from the chunks files under -out")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print output JSON files")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files instead of skipping them")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/knowledge-chunker -in out/transcripts -out out/transcripts -max-chars 1000")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.InputPath != "" {
		cfg.InputPath = filepath.Clean(cfg.InputPath)
	}
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
