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
)

const paragraphsFileSuffix = ".paragraphs.json"

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

	inputFiles, err := collectParagraphFiles(cfg.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(inputFiles) == 0 {
		fmt.Fprintf(os.Stderr, "no input %s files found\n", paragraphsFileSuffix)
		os.Exit(2)
	}

	rules, err := ingest.LoadRulesOrDefault(cfg.RulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed loading rules: %s\n", err.Error())
		os.Exit(1)
	}

	start := time.Now()
	var processed, skipped, totalObjects, totalQuotes int
	for i, inFile := range inputFiles {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(1)
		}

		objects, quotes, wasSkipped, err := extractTranscriptFile(cfg, rules, inFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed extracting %s: %s\n", inFile, err.Error())
			os.Exit(1)
		}
		if wasSkipped {
			skipped++
		} else {
			processed++
			totalObjects += objects
			totalQuotes += quotes
		}

		fmt.Fprintf(os.Stderr, "progress knowledge-extractor: %d/%d files extracted (last=%s objects=%d quotes=%d elapsed=%s)\n",
			i+1, len(inputFiles), filepath.Base(inFile), objects, quotes, time.Since(start).Round(time.Second))
	}

	fmt.Fprintf(os.Stdout, "files_processed=%d files_skipped=%d knowledge_objects=%d quotes=%d out_dir=%s\n",
		processed, skipped, totalObjects, totalQuotes, cfg.OutputDir)
}

// extractTranscriptFile turns one transcript's cleaned paragraphs into
// knowledge objects. An existing output is skipped unless -overwrite.
func extractTranscriptFile(cfg Config, rules *ingest.Rules, inFile string) (objectCount, quoteCount int, skipped bool, err error) {
	base := transcriptName(inFile)
	outPath := filepath.Join(cfg.OutputDir, base+".knowledge.json")
	if !cfg.Overwrite && fileutils.FileExists(outPath) {
		return 0, 0, true, nil
	}

	var paragraphs []ingest.CleanedParagraph
	if err := fileutils.ReadJSONFile(inFile, &paragraphs); err != nil {
		return 0, 0, false, fmt.Errorf("read paragraphs: %w", err)
	}

	thr := ingest.ImportanceThresholds{LongContentChars: cfg.LongContentChars}
	objects := ingest.BuildKnowledge(paragraphs, rules, thr)
	if objects == nil {
		objects = []ingest.KnowledgeObject{}
	}
	for _, ko := range objects {
		quoteCount += len(ko.Content.Quotes)
	}
	if err := fileutils.WriteJSONFileAtomic(outPath, objects, cfg.Pretty); err != nil {
		return 0, 0, false, fmt.Errorf("write knowledge: %w", err)
	}
	return len(objects), quoteCount, false, nil
}

func transcriptName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(paragraphsFileSuffix)]
}

func collectParagraphFiles(inputPath string) ([]string, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("stat -in: %w", err)
	}

	if !fi.IsDir() {
		if !strings.HasSuffix(strings.ToLower(inputPath), paragraphsFileSuffix) {
			return nil, fmt.Errorf("input file must be %s: %s", paragraphsFileSuffix, inputPath)
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
		if !strings.HasSuffix(strings.ToLower(name), paragraphsFileSuffix) {
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

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to a single .paragraphs.json file OR a directory containing them")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write knowledge JSON files into")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to a rules JSON file (built-in rules when empty)")
	fs.IntVar(&cfg.LongContentChars, "long-content-chars", cfg.LongContentChars, "Rune count above which content scores as long")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print output JSON files")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files instead of skipping them")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/knowledge-extractor -in out/transcripts -out out/transcripts")
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
