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

	inputFiles, err := collectSubtitleFiles(cfg.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(os.Stderr, "no input .srt files found")
		os.Exit(2)
	}

	start := time.Now()
	var processed, skipped, totalSegments, totalSentences int
	for i, inFile := range inputFiles {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(1)
		}

		segments, sentences, wasSkipped, err := splitSubtitleFile(cfg, inFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed splitting %s: %s\n", inFile, err.Error())
			os.Exit(1)
		}
		if wasSkipped {
			skipped++
		} else {
			processed++
			totalSegments += segments
			totalSentences += sentences
		}

		fmt.Fprintf(os.Stderr, "progress subtitle-splitter: %d/%d files split (last=%s segments=%d sentences=%d elapsed=%s)\n",
			i+1, len(inputFiles), filepath.Base(inFile), segments, sentences, time.Since(start).Round(time.Second))
	}

	fmt.Fprintf(os.Stdout, "files_processed=%d files_skipped=%d segments=%d sentences=%d out_dir=%s\n",
		processed, skipped, totalSegments, totalSentences, cfg.OutputDir)
}

// splitSubtitleFile parses one SRT file and writes its segments and
// reconstructed sentences. Existing outputs are skipped unless -overwrite.
func splitSubtitleFile(cfg Config, inFile string) (segmentCount, sentenceCount int, skipped bool, err error) {
	base := transcriptName(inFile)
	segPath := filepath.Join(cfg.OutputDir, base+".segments.json")
	sentPath := filepath.Join(cfg.OutputDir, base+".sentences.json")
	if !cfg.Overwrite && fileutils.FileExists(segPath) && fileutils.FileExists(sentPath) {
		return 0, 0, true, nil
	}

	segments, err := ingest.ParseSubtitleFile(inFile)
	if err != nil {
		return 0, 0, false, err
	}
	sentences := ingest.ReconstructSentences(segments, ingest.ReconstructOptions{GapThresholdMs: cfg.GapMs})

	if segments == nil {
		segments = []ingest.Segment{}
	}
	if sentences == nil {
		sentences = []ingest.Sentence{}
	}
	if err := fileutils.WriteJSONFileAtomic(segPath, segments, cfg.Pretty); err != nil {
		return 0, 0, false, fmt.Errorf("write segments: %w", err)
	}
	if err := fileutils.WriteJSONFileAtomic(sentPath, sentences, cfg.Pretty); err != nil {
		return 0, 0, false, fmt.Errorf("write sentences: %w", err)
	}
	return len(segments), len(sentences), false, nil
}

func transcriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func collectSubtitleFiles(inputPath string) ([]string, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("stat -in: %w", err)
	}

	if !fi.IsDir() {
		if strings.ToLower(filepath.Ext(inputPath)) != ".srt" {
			return nil, fmt.Errorf("input file must be .srt: %s", inputPath)
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
		if strings.ToLower(filepath.Ext(name)) != ".srt" {
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

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to a single .srt file OR a directory containing .srt files")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write segments/sentences JSON files into")
	fs.IntVar(&cfg.GapMs, "gap-ms", cfg.GapMs, "Silence gap in milliseconds that forces a sentence break")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print output JSON files")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files instead of skipping them")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/subtitle-splitter -in data/talks -out out/transcripts -pretty")
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
