package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
	"github.com/vumichien/voice-chatbot-sub001/ingest/tokencount"
)

const knowledgeFileSuffix = ".knowledge.json"

type ingestTotals struct {
	processed   int64
	skipped     int64
	segments    int64
	knowledge   int64
	chunks      int64
	watchEvents int64
}

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

	rules, err := ingest.LoadRulesOrDefault(cfg.RulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed loading rules: %s\n", err.Error())
		os.Exit(1)
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

	pipe := &ingest.Pipeline{
		Rules: rules,
		Opts: ingest.Options{
			Reconstruct: ingest.ReconstructOptions{GapThresholdMs: cfg.GapMs},
			Clean:       ingest.CleanOptions{SkipCorrections: cfg.NoCorrections},
			Chunk:       ingest.ChunkOptions{MaxChars: cfg.MaxChars, Counter: counter},
		},
	}

	inputFiles, err := collectSubtitleFiles(cfg.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(inputFiles) == 0 && !cfg.Watch {
		fmt.Fprintln(os.Stderr, "no input .srt files found")
		os.Exit(2)
	}

	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, "transcripts"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed creating output dir: %s\n", err.Error())
		os.Exit(1)
	}

	start := time.Now()
	totals := &ingestTotals{}

	if err := runBatch(ctx, cfg, pipe, inputFiles, totals, start); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(1)
	}

	glossaryTerms, chunkRows, quoteRows, err := finalizeOutputs(cfg, rules)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if cfg.Watch {
		if err := watchAndIngest(ctx, cfg, pipe, rules, totals, start); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		glossaryTerms, chunkRows, quoteRows, err = finalizeOutputs(cfg, rules)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	if cfg.Watch {
		fmt.Fprintf(os.Stdout, "files_processed=%d files_skipped=%d segments=%d knowledge_objects=%d chunks=%d watch_events=%d glossary_terms=%d chunk_index_rows=%d quote_index_rows=%d out_dir=%s\n",
			totals.processed, totals.skipped, totals.segments, totals.knowledge, totals.chunks,
			totals.watchEvents, glossaryTerms, chunkRows, quoteRows, cfg.OutputDir)
	} else {
		fmt.Fprintf(os.Stdout, "files_processed=%d files_skipped=%d segments=%d knowledge_objects=%d chunks=%d glossary_terms=%d chunk_index_rows=%d quote_index_rows=%d out_dir=%s\n",
			totals.processed, totals.skipped, totals.segments, totals.knowledge, totals.chunks,
			glossaryTerms, chunkRows, quoteRows, cfg.OutputDir)
	}
}

// runBatch ingests the collected subtitle files with bounded concurrency.
func runBatch(ctx context.Context, cfg Config, pipe *ingest.Pipeline, files []string, totals *ingestTotals, start time.Time) error {
	if len(files) == 0 {
		return nil
	}
	total := len(files)
	var done int64
	return forEachFileConcurrent(ctx, cfg.Concurrency, files, func(ctx context.Context, inFile string) error {
		res, skipped, err := ingestTranscript(ctx, cfg, pipe, inFile, cfg.Overwrite)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", inFile, err)
		}
		n := atomic.AddInt64(&done, 1)
		if skipped {
			atomic.AddInt64(&totals.skipped, 1)
			fmt.Fprintf(os.Stderr, "progress transcript-ingest: %d/%d transcripts done (last=%s skipped elapsed=%s)\n",
				n, total, filepath.Base(inFile), time.Since(start).Round(time.Second))
			return nil
		}
		atomic.AddInt64(&totals.processed, 1)
		atomic.AddInt64(&totals.segments, int64(len(res.Segments)))
		atomic.AddInt64(&totals.knowledge, int64(len(res.Knowledge)))
		atomic.AddInt64(&totals.chunks, int64(len(res.Chunks)))
		fmt.Fprintf(os.Stderr, "progress transcript-ingest: %d/%d transcripts done (last=%s segments=%d chunks=%d elapsed=%s)\n",
			n, total, filepath.Base(inFile), len(res.Segments), len(res.Chunks), time.Since(start).Round(time.Second))
		return nil
	})
}

// ingestTranscript runs the full pipeline over one subtitle file and writes
// every stage artifact, the per-chunk files, and the report. An existing
// combined chunks file short-circuits: resumed runs skip the transcript,
// otherwise it is an error unless overwrite is set.
func ingestTranscript(ctx context.Context, cfg Config, pipe *ingest.Pipeline, inFile string, overwrite bool) (*ingest.TranscriptResult, bool, error) {
	base := transcriptName(inFile)
	transcriptsDir := filepath.Join(cfg.OutputDir, "transcripts")
	chunksPath := filepath.Join(transcriptsDir, base+".chunks.json")
	if fileutils.FileExists(chunksPath) && !overwrite {
		if cfg.Resume {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("transcript output exists: %s (pass -resume or -overwrite)", chunksPath)
	}

	res, err := pipe.Run(ctx, inFile)
	if err != nil {
		return nil, false, err
	}
	res.Source = base

	if res.Segments == nil {
		res.Segments = []ingest.Segment{}
	}
	if res.Sentences == nil {
		res.Sentences = []ingest.Sentence{}
	}
	if res.Cleaned == nil {
		res.Cleaned = []ingest.CleanedParagraph{}
	}
	if res.Knowledge == nil {
		res.Knowledge = []ingest.KnowledgeObject{}
	}
	if res.Chunks == nil {
		res.Chunks = []ingest.Chunk{}
	}

	stageFiles := []struct {
		name string
		v    interface{}
	}{
		{base + ".segments.json", res.Segments},
		{base + ".sentences.json", res.Sentences},
		{base + ".paragraphs.json", res.Cleaned},
		{base + ".knowledge.json", res.Knowledge},
	}
	for _, sf := range stageFiles {
		if err := fileutils.WriteJSONFileAtomic(filepath.Join(transcriptsDir, sf.name), sf.v, false); err != nil {
			return nil, false, fmt.Errorf("write %s: %w", sf.name, err)
		}
	}

	chunkDir := filepath.Join(cfg.OutputDir, "chunks", base)
	if _, err := ingest.WriteChunkFiles(chunkDir, res.Chunks, false, true); err != nil {
		return nil, false, fmt.Errorf("write chunk files: %w", err)
	}

	if cfg.Report {
		reportPath := filepath.Join(cfg.OutputDir, "reports", base+".md")
		if err := ingest.WriteTranscriptReport(reportPath, res, true); err != nil {
			return nil, false, fmt.Errorf("write report: %w", err)
		}
	}

	// The combined chunks file goes last; its presence marks the
	// transcript complete for resume.
	if err := fileutils.WriteJSONFileAtomic(chunksPath, res.Chunks, false); err != nil {
		return nil, false, fmt.Errorf("write chunks: %w", err)
	}
	return res, false, nil
}

// finalizeOutputs derives the cross-transcript outputs from whatever is on
// disk: the glossary, both indexes, and the rules snapshot. Rebuilding from
// the transcripts directory keeps counts correct across resumed and
// repeated runs.
func finalizeOutputs(cfg Config, rules *ingest.Rules) (glossaryTerms, chunkRows, quoteRows int, err error) {
	transcriptsDir := filepath.Join(cfg.OutputDir, "transcripts")

	glossaryTerms, err = rebuildGlossary(cfg, transcriptsDir)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rebuild glossary: %w", err)
	}
	chunkRows, err = ingest.RebuildChunkIndex(transcriptsDir, filepath.Join(cfg.OutputDir, "chunk_index.jsonl"), ingest.DefaultIndexPreviewMaxChars)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rebuild chunk index: %w", err)
	}
	quoteRows, err = ingest.RebuildQuoteIndex(transcriptsDir, filepath.Join(cfg.OutputDir, "quote_index.jsonl"))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rebuild quote index: %w", err)
	}
	if err := snapshotRules(cfg, rules); err != nil {
		return 0, 0, 0, fmt.Errorf("snapshot rules: %w", err)
	}
	return glossaryTerms, chunkRows, quoteRows, nil
}

// snapshotRules records the rules a run used next to its outputs: the
// user's file copied verbatim, or the built-in rules serialized.
func snapshotRules(cfg Config, rules *ingest.Rules) error {
	dst := filepath.Join(cfg.OutputDir, "rules.json")
	if cfg.RulesPath != "" {
		_, err := fileutils.CopyFileIfExists(cfg.RulesPath, dst, true)
		return err
	}
	return ingest.SaveRules(dst, rules)
}

// rebuildGlossary derives the glossary from every knowledge file under the
// transcripts directory, carrying the version forward from the previous
// glossary file and stamping the run into Meta.
func rebuildGlossary(cfg Config, transcriptsDir string) (int, error) {
	glossaryPath := filepath.Join(cfg.OutputDir, "glossary.json")

	version := 1
	if fileutils.FileExists(glossaryPath) {
		prev, err := ingest.LoadGlossary(glossaryPath)
		if err != nil {
			return 0, err
		}
		version = prev.Version + 1
	}

	var paths []string
	err := filepath.WalkDir(transcriptsDir, func(path string, d fs.DirEntry, err error) error {
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
	})
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)

	g := ingest.Glossary{Version: version, Entries: []ingest.GlossaryEntry{}}
	for _, p := range paths {
		var objects []ingest.KnowledgeObject
		if err := fileutils.ReadJSONFile(p, &objects); err != nil {
			return 0, err
		}
		base := filepath.Base(p)
		transcript := base[:len(base)-len(knowledgeFileSuffix)]
		ingest.MergeGlossary(&g, ingest.GlossaryAdditionsFromKnowledge(objects), transcript)
	}
	ingest.CullGlossary(&g, cfg.GlossaryMinCount)
	g.Meta = map[string]string{
		"lastRunId": uuid.New().String(),
		"lastRunAt": time.Now().UTC().Format(time.RFC3339),
	}
	if err := ingest.SaveGlossary(glossaryPath, g); err != nil {
		return 0, err
	}
	return len(g.Entries), nil
}

// watchAndIngest re-ingests subtitle files as they land in the input
// directory. Events are handled one at a time; each rewrite refreshes the
// glossary and indexes.
func watchAndIngest(ctx context.Context, cfg Config, pipe *ingest.Pipeline, rules *ingest.Rules, totals *ingestTotals, start time.Time) error {
	fi, err := os.Stat(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("stat -in: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("-watch needs a directory input: %s", cfg.InputPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.InputPath); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.InputPath, err)
	}
	fmt.Fprintf(os.Stderr, "watching %s for .srt files\n", cfg.InputPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".srt") {
				continue
			}

			res, _, err := ingestTranscript(ctx, cfg, pipe, event.Name, true)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				fmt.Fprintf(os.Stderr, "failed ingesting %s: %s\n", event.Name, err.Error())
				continue
			}
			atomic.AddInt64(&totals.watchEvents, 1)
			atomic.AddInt64(&totals.processed, 1)
			atomic.AddInt64(&totals.segments, int64(len(res.Segments)))
			atomic.AddInt64(&totals.knowledge, int64(len(res.Knowledge)))
			atomic.AddInt64(&totals.chunks, int64(len(res.Chunks)))

			if _, _, _, err := finalizeOutputs(cfg, rules); err != nil {
				fmt.Fprintf(os.Stderr, "failed refreshing indexes: %s\n", err.Error())
			}
			fmt.Fprintf(os.Stderr, "progress transcript-ingest: reingested %s (segments=%d chunks=%d elapsed=%s)\n",
				filepath.Base(event.Name), len(res.Segments), len(res.Chunks), time.Since(start).Round(time.Second))
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %s\n", werr.Error())
		}
	}
}

func forEachFileConcurrent(ctx context.Context, concurrency int, files []string, fn func(context.Context, string) error) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, concurrency)
	errCh := make(chan error, len(files))

	var wg sync.WaitGroup
	for _, inFile := range files {
		inFile := inFile
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if err := fn(ctx, inFile); err != nil {
				errCh <- err
				cancel()
				return
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return nil
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
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Root directory for transcripts, chunks, reports, and indexes")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to a rules JSON file (built-in rules when empty)")
	fs.IntVar(&cfg.GapMs, "gap-ms", cfg.GapMs, "Silence gap in milliseconds that forces a sentence break")
	fs.IntVar(&cfg.MaxChars, "max-chars", cfg.MaxChars, "Chunk text budget in runes")
	fs.BoolVar(&cfg.NoCorrections, "no-corrections", false, "Skip the transcription-error correction step")
	fs.StringVar(&cfg.TokenizerPath, "tokenizer", cfg.TokenizerPath, "Path to a HuggingFace tokenizer.json (token counts omitted when empty)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Number of transcripts ingested in parallel")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Skip transcripts whose chunks file already exists")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Reprocess transcripts even when outputs exist")
	fs.BoolVar(&cfg.Watch, "watch", false, "Keep running and reingest .srt files as they change in the input directory")
	fs.BoolVar(&cfg.Report, "report", cfg.Report, "Write a Markdown report per transcript")
	fs.IntVar(&cfg.GlossaryMinCount, "glossary-min-count", cfg.GlossaryMinCount, "Drop glossary terms seen fewer times than this")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/transcript-ingest -in data/talks -out out/ingest")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/transcript-ingest -in data/talks -out out/ingest -watch")
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
