package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

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

	if cfg.Type != "" {
		if err := printSchema(os.Stdout, cfg.Type, cfg.Pretty); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		return
	}

	written, skipped, err := writeSchemaFiles(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "schemas_written=%d schemas_skipped=%d out_dir=%s\n", written, skipped, cfg.OutputDir)
}

// printSchema writes one artifact schema as JSON to w.
func printSchema(w io.Writer, artifact string, pretty bool) error {
	schema, ok := ingest.ArtifactSchemas()[artifact]
	if !ok {
		return fmt.Errorf("unknown artifact type %q (known: %s)", artifact, strings.Join(ingest.ArtifactNames(), ", "))
	}

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(schema, "", "  ")
	} else {
		data, err = json.Marshal(schema)
	}
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeSchemaFiles writes every artifact schema into the output directory as
// <name>.schema.json. Existing files are skipped unless -overwrite.
func writeSchemaFiles(cfg Config) (written, skipped int, err error) {
	schemas := ingest.ArtifactSchemas()
	for _, name := range ingest.ArtifactNames() {
		path := filepath.Join(cfg.OutputDir, name+".schema.json")
		if !cfg.Overwrite && fileutils.FileExists(path) {
			skipped++
			continue
		}
		if err := fileutils.WriteJSONFileAtomic(path, schemas[name], cfg.Pretty); err != nil {
			return written, skipped, fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	return written, skipped, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write <artifact>.schema.json files into")
	fs.StringVar(&cfg.Type, "type", cfg.Type, "Print a single artifact schema to stdout instead of writing files")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print schema JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing schema files instead of skipping them")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/knowledge-schema -out out/schemas -pretty")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/knowledge-schema -type chunk -pretty")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.OutputDir != "" {
		cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	}
	return cfg, nil
}
