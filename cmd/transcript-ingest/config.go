package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
)

type Config struct {
	InputPath        string
	OutputDir        string
	RulesPath        string
	GapMs            int
	MaxChars         int
	NoCorrections    bool
	TokenizerPath    string
	Concurrency      int
	Resume           bool
	Overwrite        bool
	Watch            bool
	Report           bool
	GlossaryMinCount int
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.GapMs <= 0 {
		return errors.New("-gap-ms must be > 0")
	}
	if c.MaxChars <= 0 {
		return errors.New("-max-chars must be > 0")
	}
	if c.Concurrency < 0 {
		return errors.New("-concurrency must be >= 0")
	}
	if c.GlossaryMinCount < 0 {
		return errors.New("-glossary-min-count must be >= 0")
	}
	return nil
}

// defaultConfig seeds the flag defaults from the environment, honoring a
// .env file in the working directory when one exists.
func defaultConfig() Config {
	godotenv.Load()
	return Config{
		InputPath:        os.Getenv("TRANSCRIPT_INGEST_IN"),
		OutputDir:        envOr("TRANSCRIPT_INGEST_OUT", filepath.FromSlash("out/ingest")),
		RulesPath:        os.Getenv("TRANSCRIPT_INGEST_RULES"),
		GapMs:            ingest.DefaultGapThresholdMs,
		MaxChars:         ingest.DefaultChunkMaxChars,
		Concurrency:      envIntOr("TRANSCRIPT_INGEST_CONCURRENCY", 4),
		Resume:           true,
		Report:           true,
		GlossaryMinCount: 1,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
