package main

import (
	"errors"
	"path/filepath"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
)

type Config struct {
	InputPath     string
	OutputDir     string
	MaxChars      int
	TokenizerPath string
	Reindex       bool
	Pretty        bool
	Overwrite     bool
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.Reindex {
		return nil
	}
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.MaxChars <= 0 {
		return errors.New("-max-chars must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:     "",
		OutputDir:     filepath.FromSlash("out/transcripts"),
		MaxChars:      ingest.DefaultChunkMaxChars,
		TokenizerPath: "",
	}
}
