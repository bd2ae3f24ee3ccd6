package main

import (
	"errors"
	"path/filepath"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
)

type Config struct {
	InputPath string
	OutputDir string
	GapMs     int
	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.GapMs <= 0 {
		return errors.New("gap-ms must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath: "",
		OutputDir: filepath.FromSlash("out/transcripts"),
		GapMs:     ingest.DefaultGapThresholdMs,
	}
}
