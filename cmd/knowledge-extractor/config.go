package main

import (
	"errors"
	"path/filepath"

	"github.com/vumichien/voice-chatbot-sub001/ingest"
)

type Config struct {
	InputPath        string
	OutputDir        string
	RulesPath        string
	LongContentChars int
	Pretty           bool
	Overwrite        bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.LongContentChars <= 0 {
		return errors.New("-long-content-chars must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:        "",
		OutputDir:        filepath.FromSlash("out/transcripts"),
		RulesPath:        "",
		LongContentChars: ingest.DefaultLongContentChars,
	}
}
