package main

import (
	"errors"
	"path/filepath"
)

type Config struct {
	OutputDir string
	Type      string
	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.Type == "" && c.OutputDir == "" {
		return errors.New("missing -out (or pass -type to print one schema)")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		OutputDir: filepath.FromSlash("out/schemas"),
		Type:      "",
	}
}
