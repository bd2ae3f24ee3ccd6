package tokencount

import (
	"path/filepath"
	"testing"
)

func TestLoadEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Load(""); err == nil {
		t.Fatalf("Load(\"\") succeeded, want error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if _, err := Load(path); err == nil {
		t.Fatalf("Load(%q) succeeded, want error", path)
	}
}
