// Package tokencount counts model tokens with a HuggingFace tokenizer so
// chunks can carry a token size next to their character size.
package tokencount

import (
	"fmt"
	"os"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Counter counts tokens using a tokenizer loaded from a tokenizer.json.
type Counter struct {
	tok *tokenizer.Tokenizer
}

// Load reads a HuggingFace tokenizer.json from path.
func Load(path string) (*Counter, error) {
	if path == "" {
		return nil, fmt.Errorf("Load: empty tokenizer path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("Load: stat tokenizer file: %w", err)
	}
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: parse tokenizer file %s: %w", path, err)
	}
	return &Counter{tok: tok}, nil
}

// Count returns the number of tokens the tokenizer produces for text.
func (c *Counter) Count(text string) (int, error) {
	encoding, err := c.tok.EncodeSingle(text)
	if err != nil {
		return 0, fmt.Errorf("Count: encode text: %w", err)
	}
	return len(encoding.GetIds()), nil
}
