package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vumichien/voice-chatbot-sub001/ingest/fileutils"
)

// DefaultChunkMaxChars is the chunk text budget in runes.
const DefaultChunkMaxChars = 1000

// TokenCounter reports the model-token length of a text. Optional; chunks
// only carry token counts when one is configured.
type TokenCounter interface {
	Count(text string) (int, error)
}

// ChunkOptions controls chunk grouping.
type ChunkOptions struct {
	// MaxChars is the merged-text budget in runes (defaults to
	// DefaultChunkMaxChars).
	MaxChars int

	// Separator joins member texts and counts against the budget
	// (defaults to "\n").
	Separator string

	// Counter, when set, annotates each chunk with a token count.
	Counter TokenCounter
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultChunkMaxChars
	}
	if o.Separator == "" {
		o.Separator = "\n"
	}
	return o
}

// BuildChunks greedily packs consecutive knowledge objects into chunks
// within the character budget. Every object lands in exactly one chunk in
// source order; an object whose text alone exceeds the budget becomes its
// own oversized chunk rather than being truncated.
func BuildChunks(objects []KnowledgeObject, opts ChunkOptions) []Chunk {
	opts = opts.withDefaults()
	if len(objects) == 0 {
		return nil
	}

	sepLen := utf8.RuneCountInString(opts.Separator)
	var chunks []Chunk
	var members []KnowledgeObject
	memberLen := 0

	flush := func() {
		if len(members) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(members, opts))
		members = nil
		memberLen = 0
	}

	for _, ko := range objects {
		textLen := utf8.RuneCountInString(ko.Content.Main)
		if len(members) > 0 && memberLen+sepLen+textLen > opts.MaxChars {
			flush()
		}
		if len(members) > 0 {
			memberLen += sepLen
		}
		members = append(members, ko)
		memberLen += textLen
	}
	flush()

	for i := range chunks {
		chunks[i].ChunkNumber = i + 1
	}
	return chunks
}

func buildChunk(members []KnowledgeObject, opts ChunkOptions) Chunk {
	texts := make([]string, 0, len(members))
	for _, ko := range members {
		texts = append(texts, ko.Content.Main)
	}
	text := strings.Join(texts, opts.Separator)

	chunk := Chunk{
		ID:        uuid.New().String(),
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
		Knowledge: append([]KnowledgeObject(nil), members...),
		Metadata: ChunkMetadata{
			TimestampRange: TimestampRange{
				Start: members[0].StartTime,
				End:   members[len(members)-1].EndTime,
			},
			Topic: chunkTopic(members),
		},
	}
	if opts.Counter != nil {
		if n, err := opts.Counter.Count(text); err == nil {
			chunk.TokenCount = n
		}
	}
	return chunk
}

// WriteChunkFiles writes one JSON file per chunk under dir, named
// chunk_0001.json onward by chunk number. Returns the paths written; an
// existing file fails the write unless overwrite is set.
func WriteChunkFiles(dir string, chunks []Chunk, pretty, overwrite bool) ([]string, error) {
	if dir == "" {
		return nil, errors.New("WriteChunkFiles: dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("WriteChunkFiles: mkdir output dir: %w", err)
	}

	var written []string
	for _, chunk := range chunks {
		outPath := filepath.Join(dir, fmt.Sprintf("chunk_%04d.json", chunk.ChunkNumber))
		if !overwrite {
			if _, err := os.Stat(outPath); err == nil {
				return nil, fmt.Errorf("WriteChunkFiles: output file already exists: %s", outPath)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("WriteChunkFiles: stat output file: %w", err)
			}
		}
		if err := fileutils.WriteJSONFileAtomic(outPath, chunk, pretty); err != nil {
			return nil, fmt.Errorf("WriteChunkFiles: write chunk file: %w", err)
		}
		written = append(written, outPath)
	}
	return written, nil
}

// chunkTopic picks the most frequent concept across the chunk's members;
// ties go to the concept that appeared first.
func chunkTopic(members []KnowledgeObject) string {
	counts := map[string]int{}
	var order []string
	for _, ko := range members {
		for _, concept := range ko.Entities.Concepts {
			if counts[concept] == 0 {
				order = append(order, concept)
			}
			counts[concept]++
		}
	}

	topic := ""
	best := 0
	for _, concept := range order {
		if counts[concept] > best {
			topic = concept
			best = counts[concept]
		}
	}
	return topic
}
