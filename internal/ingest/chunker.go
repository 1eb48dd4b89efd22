package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/google/uuid"
)

// ChunkConfig controls chunk window sizing, in characters.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides the stock chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 1000, Overlap: 100}
}

// ResolveChunkConfig applies per-source metadata overrides to the defaults.
// Non-numeric overrides are ignored.
func ResolveChunkConfig(meta map[string]string, defaults ChunkConfig) ChunkConfig {
	return ChunkConfig{
		Size:    intFromMeta(meta, domain.MetaChunkSize, defaults.Size),
		Overlap: intFromMeta(meta, domain.MetaChunkOverlap, defaults.Overlap),
	}
}

// ChunkDocuments splits each document into overlapping windows of cfg.Size
// runes, advancing by Size-Overlap. Whitespace runs are collapsed to single
// spaces first; empty documents and empty windows are skipped. Every chunk
// gets a fresh random id and a copy of the source metadata.
//
// Overlap must be smaller than Size, otherwise the window cannot advance;
// that is reported as a configuration error rather than clamped away.
func ChunkDocuments(docs []domain.Document, meta map[string]string, cfg ChunkConfig) ([]domain.Chunk, error) {
	if cfg.Size <= 0 {
		cfg.Size = DefaultChunkConfig().Size
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		return nil, domain.NewDomainError(domain.ErrCodeChunking,
			fmt.Sprintf("chunk overlap %d must be smaller than chunk size %d", cfg.Overlap, cfg.Size))
	}
	step := cfg.Size - cfg.Overlap

	var chunks []domain.Chunk
	for _, doc := range docs {
		clean := strings.Join(strings.Fields(doc.Text), " ")
		if clean == "" {
			continue
		}

		runes := []rune(clean)
		for start := 0; ; start += step {
			end := start + cfg.Size
			if end > len(runes) {
				end = len(runes)
			}

			text := strings.TrimSpace(string(runes[start:end]))
			if text != "" {
				chunks = append(chunks, domain.Chunk{
					ID:       uuid.NewString(),
					Text:     text,
					Origin:   doc.Origin,
					Metadata: copyMetadata(meta),
				})
			}

			if end >= len(runes) {
				break
			}
		}
	}

	return chunks, nil
}

func copyMetadata(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func intFromMeta(meta map[string]string, key string, def int) int {
	raw, ok := meta[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
