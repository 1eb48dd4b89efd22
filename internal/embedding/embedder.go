package embedding

import "context"

// Embedder turns a piece of text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
