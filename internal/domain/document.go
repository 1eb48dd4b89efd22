package domain

// Document is an in-memory unit of collected text. One source may expand
// into many documents when crawling; documents are never persisted.
type Document struct {
	Text   string
	Origin string
}

// Chunk is a bounded-length slice of document text, the unit of embedding.
// Chunks exist only within a single ingest run; ids are fresh each run.
type Chunk struct {
	ID       string
	Text     string
	Origin   string
	Metadata map[string]string
}

// EmbeddingPoint is a chunk paired with its vector, ready for the vector
// store. Payload carries tenant id, chunk text, origin and source metadata.
type EmbeddingPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}
