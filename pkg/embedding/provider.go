package embedding

import "context"

// Task hints in Gemini's vocabulary. Ollama models ignore them, but the
// contract keeps document and query embeddings distinguishable for providers
// that care.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Provider maps a batch of texts to fixed-dimension unit-length vectors, one
// vector per input in the same order. Implementations must normalize their
// output: similarity search downstream relies on the inner product standing in
// for cosine similarity, so a non-normalized vector is a contract violation.
type Provider interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}
