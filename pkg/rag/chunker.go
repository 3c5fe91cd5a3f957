package rag

import "strings"

// Default window geometry for document ingestion. 800 characters keeps a chunk
// well inside embedding-model context limits; 120 characters of overlap keeps
// sentences from being cut in half at chunk boundaries.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 120
)

// ChunkText splits text into overlapping windows of chunkSize characters.
// Whitespace runs are collapsed to single spaces first so chunk boundaries are
// stable regardless of the source formatting. Empty or whitespace-only pieces
// are dropped; text shorter than chunkSize yields a single chunk.
//
// The window advances by chunkSize-overlap each step. An overlap >= chunkSize
// would stall the window, so the step falls back to chunkSize in that case.
func ChunkText(text string, chunkSize, overlap int) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	total := len(runes)
	if total == 0 || chunkSize <= 0 {
		return nil
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < total; i += step {
		end := i + chunkSize
		if end > total {
			end = total
		}

		piece := string(runes[i:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}

		if end == total {
			break
		}
	}

	return chunks
}
