package rag

import (
	"sync"
	"sync/atomic"
	"time"
)

// OwnerShared is the reserved wildcard owner whose chunks are visible to every
// query regardless of the allowed-owner list.
const OwnerShared = "shared"

// SnippetMaxChars caps the snippet text carried by a Hit.
const SnippetMaxChars = 600

// Chunk is the atomic indexed unit: one bounded, overlapping slice of an
// ingested document plus its visibility metadata.
type Chunk struct {
	Owner      string `json:"owner"`
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// DocSummary aggregates live chunks by (owner, title).
type DocSummary struct {
	Title  string `json:"title"`
	Owner  string `json:"owner"`
	Chunks int    `json:"chunks"`
}

// Hit is one ranked retrieval match.
type Hit struct {
	Title      string  `json:"title"`
	Owner      string  `json:"owner"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Snippet    string  `json:"snippet"`
	Score      float32 `json:"score"`
}

// SessionStore holds one debate session's chunks and their similarity index.
// chunks[i] always describes index row i; every mutation keeps the two in
// lockstep under mu. lastUsed is atomic so the TTL sweeper can read it without
// ever waiting on the store mutex.
type SessionStore struct {
	mu       sync.Mutex
	index    *FlatIndex
	chunks   []Chunk
	dim      int
	lastUsed atomic.Int64
}

func newSessionStore(dim int) *SessionStore {
	s := &SessionStore{
		index: NewFlatIndex(dim),
		dim:   dim,
	}
	s.touch()
	return s
}

func (s *SessionStore) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *SessionStore) lastUsedAt() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Len reports the number of live chunks, which always equals the index row
// count.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}
