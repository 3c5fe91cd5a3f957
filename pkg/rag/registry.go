package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-debate-be/pkg/embedding"
	"ai-debate-be/pkg/extract"
)

const logModule = "RAG_STORE"

// Default session lifecycle: two idle hours before a store is swept, checked
// once a minute.
const (
	DefaultSessionTTL    = 2 * time.Hour
	DefaultSweepInterval = time.Minute
)

// Config controls chunking geometry and index dimensionality for every store
// owned by a Registry.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	EmbeddingDim int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.EmbeddingDim <= 0 {
		c.EmbeddingDim = 768
	}
	return c
}

// Registry owns every live SessionStore and their shared lifecycle: lazy
// creation on first use, explicit touch, and TTL-based eviction by the
// background sweeper. Operations on different sessions never block each other;
// the registry lock only guards the store map itself.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*SessionStore

	embedder embedding.Provider
	cfg      Config
	log      Logger

	// onEvict, when set, is called for each session detached by the sweeper,
	// outside of any lock.
	onEvict func(sessionID string)

	sweepOnce sync.Once
	stopOnce  sync.Once
	stopSweep chan struct{}
}

// NewRegistry creates an empty registry. The embedder is required; logger may
// be nil.
func NewRegistry(embedder embedding.Provider, cfg Config, log Logger) *Registry {
	if log == nil {
		log = NopLogger{}
	}
	return &Registry{
		stores:    make(map[string]*SessionStore),
		embedder:  embedder,
		cfg:       cfg.withDefaults(),
		log:       log,
		stopSweep: make(chan struct{}),
	}
}

// OnEvict registers a callback invoked with the session id of every store the
// sweeper detaches. Must be set before StartSweeper.
func (r *Registry) OnEvict(fn func(sessionID string)) {
	r.onEvict = fn
}

// GetOrCreate returns the session's store, creating it on first use. The
// read-path takes only the shared lock; creation re-checks under the write
// lock so concurrent first access cannot produce duplicate stores.
func (r *Registry) GetOrCreate(sessionID string) *SessionStore {
	r.mu.RLock()
	store := r.stores[sessionID]
	r.mu.RUnlock()
	if store != nil {
		return store
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if store = r.stores[sessionID]; store == nil {
		store = newSessionStore(r.cfg.EmbeddingDim)
		r.stores[sessionID] = store
		r.log.Info(logModule, "Created session store", map[string]interface{}{"session_id": sessionID})
	}
	return store
}

// Touch refreshes the session's last-used time. Unknown sessions are a no-op:
// touching must never create a store as a side effect.
func (r *Registry) Touch(sessionID string) {
	r.mu.RLock()
	store := r.stores[sessionID]
	r.mu.RUnlock()
	if store != nil {
		store.touch()
	}
}

// Sessions reports the number of live stores.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// AddDoc extracts, chunks, embeds and indexes one uploaded document. The whole
// mutation runs under the store lock, embedding call included, so the store is
// never observable with index rows and chunk metadata out of step. A document
// that yields no chunks reports Chunks: 0 without error; an embedding failure
// leaves the store untouched.
func (r *Registry) AddDoc(ctx context.Context, sessionID, owner, filename, title string, data []byte) (*DocSummary, error) {
	if title == "" {
		title = filename
	}

	store := r.GetOrCreate(sessionID)
	store.mu.Lock()
	defer store.mu.Unlock()
	defer store.touch()

	text := extract.Text(filename, data)
	chunks := ChunkText(text, r.cfg.ChunkSize, r.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return &DocSummary{Title: title, Owner: owner, Chunks: 0}, nil
	}

	vecs, err := r.embedder.Embed(ctx, chunks, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed document chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	if err := store.index.Add(vecs); err != nil {
		return nil, err
	}

	base := len(store.chunks)
	for i, c := range chunks {
		store.chunks = append(store.chunks, Chunk{
			Owner:      owner,
			Title:      title,
			Filename:   filename,
			ChunkIndex: base + i,
			Text:       c,
		})
	}

	r.log.Info(logModule, "Document ingested", map[string]interface{}{
		"session_id": sessionID,
		"owner":      owner,
		"title":      title,
		"chunks":     len(chunks),
	})
	return &DocSummary{Title: title, Owner: owner, Chunks: len(chunks)}, nil
}

// ListDocs aggregates the session's live chunks by (owner, title), in first
// ingested order.
func (r *Registry) ListDocs(sessionID string) []DocSummary {
	store := r.GetOrCreate(sessionID)
	store.mu.Lock()
	defer store.mu.Unlock()
	defer store.touch()

	type key struct{ owner, title string }
	positions := make(map[key]int)
	summaries := make([]DocSummary, 0)
	for _, c := range store.chunks {
		k := key{c.Owner, c.Title}
		pos, seen := positions[k]
		if !seen {
			positions[k] = len(summaries)
			summaries = append(summaries, DocSummary{Title: c.Title, Owner: c.Owner})
			pos = positions[k]
		}
		summaries[pos].Chunks++
	}
	return summaries
}

// DeleteAllForOwner removes every chunk owned by owner and rebuilds the index
// from the survivors in their original relative order. Stores are small and
// session-scoped, so the O(N) re-embed is acceptable. On embedding failure the
// store keeps its previous contents.
func (r *Registry) DeleteAllForOwner(ctx context.Context, sessionID, owner string) error {
	store := r.GetOrCreate(sessionID)
	store.mu.Lock()
	defer store.mu.Unlock()
	defer store.touch()

	keep := make([]Chunk, 0, len(store.chunks))
	for _, c := range store.chunks {
		if c.Owner != owner {
			keep = append(keep, c)
		}
	}
	if len(keep) == len(store.chunks) {
		return nil
	}

	if len(keep) == 0 {
		store.index = NewFlatIndex(store.dim)
		store.chunks = keep
		return nil
	}

	texts := make([]string, len(keep))
	for i, c := range keep {
		texts[i] = c.Text
	}
	vecs, err := r.embedder.Embed(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("re-embed remaining chunks: %w", err)
	}
	if len(vecs) != len(keep) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(keep))
	}

	rebuilt := NewFlatIndex(len(vecs[0]))
	if err := rebuilt.Add(vecs); err != nil {
		return err
	}
	store.index = rebuilt
	store.chunks = keep

	r.log.Info(logModule, "Owner documents deleted", map[string]interface{}{
		"session_id": sessionID,
		"owner":      owner,
		"remaining":  len(keep),
	})
	return nil
}

// Query embeds queryText and returns up to k hits visible to allowedOwners.
// Chunks owned by OwnerShared are always visible; an empty allowedOwners list
// disables owner filtering entirely. The index is over-fetched by 3x so
// post-filtering losses still leave k results when possible. An empty store
// yields an empty result, never an error.
func (r *Registry) Query(ctx context.Context, sessionID, queryText string, allowedOwners []string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 4
	}

	store := r.GetOrCreate(sessionID)
	store.mu.Lock()
	defer store.mu.Unlock()
	defer store.touch()

	if len(store.chunks) == 0 {
		return []Hit{}, nil
	}

	qvecs, err := r.embedder.Embed(ctx, []string{queryText}, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	allowed := make(map[string]bool, len(allowedOwners))
	for _, o := range allowedOwners {
		allowed[o] = true
	}

	candidates := store.index.Search(qvecs[0], min(3*k, len(store.chunks)))
	hits := make([]Hit, 0, k)
	for _, cand := range candidates {
		meta := store.chunks[cand.Row]
		if len(allowedOwners) > 0 && !allowed[meta.Owner] && meta.Owner != OwnerShared {
			continue
		}
		hits = append(hits, Hit{
			Title:      meta.Title,
			Owner:      meta.Owner,
			Filename:   meta.Filename,
			ChunkIndex: meta.ChunkIndex,
			Snippet:    truncateRunes(meta.Text, SnippetMaxChars),
			Score:      cand.Score,
		})
		if len(hits) >= k {
			break
		}
	}
	return hits, nil
}

// StartSweeper launches the background eviction loop. Only the first call
// starts it; later calls return the same stop function. Stopping is idempotent.
func (r *Registry) StartSweeper(ttl, interval time.Duration) (stop func()) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	r.sweepOnce.Do(func() {
		go r.sweepLoop(ttl, interval)
		r.log.Info(logModule, "Session sweeper started", map[string]interface{}{
			"ttl_secs":      ttl.Seconds(),
			"interval_secs": interval.Seconds(),
		})
	})
	return func() {
		r.stopOnce.Do(func() { close(r.stopSweep) })
	}
}

func (r *Registry) sweepLoop(ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopSweep:
			return
		case <-ticker.C:
			r.SweepExpired(time.Now().Add(-ttl))
		}
	}
}

// SweepExpired detaches every store idle since before cutoff. Holders of a
// detached store finish their in-flight work on it; the store just becomes
// unreachable for new lookups and is reclaimed once all holders release it.
// Only the registry lock is taken, never a per-store lock, so eviction cannot
// deadlock with an in-flight ingest or query. A panic inside one sweep is
// logged and the loop keeps its schedule.
func (r *Registry) SweepExpired(cutoff time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(logModule, "Session sweep failed", map[string]interface{}{"panic": fmt.Sprint(rec)})
		}
	}()

	var evicted []string
	r.mu.Lock()
	for id, store := range r.stores {
		if store.lastUsedAt().Before(cutoff) {
			delete(r.stores, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	for _, id := range evicted {
		r.log.Info(logModule, "Session store evicted", map[string]interface{}{"session_id": id})
		if r.onEvict != nil {
			r.onEvict(id)
		}
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
