package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeEmbedder maps keyword-bearing texts onto fixed unit axes so tests can
// predict similarity rankings exactly.
type fakeEmbedder struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, _ string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, errors.New("embedder down")
	}

	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = keywordVector(t)
	}
	return vecs, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func keywordVector(text string) []float32 {
	switch {
	case strings.Contains(text, "alpha"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "beta"):
		return []float32{0, 1, 0}
	case strings.Contains(text, "gamma"):
		return []float32{0, 0, 1}
	default:
		return []float32{0.577, 0.577, 0.577}
	}
}

func newTestRegistry(embedder *fakeEmbedder) *Registry {
	return NewRegistry(embedder, Config{
		ChunkSize:    100,
		ChunkOverlap: 20,
		EmbeddingDim: 3,
	}, nil)
}

func TestAddDocAndListDocs(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)
	ctx := context.Background()

	res, err := r.AddDoc(ctx, "s1", "alice", "notes.txt", "Alice Notes", []byte("alpha facts"))
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, "alice", res.Owner)

	_, err = r.AddDoc(ctx, "s1", "shared", "brief.txt", "Debate Brief", []byte("gamma background"))
	assert.NoError(t, err)

	docs := r.ListDocs("s1")
	assert.Len(t, docs, 2)
	assert.Equal(t, "Alice Notes", docs[0].Title)
	assert.Equal(t, "Debate Brief", docs[1].Title)

	store := r.GetOrCreate("s1")
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, store.Len(), store.index.Len())
}

func TestAddDocDefaultsTitleToFilename(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})

	res, err := r.AddDoc(context.Background(), "s1", "alice", "notes.txt", "", []byte("alpha"))
	assert.NoError(t, err)
	assert.Equal(t, "notes.txt", res.Title)
}

func TestAddDocEmptyDocument(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)

	res, err := r.AddDoc(context.Background(), "s1", "alice", "empty.txt", "Empty", []byte("   \n  "))
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Chunks)
	assert.Equal(t, 0, embedder.callCount())
	assert.Equal(t, 0, r.GetOrCreate("s1").Len())
}

func TestAddDocEmbedderFailureLeavesStoreUntouched(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)
	ctx := context.Background()

	_, err := r.AddDoc(ctx, "s1", "alice", "a.txt", "A", []byte("alpha"))
	assert.NoError(t, err)

	embedder.fail = true
	_, err = r.AddDoc(ctx, "s1", "alice", "b.txt", "B", []byte("beta"))
	assert.Error(t, err)

	store := r.GetOrCreate("s1")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.index.Len())
}

func TestQueryOwnerFiltering(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})
	ctx := context.Background()

	mustAdd := func(owner, filename, title, text string) {
		t.Helper()
		_, err := r.AddDoc(ctx, "s1", owner, filename, title, []byte(text))
		assert.NoError(t, err)
	}
	mustAdd("alice", "a.txt", "A", "alpha argument")
	mustAdd("bob", "b.txt", "B", "beta rebuttal")
	mustAdd(OwnerShared, "c.txt", "C", "gamma common ground")

	// Owner filter: alice sees her own chunks plus shared, never bob's.
	hits, err := r.Query(ctx, "s1", "alpha", []string{"alice"}, 3)
	assert.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.NotEqual(t, "bob", h.Owner)
	}
	assert.Equal(t, "A", hits[0].Title)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	// Empty allowed list disables filtering.
	hits, err = r.Query(ctx, "s1", "alpha", nil, 3)
	assert.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestQueryEmptyStore(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)

	hits, err := r.Query(context.Background(), "fresh", "anything", nil, 4)
	assert.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.Equal(t, 0, embedder.callCount())
}

func TestQuerySnippetTruncation(t *testing.T) {
	r := NewRegistry(&fakeEmbedder{}, Config{
		ChunkSize:    900,
		ChunkOverlap: 100,
		EmbeddingDim: 3,
	}, nil)
	ctx := context.Background()

	long := "alpha " + strings.Repeat("w", 850)
	_, err := r.AddDoc(ctx, "s1", "alice", "long.txt", "Long", []byte(long))
	assert.NoError(t, err)

	hits, err := r.Query(ctx, "s1", "alpha", nil, 1)
	assert.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, SnippetMaxChars, len([]rune(hits[0].Snippet)))
}

func TestDeleteAllForOwner(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)
	ctx := context.Background()

	_, err := r.AddDoc(ctx, "s1", "alice", "a.txt", "A", []byte("alpha"))
	assert.NoError(t, err)
	_, err = r.AddDoc(ctx, "s1", "bob", "b.txt", "B", []byte("beta"))
	assert.NoError(t, err)

	assert.NoError(t, r.DeleteAllForOwner(ctx, "s1", "bob"))

	docs := r.ListDocs("s1")
	assert.Len(t, docs, 1)
	assert.Equal(t, "alice", docs[0].Owner)

	store := r.GetOrCreate("s1")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.index.Len())

	// Bob's chunks are gone from retrieval too.
	hits, err := r.Query(ctx, "s1", "beta", nil, 4)
	assert.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "bob", h.Owner)
	}
}

func TestDeleteAllForOwnerNoMatch(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRegistry(embedder)
	ctx := context.Background()

	_, err := r.AddDoc(ctx, "s1", "alice", "a.txt", "A", []byte("alpha"))
	assert.NoError(t, err)
	before := embedder.callCount()

	assert.NoError(t, r.DeleteAllForOwner(ctx, "s1", "nobody"))
	assert.Equal(t, before, embedder.callCount(), "no-op delete must not re-embed")
	assert.Equal(t, 1, r.GetOrCreate("s1").Len())
}

func TestDeleteAllForOwnerEmptiesStore(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})
	ctx := context.Background()

	_, err := r.AddDoc(ctx, "s1", "alice", "a.txt", "A", []byte("alpha"))
	assert.NoError(t, err)

	assert.NoError(t, r.DeleteAllForOwner(ctx, "s1", "alice"))
	assert.Equal(t, 0, r.GetOrCreate("s1").Len())

	hits, err := r.Query(ctx, "s1", "alpha", nil, 4)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTouchUnknownSessionDoesNotCreateStore(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})

	r.Touch("ghost")
	assert.Equal(t, 0, r.Sessions())
}

func TestSweepExpired(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})

	var (
		mu      sync.Mutex
		evicted []string
	)
	r.OnEvict(func(sessionID string) {
		mu.Lock()
		evicted = append(evicted, sessionID)
		mu.Unlock()
	})

	r.GetOrCreate("s1")
	r.GetOrCreate("s2")
	assert.Equal(t, 2, r.Sessions())

	// Cutoff in the past: everything was used after it, nothing goes.
	r.SweepExpired(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, r.Sessions())
	assert.Empty(t, evicted)

	// Cutoff in the future: everything is idle, everything goes.
	r.SweepExpired(time.Now().Add(time.Hour))
	assert.Equal(t, 0, r.Sessions())
	assert.ElementsMatch(t, []string{"s1", "s2"}, evicted)
}

func TestSweepExpiredSparesRecentlyTouched(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})

	r.GetOrCreate("old")
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	r.GetOrCreate("fresh")
	r.Touch("fresh")

	r.SweepExpired(cutoff)
	assert.Equal(t, 1, r.Sessions())
	assert.NotNil(t, func() *SessionStore {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.stores["fresh"]
	}())
}

func TestConcurrentSessionsStayIsolated(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})
	ctx := context.Background()

	var wg sync.WaitGroup
	sessions := []string{"s1", "s2", "s3", "s4"}
	for _, id := range sessions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := r.AddDoc(ctx, id, "alice", "a.txt", "A", []byte("alpha"))
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, len(sessions), r.Sessions())
	for _, id := range sessions {
		assert.Equal(t, 5, r.GetOrCreate(id).Len())
	}
}

func TestGetOrCreateConcurrentFirstAccess(t *testing.T) {
	r := newTestRegistry(&fakeEmbedder{})

	var wg sync.WaitGroup
	stores := make([]*SessionStore, 10)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = r.GetOrCreate("same")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, r.Sessions())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}
