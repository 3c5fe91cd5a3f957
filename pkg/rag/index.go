package rag

import (
	"fmt"
	"sort"
)

// SearchResult is a single row match from a FlatIndex search.
type SearchResult struct {
	Row   int
	Score float32
}

// FlatIndex is a brute-force inner-product index over unit-length vectors, the
// in-process stand-in for a dedicated vector database. Rows keep insertion
// order so callers can hold metadata in a parallel slice.
//
// FlatIndex is not safe for concurrent use; the owning SessionStore serializes
// access through its mutex.
type FlatIndex struct {
	dim  int
	rows [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimensionality.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dim returns the vector dimensionality the index accepts.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of indexed rows.
func (ix *FlatIndex) Len() int { return len(ix.rows) }

// Add appends vectors as new rows. Either every vector is appended or none is:
// dimensions are validated up front so a mixed batch cannot leave the index
// half-written.
func (ix *FlatIndex) Add(vecs [][]float32) error {
	for _, v := range vecs {
		if len(v) != ix.dim {
			return fmt.Errorf("vector dim %d does not match index dim %d", len(v), ix.dim)
		}
	}
	ix.rows = append(ix.rows, vecs...)
	return nil
}

// Search returns up to k rows ranked by descending inner product. With
// unit-length vectors the inner product equals cosine similarity.
func (ix *FlatIndex) Search(query []float32, k int) []SearchResult {
	if k <= 0 || len(ix.rows) == 0 || len(query) != ix.dim {
		return nil
	}

	results := make([]SearchResult, 0, len(ix.rows))
	for i, row := range ix.rows {
		var dot float32
		for j := range row {
			dot += row[j] * query[j]
		}
		results = append(results, SearchResult{Row: i, Score: dot})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
