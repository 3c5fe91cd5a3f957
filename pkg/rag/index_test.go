package rag

import (
	"testing"
)

func TestFlatIndexAddRejectsMixedBatch(t *testing.T) {
	ix := NewFlatIndex(3)

	err := ix.Add([][]float32{
		{1, 0, 0},
		{0, 1}, // wrong dim
	})
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if ix.Len() != 0 {
		t.Errorf("index has %d rows after failed batch, want 0", ix.Len())
	}
}

func TestFlatIndexSearchRanking(t *testing.T) {
	ix := NewFlatIndex(2)
	if err := ix.Add([][]float32{
		{0, 1}, // orthogonal to query
		{1, 0}, // identical to query
		{0.7071, 0.7071},
	}); err != nil {
		t.Fatal(err)
	}

	results := ix.Search([]float32{1, 0}, 3)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Row != 1 {
		t.Errorf("best match row = %d, want 1", results[0].Row)
	}
	if results[1].Row != 2 {
		t.Errorf("second match row = %d, want 2", results[1].Row)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order at %d", i)
		}
	}
}

func TestFlatIndexSearchTruncatesToK(t *testing.T) {
	ix := NewFlatIndex(2)
	if err := ix.Add([][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}); err != nil {
		t.Fatal(err)
	}

	results := ix.Search([]float32{1, 0}, 2)
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestFlatIndexSearchDegenerateInputs(t *testing.T) {
	ix := NewFlatIndex(2)

	if got := ix.Search([]float32{1, 0}, 5); got != nil {
		t.Errorf("empty index returned %v, want nil", got)
	}

	if err := ix.Add([][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if got := ix.Search([]float32{1, 0, 0}, 5); got != nil {
		t.Errorf("wrong-dim query returned %v, want nil", got)
	}
	if got := ix.Search([]float32{1, 0}, 0); got != nil {
		t.Errorf("k=0 returned %v, want nil", got)
	}
}
