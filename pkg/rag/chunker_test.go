package rag

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks []string
	}{
		{
			name:       "empty input",
			text:       "",
			chunkSize:  800,
			overlap:    120,
			wantChunks: nil,
		},
		{
			name:       "whitespace only",
			text:       "   \n\t  ",
			chunkSize:  800,
			overlap:    120,
			wantChunks: nil,
		},
		{
			name:       "non-positive chunk size",
			text:       "some text",
			chunkSize:  0,
			overlap:    0,
			wantChunks: nil,
		},
		{
			name:       "shorter than window yields single chunk",
			text:       "a short document",
			chunkSize:  800,
			overlap:    120,
			wantChunks: []string{"a short document"},
		},
		{
			name:       "whitespace runs collapse to single spaces",
			text:       "alpha\n\n  beta\t\tgamma",
			chunkSize:  800,
			overlap:    120,
			wantChunks: []string{"alpha beta gamma"},
		},
		{
			name:       "exact window size yields single chunk",
			text:       strings.Repeat("x", 20),
			chunkSize:  20,
			overlap:    5,
			wantChunks: []string{strings.Repeat("x", 20)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.chunkSize, tt.overlap)
			if len(got) != len(tt.wantChunks) {
				t.Fatalf("got %d chunks, want %d: %q", len(got), len(tt.wantChunks), got)
			}
			for i := range got {
				if got[i] != tt.wantChunks[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.wantChunks[i])
				}
			}
		})
	}
}

func TestChunkTextWindowGeometry(t *testing.T) {
	// 1000 runes, window 800, overlap 120: [0,800) then [680,1000).
	var b strings.Builder
	for b.Len() < 1000 {
		b.WriteString("0123456789")
	}
	text := b.String()[:1000]

	chunks := ChunkText(text, 800, 120)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != text[:800] {
		t.Errorf("first chunk is not [0,800)")
	}
	if chunks[1] != text[680:] {
		t.Errorf("second chunk is not [680,1000)")
	}
	if chunks[0][680:] != chunks[1][:120] {
		t.Errorf("chunks do not overlap by 120 characters")
	}
}

func TestChunkTextOverlapAtLeastChunkSize(t *testing.T) {
	// overlap >= chunkSize must not stall the window.
	text := strings.Repeat("y", 25)

	chunks := ChunkText(text, 10, 10)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != 25 {
		t.Errorf("chunks cover %d characters, want 25 without overlap", total)
	}
}

func TestChunkTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("abcde ", 400) // 2400 chars normalized to 2399

	chunks := ChunkText(text, 800, 120)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	normalized := strings.Join(strings.Fields(text), " ")
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(normalized, last) {
		t.Errorf("last chunk does not reach end of input")
	}
	if !strings.HasPrefix(normalized, chunks[0]) {
		t.Errorf("first chunk does not start at beginning of input")
	}
}
