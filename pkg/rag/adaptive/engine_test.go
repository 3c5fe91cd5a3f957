package adaptive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-debate-be/pkg/llm"
	"ai-debate-be/pkg/rag"

	"github.com/stretchr/testify/assert"
)

// fakeLLM returns a canned response and counts Generate calls so tests can
// prove memoization.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func someSources() []rag.Hit {
	return []rag.Hit{
		{Title: "Climate Report", ChunkIndex: 0, Snippet: "emissions rose 4% last year"},
		{Title: "Climate Report", ChunkIndex: 1, Snippet: "sea levels are stable in the region"},
	}
}

func TestDecideEmptySourcesKeepsDefault(t *testing.T) {
	provider := &fakeLLM{}
	e := NewEngine(provider, time.Minute, nil)

	d := e.Decide(context.Background(), "alice", "topic", nil, nil, ModeEvidenceCite, "inline")
	assert.Equal(t, ModeEvidenceCite, d.Mode)
	assert.Equal(t, "inline", d.CiteStyle)
	assert.Equal(t, 0, provider.calls)
}

func TestDecidePolicy(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		defaultMode string
		wantMode    string
	}{
		{
			name:        "support only with citing persona",
			response:    `{"support": [0], "contradict": [], "unclear": [1]}`,
			defaultMode: ModeEvidenceCite,
			wantMode:    ModeEvidenceCite,
		},
		{
			name:        "support only with non-citing persona",
			response:    `{"support": [0], "contradict": [], "unclear": [1]}`,
			defaultMode: ModeWeaponizeSpin,
			wantMode:    ModePersonaParaphrase,
		},
		{
			name:        "contradiction overrides persona default",
			response:    `{"support": [], "contradict": [1], "unclear": [0]}`,
			defaultMode: ModeEvidenceCite,
			wantMode:    ModeWeaponizeSpin,
		},
		{
			name:        "mixed evidence keeps default",
			response:    `{"support": [0], "contradict": [1], "unclear": []}`,
			defaultMode: ModePersonaParaphrase,
			wantMode:    ModePersonaParaphrase,
		},
		{
			name:        "all unclear keeps default",
			response:    `{"support": [], "contradict": [], "unclear": [0, 1]}`,
			defaultMode: ModeEvidenceCite,
			wantMode:    ModeEvidenceCite,
		},
		{
			name:        "out of range indices are dropped",
			response:    `{"support": [7, -1], "contradict": [], "unclear": [0, 1]}`,
			defaultMode: ModePersonaParaphrase,
			wantMode:    ModePersonaParaphrase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&fakeLLM{response: tt.response}, time.Minute, nil)

			d := e.Decide(context.Background(), "alice", "topic", nil, someSources(), tt.defaultMode, "inline")
			assert.Equal(t, tt.wantMode, d.Mode)
			assert.Equal(t, "inline", d.CiteStyle)
		})
	}
}

func TestDecideMemoization(t *testing.T) {
	provider := &fakeLLM{response: `{"support": [0], "contradict": [], "unclear": [1]}`}
	e := NewEngine(provider, time.Minute, nil)
	ctx := context.Background()

	first := e.Decide(ctx, "alice", "topic", nil, someSources(), ModeEvidenceCite, "inline")
	second := e.Decide(ctx, "alice", "topic", nil, someSources(), ModeEvidenceCite, "inline")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls, "identical inputs must hit the cache")

	// A different speaker is a different cache entry.
	e.Decide(ctx, "bob", "topic", nil, someSources(), ModeEvidenceCite, "inline")
	assert.Equal(t, 2, provider.calls)
}

func TestDecideClassifierErrorFallsBackAndCaches(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model unavailable")}
	e := NewEngine(provider, time.Minute, nil)
	ctx := context.Background()

	d := e.Decide(ctx, "alice", "topic", nil, someSources(), ModePersonaParaphrase, "footnote")
	assert.Equal(t, ModePersonaParaphrase, d.Mode)
	assert.Equal(t, "footnote", d.CiteStyle)

	e.Decide(ctx, "alice", "topic", nil, someSources(), ModePersonaParaphrase, "footnote")
	assert.Equal(t, 1, provider.calls, "failed classification must be cached too")
}

func TestDecideMalformedResponseFallsBack(t *testing.T) {
	provider := &fakeLLM{response: "I cannot classify these snippets."}
	e := NewEngine(provider, time.Minute, nil)

	d := e.Decide(context.Background(), "alice", "topic", nil, someSources(), ModeEvidenceCite, "inline")
	assert.Equal(t, ModeEvidenceCite, d.Mode)
}

func TestClaimContext(t *testing.T) {
	long := strings.Repeat("z", 700)

	tests := []struct {
		name    string
		history []llm.Message
		topic   string
		want    string
	}{
		{
			name: "latest user message wins",
			history: []llm.Message{
				{Role: "assistant", Content: "earlier point"},
				{Role: "user", Content: "old claim"},
				{Role: "assistant", Content: "response"},
				{Role: "user", Content: "latest claim"},
			},
			topic: "the topic",
			want:  "latest claim",
		},
		{
			name: "assistant fallback without user turns",
			history: []llm.Message{
				{Role: "assistant", Content: "opening statement"},
			},
			topic: "the topic",
			want:  "opening statement",
		},
		{
			name:  "topic fallback with empty history",
			topic: "the topic",
			want:  "the topic",
		},
		{
			name: "long claim is truncated",
			history: []llm.Message{
				{Role: "user", Content: long},
			},
			topic: "the topic",
			want:  long[:claimContextMaxChars],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := claimContext(tt.history, tt.topic)
			if got != tt.want {
				t.Errorf("claimContext() = %q, want %q", got, tt.want)
			}
		})
	}
}
