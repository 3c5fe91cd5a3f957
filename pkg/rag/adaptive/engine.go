// Package adaptive decides, per retrieved snippet set, how the current speaker
// should handle reference material: cite it as evidence, spin it against the
// opponent, or paraphrase it without attribution.
package adaptive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"ai-debate-be/pkg/llm"
	"ai-debate-be/pkg/rag"

	gocache "github.com/patrickmn/go-cache"
)

// Citation tactics a persona can be directed to use.
const (
	ModeEvidenceCite      = "evidence_cite"
	ModeWeaponizeSpin     = "weaponize_spin"
	ModePersonaParaphrase = "persona_paraphrase"
)

const (
	claimContextMaxChars = 600
	snippetKeyMaxChars   = 700

	logModule = "ADAPTIVE_MODE"
)

// DefaultCacheTTL bounds how long a decision stays memoized. The cache is
// keyed by content hash, so without expiration it would grow for the whole
// process lifetime.
const DefaultCacheTTL = 30 * time.Minute

// Directive tells the prompt assembler how the current speaker should use the
// retrieved snippets.
type Directive struct {
	Mode      string `json:"mode"`
	CiteStyle string `json:"cite_style"`
}

// Engine classifies retrieved snippets against the live claim and derives a
// citation tactic. Decisions are memoized by a hash of (speaker, topic, claim,
// snippet set); a turn replayed with identical inputs never pays for a second
// classifier call, and a failed classification is cached too so identical
// failing inputs do not retry.
type Engine struct {
	provider llm.LLMProvider
	cache    *gocache.Cache
	log      rag.Logger
}

// NewEngine creates an engine with a TTL-bounded decision cache. cacheTTL <= 0
// selects DefaultCacheTTL; log may be nil.
func NewEngine(provider llm.LLMProvider, cacheTTL time.Duration, log rag.Logger) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if log == nil {
		log = rag.NopLogger{}
	}
	return &Engine{
		provider: provider,
		cache:    gocache.New(cacheTTL, 10*time.Minute),
		log:      log,
	}
}

// Decide resolves the tactic for one turn. With no sources there is nothing to
// judge and the persona default comes back untouched. Classification failures
// of any kind are absorbed here: the caller always gets a usable Directive.
func (e *Engine) Decide(ctx context.Context, speaker, topic string, history []llm.Message, sources []rag.Hit, defaultMode, citeStyle string) Directive {
	fallback := Directive{Mode: defaultMode, CiteStyle: citeStyle}
	if len(sources) == 0 {
		return fallback
	}

	claim := claimContext(history, topic)
	key := cacheKey(speaker, topic, claim, sources)
	if cached, found := e.cache.Get(key); found {
		return cached.(Directive)
	}

	verdict, err := e.classify(ctx, claim, sources)
	if err != nil {
		e.log.Warn(logModule, "Classification failed, keeping persona default", map[string]interface{}{
			"speaker": speaker,
			"error":   err.Error(),
		})
		e.cache.Set(key, fallback, gocache.DefaultExpiration)
		return fallback
	}

	directive := resolveDirective(verdict, defaultMode, citeStyle)
	e.cache.Set(key, directive, gocache.DefaultExpiration)

	e.log.Info(logModule, "Tactic resolved", map[string]interface{}{
		"speaker":    speaker,
		"mode":       directive.Mode,
		"support":    len(verdict.Support),
		"contradict": len(verdict.Contradict),
		"unclear":    len(verdict.Unclear),
	})
	return directive
}

// resolveDirective applies the existence-based policy: counts beyond zero/non-
// zero carry no weight.
func resolveDirective(v *verdict, defaultMode, citeStyle string) Directive {
	switch {
	case len(v.Support) > 0 && len(v.Contradict) == 0:
		if defaultMode == ModeEvidenceCite {
			return Directive{Mode: ModeEvidenceCite, CiteStyle: citeStyle}
		}
		return Directive{Mode: ModePersonaParaphrase, CiteStyle: citeStyle}
	case len(v.Contradict) > 0 && len(v.Support) == 0:
		// Hostile evidence overrides whatever the persona would normally do.
		return Directive{Mode: ModeWeaponizeSpin, CiteStyle: citeStyle}
	default:
		return Directive{Mode: defaultMode, CiteStyle: citeStyle}
	}
}

// claimContext picks what the snippets are judged against: the most recent
// user message, else the most recent assistant message, else the debate topic.
func claimContext(history []llm.Message, topic string) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return truncate(history[i].Content, claimContextMaxChars)
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			return truncate(history[i].Content, claimContextMaxChars)
		}
	}
	return truncate(topic, claimContextMaxChars)
}

func cacheKey(speaker, topic, claim string, sources []rag.Hit) string {
	h := sha256.New()
	for _, part := range []string{speaker, topic, claim} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, s := range sources {
		h.Write([]byte(s.Title))
		h.Write([]byte{0})
		h.Write([]byte(truncate(s.Snippet, snippetKeyMaxChars)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
