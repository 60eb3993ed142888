// Package phrasing rewrites the deterministic fallback questions into more
// natural language via an LLM. It is the only suspending step in the
// enrichment loop: the call is time-boxed, cached by content hash, and every
// failure path degrades to the fallback mapping, so the loop never blocks and
// the user is never left without questions.
package phrasing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowforge.app/forge/common/logger"
	"flowforge.app/forge/internal/cache"
	"flowforge.app/forge/internal/decode"
	"flowforge.app/forge/internal/llm"
	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

// Phraser produces enrichment questions for a gap list. It never fails:
// the deterministic mapping is always available as a result.
type Phraser interface {
	Questions(ctx context.Context, graph model.WorkflowGraph, gaps []model.Gap) []model.EnrichmentQuestion
}

type Config struct {
	Timeout   time.Duration
	CacheTTL  time.Duration
	MaxTokens int
}

type phraser struct {
	llm   llm.Client
	cache cache.Cache
	cfg   Config
}

// New builds a Phraser. A nil llm client is valid and yields the fallback
// mapping only, which is how the system runs without an API key.
func New(client llm.Client, c cache.Cache, cfg Config) Phraser {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &phraser{llm: client, cache: c, cfg: cfg}
}

// phrasedPayload is the structured-output schema: the model returns new text
// per question id. Pointers, fields, and priorities never leave our side of
// the contract, so a confused model cannot corrupt answer addressing.
type phrasedPayload struct {
	Questions []struct {
		ID   string `json:"id" jsonschema:"required,description=The id of the question being rephrased, unchanged"`
		Text string `json:"text" jsonschema:"required,description=The rephrased question text"`
	} `json:"questions" jsonschema:"required"`
}

func (p *phraser) Questions(ctx context.Context, graph model.WorkflowGraph, gaps []model.Gap) []model.EnrichmentQuestion {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "forge.phrasing"})

	fallback := workflow.QuestionsFromGaps(gaps)
	if p.llm == nil || len(fallback) == 0 {
		return fallback
	}

	key := contentHash(graph.Name, gaps)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		if questions, err := decode.Questions([]byte(cached)); err == nil && len(questions) == len(fallback) {
			slog.DebugContext(ctx, "phrasing cache hit", "questions", len(questions))
			return questions
		}
		// Stale or corrupt entry; drop it and re-phrase.
		_ = p.cache.Evict(ctx, key)
	}

	phrased, err := p.phrase(ctx, graph, fallback)
	if err != nil {
		slog.WarnContext(ctx, "phrasing failed, using deterministic questions", "error", err)
		return fallback
	}

	if encoded, err := json.Marshal(phrased); err == nil {
		if err := p.cache.Set(ctx, key, string(encoded), p.cfg.CacheTTL); err != nil {
			slog.WarnContext(ctx, "phrasing cache write failed", "error", err)
		}
	}

	return phrased
}

func (p *phraser) phrase(ctx context.Context, graph model.WorkflowGraph, fallback []model.EnrichmentQuestion) ([]model.EnrichmentQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var raw json.RawMessage
	if _, err := p.llm.Chat(ctx, llm.Request{
		SystemPrompt: phrasingSystemPrompt,
		UserPrompt:   buildPrompt(graph, fallback),
		SchemaName:   "phrased_questions",
		Schema:       llm.GenerateSchema[phrasedPayload](),
		MaxTokens:    p.cfg.MaxTokens,
		Temperature:  llm.Temp(0.3),
	}, &raw); err != nil {
		return nil, err
	}

	var payload phrasedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed phrasing response: %w", err)
	}

	textByID := make(map[string]string, len(payload.Questions))
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("malformed phrasing response: empty text for question %q", q.ID)
		}
		textByID[q.ID] = strings.TrimSpace(q.Text)
	}

	out := make([]model.EnrichmentQuestion, len(fallback))
	for i, q := range fallback {
		text, ok := textByID[q.ID]
		if !ok {
			return nil, fmt.Errorf("malformed phrasing response: missing question %q", q.ID)
		}
		q.Text = text
		out[i] = q
	}
	return out, nil
}

func buildPrompt(graph model.WorkflowGraph, questions []model.EnrichmentQuestion) string {
	var b strings.Builder
	if graph.Name != "" {
		fmt.Fprintf(&b, "Workflow: %s\n", graph.Name)
	}
	if graph.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", graph.Industry)
	}
	b.WriteString("Stages:\n")
	for _, s := range graph.Stages {
		fmt.Fprintf(&b, "%d. %s\n", s.Sequence, s.Name)
	}
	b.WriteString("\nQuestions to rephrase:\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "- id=%s priority=%s: %s\n", q.ID, q.Priority, q.Text)
	}
	return b.String()
}

// contentHash keys the cache on the workflow name plus the exact gap list, so
// a changed graph always re-phrases and an unchanged one never does.
func contentHash(name string, gaps []model.Gap) string {
	payload, _ := json.Marshal(struct {
		Name string      `json:"name"`
		Gaps []model.Gap `json:"gaps"`
	}{Name: name, Gaps: gaps})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

const phrasingSystemPrompt = `You rephrase workflow-completeness questions so an operations manager finds them natural to answer. Keep each question short, concrete, and specific to the stage or transition it mentions. Return every question you were given, with its id unchanged. Never merge, drop, or invent questions.`
