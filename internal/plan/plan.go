package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/scout/internal/llm"
)

// Variant labels.
const (
	LabelStandard    = "standard"
	LabelSpecific    = "specific"
	LabelBroad       = "broad"
	LabelRecent      = "recent"
	LabelFallback    = "fallback"
	LabelAIGenerated = "ai-generated"
)

const (
	DefaultAITimeout        = 15 * time.Second
	DefaultMaxAIQueryLength = 150
)

// Variant is one labeled search query. Labels are unique within a Plan.
type Variant struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// Plan is the set of query variants issued for a topic. Order carries no
// priority; every variant is issued concurrently.
type Plan []Variant

// Labels returns the variant labels in plan order.
func (p Plan) Labels() []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = v.Label
	}
	return out
}

// GenerationError reports a failed or unusable AI query.
type GenerationError struct {
	Topic string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plan: ai query for %q: %v", e.Topic, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var (
	errEmptyQuery   = errors.New("empty query")
	errQueryTooLong = errors.New("query too long")
)

// Config configures a Generator.
type Config struct {
	// LLM produces the optional ai-generated variant. Nil disables it.
	LLM              llm.Generator
	AITimeout        time.Duration
	MaxAIQueryLength int
	// Cache memoizes ai-generated queries. Nil means a private cache.
	Cache  *QueryCache
	Logger *slog.Logger
}

// Generator builds query plans.
type Generator struct {
	llm       llm.Generator
	timeout   time.Duration
	maxLength int
	cache     *QueryCache
	logger    *slog.Logger
}

// NewGenerator creates a Generator from cfg.
func NewGenerator(cfg Config) *Generator {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = DefaultAITimeout
	}
	if cfg.MaxAIQueryLength <= 0 {
		cfg.MaxAIQueryLength = DefaultMaxAIQueryLength
	}
	if cfg.Cache == nil {
		cfg.Cache = NewQueryCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		llm:       cfg.LLM,
		timeout:   cfg.AITimeout,
		maxLength: cfg.MaxAIQueryLength,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
	}
}

// Build returns the deterministic variants for topic, plus an ai-generated
// variant when useAI is set and generation succeeds. It never fails; an
// empty topic yields an empty plan.
func (g *Generator) Build(ctx context.Context, topic string, useAI bool) Plan {
	p := Deterministic(topic)
	if len(p) == 0 || !useAI || g.llm == nil {
		return p
	}

	q, err := g.aiQuery(ctx, strings.TrimSpace(topic))
	if err != nil {
		g.logger.Warn("ai query generation failed", "topic", topic, "err", err)
		return p
	}
	return append(p, Variant{Label: LabelAIGenerated, Query: q})
}

func (g *Generator) aiQuery(ctx context.Context, topic string) (string, error) {
	if q, ok := g.cache.Get(topic); ok {
		return q, nil
	}

	prompt := strings.ReplaceAll(aiQueryPrompt, "{{TOPIC}}", topic)
	text, err := llm.Complete(ctx, g.llm, prompt, g.timeout)
	if err != nil {
		return "", &GenerationError{Topic: topic, Err: err}
	}

	q := cleanAIQuery(text)
	switch {
	case q == "":
		return "", &GenerationError{Topic: topic, Err: errEmptyQuery}
	case len([]rune(q)) > g.maxLength:
		return "", &GenerationError{Topic: topic, Err: errQueryTooLong}
	}

	g.cache.Set(topic, q)
	g.logger.Debug("ai query generated", "topic", topic, "query", q)
	return q, nil
}

const aiQueryPrompt = `Write one web search query that finds the most recent news articles about the topic below.
Prefer concrete names, products, organizations and events over generic words.
Reply with the query only: no quotes, no explanation, no numbering.

Topic: {{TOPIC}}`

// cleanAIQuery takes the first non-empty line of a model answer and strips
// labels and wrapping quotes.
func cleanAIQuery(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, ":"); i > 0 && strings.EqualFold(strings.TrimSpace(line[:i]), "query") {
			line = strings.TrimSpace(line[i+1:])
		}
		return strings.TrimSpace(strings.Trim(line, "\"'`*"))
	}
	return ""
}
