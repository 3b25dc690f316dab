package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/scout/internal/judge"
	"github.com/FranksOps/scout/internal/metrics"
	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/plan"
	"github.com/FranksOps/scout/internal/serp"
)

const (
	DefaultLimit         = 5
	DefaultMaxCandidates = 30
	DefaultTopicBudget   = 90 * time.Second
	DefaultConcurrency   = 2
)

// Planner builds the query plan for a topic.
type Planner interface {
	Build(ctx context.Context, topic string, useAI bool) plan.Plan
}

// Retriever turns a plan into deduplicated candidates.
type Retriever interface {
	Retrieve(ctx context.Context, p plan.Plan, dateWindow string, maxTotal int) ([]news.Item, error)
}

// Config defines the setup for a Coordinator.
type Config struct {
	Planner   Planner
	Retriever Retriever
	Judge     judge.Judge

	UseAIQuery    bool
	DateWindow    string
	MaxCandidates int
	Limit         int
	// TopicBudget bounds planning and retrieval for one topic.
	TopicBudget time.Duration
	// Concurrency is the number of topics RunAll processes at once.
	Concurrency int
	Logger      *slog.Logger
}

// Coordinator runs the plan, retrieve and judge stages for topics.
type Coordinator struct {
	planner   Planner
	retriever Retriever
	judge     judge.Judge

	useAI         bool
	window        string
	maxCandidates int
	limit         int
	budget        time.Duration
	concurrency   int
	logger        *slog.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Planner == nil || cfg.Retriever == nil || cfg.Judge == nil {
		return nil, errors.New("pipeline: planner, retriever and judge are required")
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.TopicBudget <= 0 {
		cfg.TopicBudget = DefaultTopicBudget
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		planner:       cfg.Planner,
		retriever:     cfg.Retriever,
		judge:         cfg.Judge,
		useAI:         cfg.UseAIQuery,
		window:        serp.NormalizeDateWindow(cfg.DateWindow),
		maxCandidates: cfg.MaxCandidates,
		limit:         cfg.Limit,
		budget:        cfg.TopicBudget,
		concurrency:   cfg.Concurrency,
		logger:        cfg.Logger,
	}, nil
}

// Run processes one topic. It never returns an error or panics: failures
// are reported through the outcome's Error field.
func (c *Coordinator) Run(ctx context.Context, topic string) (out news.TopicOutcome) {
	start := time.Now()
	out.Topic = topic
	logger := c.logger.With("topic", topic)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("topic pipeline panicked", "panic", r)
			out.Items = nil
			out.FallbackReason = ""
			out.Error = fmt.Sprintf("internal error: %v", r)
		}
		out.Duration = time.Since(start)
		metrics.TopicOutcomes.WithLabelValues(string(out.Status())).Inc()
		logger.Info("topic finished",
			"status", out.Status(),
			"items", len(out.Items),
			"fallback", out.FallbackReason,
			"duration", out.Duration,
		)
	}()

	budgetCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	p := c.planner.Build(budgetCtx, topic, c.useAI)
	logger.Debug("plan built", "variants", p.Labels())

	candidates, err := c.retriever.Retrieve(budgetCtx, p, c.window, c.maxCandidates)
	if err != nil {
		logger.Warn("retrieval failed", "err", err)
		out.Error = err.Error()
		return out
	}
	logger.Debug("candidates retrieved", "count", len(candidates))

	// A budget that expired during retrieval must not starve the judge.
	res, err := c.judge.Judge(context.WithoutCancel(ctx), candidates, topic, c.limit)
	if err != nil {
		logger.Warn("judge failed", "err", err)
		out.Error = fmt.Sprintf("pipeline: judge: %v", err)
		return out
	}

	out.Items = res.Items
	if res.Fallback {
		out.FallbackReason = res.Reason
	}
	return out
}

// RunAll processes topics concurrently, at most Concurrency at a time. The
// outcomes are in the same order as topics.
func (c *Coordinator) RunAll(ctx context.Context, topics []string) []news.TopicOutcome {
	out := make([]news.TopicOutcome, len(topics))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, topic := range topics {
		g.Go(func() error {
			out[i] = c.Run(ctx, topic)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
