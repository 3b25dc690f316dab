package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/scout/internal/config"
	"github.com/FranksOps/scout/internal/judge"
	"github.com/FranksOps/scout/internal/llm"
	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/pipeline"
	"github.com/FranksOps/scout/internal/plan"
	"github.com/FranksOps/scout/internal/retrieve"
	"github.com/FranksOps/scout/internal/serp"
	"github.com/FranksOps/scout/internal/storage"
	"github.com/FranksOps/scout/internal/storage/csvbackend"
	"github.com/FranksOps/scout/internal/storage/jsonbackend"
	"github.com/FranksOps/scout/internal/storage/postgres"
	"github.com/FranksOps/scout/internal/storage/sqlite"
	"github.com/FranksOps/scout/pkg/httpclient"
)

// app holds the wired pipeline for one process. Its plan generator, and so
// its AI query cache, lives as long as the app.
type app struct {
	coordinator *pipeline.Coordinator
	store       storage.Backend // nil when storage is disabled
	logger      *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	profile, err := httpclient.ParseProfile(cfg.Search.TLSProfile)
	if err != nil {
		return nil, fmt.Errorf("search.tls_profile: %w", err)
	}
	client, err := httpclient.New(httpclient.Config{
		Timeout:   cfg.Search.CallTimeout,
		Profile:   profile,
		UserAgent: cfg.Search.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	provider, err := serp.NewGoogle(serp.Config{
		APIKey:      cfg.Search.APIKey,
		EngineID:    cfg.Search.EngineID,
		BaseURL:     cfg.Search.BaseURL,
		CallTimeout: cfg.Search.CallTimeout,
		MaxAttempts: cfg.Search.MaxAttempts,
		HTTP:        client,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	var gen llm.Generator
	if cfg.AI.APIKey != "" {
		gen, err = llm.NewOpenAI(llm.Config{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
		})
		if err != nil {
			return nil, err
		}
	}

	planner := plan.NewGenerator(plan.Config{
		LLM:              gen,
		AITimeout:        cfg.AI.QueryTimeout,
		MaxAIQueryLength: cfg.AI.MaxQueryLength,
		Logger:           logger,
	})

	retriever, err := retrieve.New(retrieve.Config{
		Provider:  provider,
		MaxPages:  cfg.Retrieval.MaxPages,
		PageDelay: cfg.Retrieval.PageDelay,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	j, err := judge.New(judge.Config{
		Strategy: cfg.Judge.Strategy,
		Heuristic: judge.HeuristicConfig{
			MinScore:         cfg.Judge.MinScore,
			MinSnippetLength: cfg.Judge.MinSnippetLength,
			QualityDomains:   cfg.Judge.QualityDomains,
			PreferredDomains: cfg.Judge.PreferredDomains,
			ExcludedDomains:  cfg.Judge.ExcludedDomains,
			Rescuer: pipeline.NewBroadener(retriever, cfg.Retrieval.DateWindow,
				cfg.Retrieval.MaxCandidates, cfg.Pipeline.TopicBudget),
		},
		AI: judge.AIConfig{
			LLM:      gen,
			Template: cfg.Judge.Template,
			Timeout:  cfg.Judge.Timeout,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	coordinator, err := pipeline.New(pipeline.Config{
		Planner:       planner,
		Retriever:     retriever,
		Judge:         j,
		UseAIQuery:    cfg.AI.QueryEnabled,
		DateWindow:    cfg.Retrieval.DateWindow,
		MaxCandidates: cfg.Retrieval.MaxCandidates,
		Limit:         cfg.Judge.Limit,
		TopicBudget:   cfg.Pipeline.TopicBudget,
		Concurrency:   cfg.Pipeline.Concurrency,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	store, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &app{coordinator: coordinator, store: store, logger: logger}, nil
}

// runOnce runs every topic and hands the outcomes to the configured sink.
func (a *app) runOnce(ctx context.Context, topics []string) []news.TopicOutcome {
	outcomes := a.coordinator.RunAll(ctx, topics)
	if a.store == nil {
		return outcomes
	}
	for _, o := range outcomes {
		if err := a.store.Save(ctx, storage.NewRecord(o)); err != nil {
			a.logger.Error("failed to save outcome", "topic", o.Topic, "err", err)
		}
	}
	return outcomes
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close storage", "err", err)
		}
	}
}

// openBackend returns nil for the "none" backend.
func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "json":
		return jsonbackend.New(cfg.Path)
	case "csv":
		return csvbackend.New(cfg.Path)
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "postgres":
		return postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var errNoTopics = errors.New("no topics given: pass them as arguments or set pipeline.topics")

func topicsFrom(args []string, cfg *config.Config) ([]string, error) {
	topics := args
	if len(topics) == 0 {
		topics = cfg.Pipeline.Topics
	}
	if len(topics) == 0 {
		return nil, errNoTopics
	}
	return topics, nil
}
