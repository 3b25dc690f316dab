// Package judge narrows a candidate list to a small set of substantive news
// items, either by heuristic scoring or by asking a language model.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/scout/internal/news"
)

const (
	StrategyHeuristic = "heuristic"
	StrategyAI        = "ai"
)

// Fallback reasons reported by the strategies.
const (
	ReasonBroadenedRetry = "broadened retry"
	ReasonNoContent      = "no substantive content"
	ReasonNothingKept    = "ai judge kept no items"
	ReasonUnparseable    = "ai response could not be parsed"
)

// ErrUnavailable marks AI judge failures. It only ever appears inside an
// Outcome's Reason; the judge falls back instead of returning it.
var ErrUnavailable = errors.New("ai judge unavailable")

// Judge selects at most limit items from candidates.
type Judge interface {
	Judge(ctx context.Context, candidates []news.Item, topic string, limit int) (Outcome, error)
}

// Outcome is the result of judging. Fallback is set when the primary
// strategy could not produce a selection and a secondary path was used.
type Outcome struct {
	Items    []news.Item
	Fallback bool
	Reason   string
}

// Selected is a normal selection.
func Selected(items []news.Item) Outcome {
	return Outcome{Items: items}
}

// FallbackSelected is a selection made by a fallback path.
func FallbackSelected(items []news.Item, reason string) Outcome {
	return Outcome{Items: items, Fallback: true, Reason: reason}
}

// Rescuer fetches a broader candidate set for a topic when the first one
// yielded nothing usable.
type Rescuer interface {
	Rescue(ctx context.Context, topic string) ([]news.Item, error)
}

// Config selects and configures a strategy.
type Config struct {
	Strategy  string
	Heuristic HeuristicConfig
	AI        AIConfig
}

// New returns the Judge named by cfg.Strategy. Empty means heuristic.
func New(cfg Config, logger *slog.Logger) (Judge, error) {
	switch cfg.Strategy {
	case "", StrategyHeuristic:
		if cfg.Heuristic.Logger == nil {
			cfg.Heuristic.Logger = logger
		}
		return NewHeuristic(cfg.Heuristic), nil
	case StrategyAI:
		if cfg.AI.Logger == nil {
			cfg.AI.Logger = logger
		}
		if cfg.AI.LLM == nil {
			return nil, errors.New("judge: ai strategy requires a generator")
		}
		return NewAI(cfg.AI), nil
	default:
		return nil, fmt.Errorf("judge: unknown strategy %q", cfg.Strategy)
	}
}

func head(items []news.Item, n int) []news.Item {
	if n > len(items) {
		n = len(items)
	}
	out := make([]news.Item, n)
	copy(out, items)
	return out
}
