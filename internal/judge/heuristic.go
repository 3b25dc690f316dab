package judge

import (
	"context"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/FranksOps/scout/internal/metrics"
	"github.com/FranksOps/scout/internal/news"
)

const (
	DefaultMinScore         = 5
	DefaultMinSnippetLength = 60
)

// HeuristicConfig configures the scoring judge. Zero values take defaults.
type HeuristicConfig struct {
	// Weights overrides DefaultWeights when set.
	Weights          *Weights
	MinScore         float64
	MinSnippetLength int
	// QualityDomains overrides DefaultQualityDomains when non-empty.
	QualityDomains   []string
	PreferredDomains []string
	ExcludedDomains  []string
	// Rescuer, when set, is asked once for a broader candidate set if
	// filtering leaves nothing.
	Rescuer Rescuer
	Logger  *slog.Logger
}

// Heuristic judges candidates by a weighted sum of textual and URL signals.
type Heuristic struct {
	weights    Weights
	minScore   float64
	minSnippet int
	quality    domainSet
	preferred  domainSet
	excluded   domainSet
	rescuer    Rescuer
	logger     *slog.Logger
}

func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	w := DefaultWeights()
	if cfg.Weights != nil {
		w = *cfg.Weights
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.MinSnippetLength <= 0 {
		cfg.MinSnippetLength = DefaultMinSnippetLength
	}
	if len(cfg.QualityDomains) == 0 {
		cfg.QualityDomains = DefaultQualityDomains
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Heuristic{
		weights:    w,
		minScore:   cfg.MinScore,
		minSnippet: cfg.MinSnippetLength,
		quality:    newDomainSet(cfg.QualityDomains),
		preferred:  newDomainSet(cfg.PreferredDomains),
		excluded:   newDomainSet(cfg.ExcludedDomains),
		rescuer:    cfg.Rescuer,
		logger:     cfg.Logger,
	}
}

func (h *Heuristic) Judge(ctx context.Context, candidates []news.Item, topic string, limit int) (Outcome, error) {
	if limit <= 0 {
		return Selected(nil), nil
	}

	out := h.judge(ctx, candidates, topic, limit)
	metrics.RecordJudge(StrategyHeuristic, out.Fallback)
	return out, nil
}

func (h *Heuristic) judge(ctx context.Context, candidates []news.Item, topic string, limit int) Outcome {
	if sel := h.selectItems(candidates, topic, limit, h.minScore, h.minSnippet); len(sel) > 0 {
		return Selected(sel)
	}
	if h.rescuer == nil {
		return FallbackSelected(nil, ReasonNoContent)
	}

	h.logger.Info("no candidates passed filters, broadening", "topic", topic, "candidates", len(candidates))
	more, err := h.rescuer.Rescue(ctx, topic)
	if err != nil {
		h.logger.Warn("broadened retry failed", "topic", topic, "err", err)
		return FallbackSelected(nil, ReasonNoContent)
	}

	relaxedScore := h.minScore - 2
	relaxedSnippet := h.minSnippet / 2
	if sel := h.selectItems(more, topic, limit, relaxedScore, relaxedSnippet); len(sel) > 0 {
		return FallbackSelected(sel, ReasonBroadenedRetry)
	}
	return FallbackSelected(nil, ReasonNoContent)
}

type scored struct {
	item  news.Item
	score float64
}

// selectItems filters, ranks and truncates. Ties keep input order.
func (h *Heuristic) selectItems(items []news.Item, topic string, limit int, minScore float64, minSnippet int) []news.Item {
	kept := make([]scored, 0, len(items))
	for _, it := range items {
		if reason := h.reject(it, minSnippet); reason != "" {
			h.logger.Debug("candidate rejected", "link", it.Link, "reason", reason)
			continue
		}
		s := h.Score(it, topic)
		if s < minScore {
			h.logger.Debug("candidate rejected", "link", it.Link, "reason", "low score", "score", s)
			continue
		}
		kept = append(kept, scored{it, s})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]news.Item, len(kept))
	for i, k := range kept {
		out[i] = k.item
	}
	return out
}

// reject returns a non-empty reason when item fails a hard filter.
func (h *Heuristic) reject(item news.Item, minSnippet int) string {
	link := parseLink(item.Link)
	snippetLen := utf8.RuneCountInString(item.Snippet)
	switch {
	case snippetLen < minSnippet:
		return "short snippet"
	case h.excluded.has(link.host):
		return "excluded domain"
	case listTitleRe.MatchString(item.Title):
		return "list article"
	case link.isRoot() || listingPathRe.MatchString(link.path):
		return "homepage or listing"
	case siteDescRe.MatchString(item.Snippet):
		return "site description"
	case snippetLen < genericSnippetLen && genericDescRe.MatchString(item.Snippet):
		return "site description"
	}
	return ""
}
