package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/scout/internal/metrics"
	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/plan"
	"github.com/FranksOps/scout/internal/serp"
	"github.com/FranksOps/scout/pkg/ratelimit"
)

const (
	// MaxPagesCap is the hard limit on pages fetched per variant.
	MaxPagesCap      = 3
	DefaultPageDelay = 500 * time.Millisecond
	DefaultMaxTotal  = 30
)

// ErrEmptyPlan is returned when Retrieve is given a plan with no variants.
var ErrEmptyPlan = errors.New("retrieve: empty plan")

// AllQueriesFailedError is returned when every variant of a plan failed.
type AllQueriesFailedError struct {
	Errors map[string]error // by variant label
}

func (e *AllQueriesFailedError) Error() string {
	labels := make([]string, 0, len(e.Errors))
	for l := range e.Errors {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s: %v", l, e.Errors[l])
	}
	return fmt.Sprintf("retrieve: all %d query variants failed (%s)", len(labels), strings.Join(parts, "; "))
}

func (e *AllQueriesFailedError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err)
	}
	return out
}

// Config defines the setup for a Retriever.
type Config struct {
	Provider serp.Provider
	// MaxPages per variant, at most MaxPagesCap. Default 3.
	MaxPages int
	// PageSize per request, at most serp.PageSize. Default serp.PageSize.
	PageSize int
	// PageDelay separates successive pages of one variant. Default 500ms;
	// negative disables it.
	PageDelay time.Duration
	Logger    *slog.Logger
}

// Retriever fans a plan out over a search provider and merges the results.
type Retriever struct {
	provider  serp.Provider
	maxPages  int
	pageSize  int
	pageDelay time.Duration
	logger    *slog.Logger
}

// New creates a Retriever from cfg.
func New(cfg Config) (*Retriever, error) {
	if cfg.Provider == nil {
		return nil, errors.New("retrieve: provider is required")
	}
	if cfg.MaxPages <= 0 || cfg.MaxPages > MaxPagesCap {
		cfg.MaxPages = MaxPagesCap
	}
	if cfg.PageSize <= 0 || cfg.PageSize > serp.PageSize {
		cfg.PageSize = serp.PageSize
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = DefaultPageDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Retriever{
		provider:  cfg.Provider,
		maxPages:  cfg.MaxPages,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		logger:    cfg.Logger,
	}, nil
}

type branchResult struct {
	label string
	items []news.Item
	err   error // set only when the first page failed
}

// Retrieve issues every variant of p concurrently and returns the merged
// candidates, unique by Link, in branch completion order. A variant that
// fails is logged and skipped; only when every variant failed does
// Retrieve return *AllQueriesFailedError.
//
// If ctx is done before all variants settle, Retrieve returns what has
// been merged so far. Unfinished variants run to completion in the
// background and their results are dropped.
func (r *Retriever) Retrieve(ctx context.Context, p plan.Plan, dateWindow string, maxTotal int) ([]news.Item, error) {
	if len(p) == 0 {
		return nil, ErrEmptyPlan
	}
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotal
	}
	window := serp.NormalizeDateWindow(dateWindow)
	budget := (maxTotal + len(p) - 1) / len(p)

	// Buffered so late branches never block once the merge has stopped.
	results := make(chan branchResult, len(p))
	branchCtx := context.WithoutCancel(ctx)

	// A plain Group: one failing variant must not cancel its siblings.
	var g errgroup.Group
	for _, v := range p {
		g.Go(func() error {
			results <- r.runVariant(branchCtx, v, window, budget)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	seen := make(map[string]struct{})
	merged := make([]news.Item, 0, maxTotal)
	failures := make(map[string]error)

merge:
	for {
		select {
		case res, ok := <-results:
			if !ok {
				break merge
			}
			if res.err != nil {
				failures[res.label] = res.err
				continue
			}
			for _, it := range res.items {
				if _, dup := seen[it.Link]; dup {
					continue
				}
				seen[it.Link] = struct{}{}
				merged = append(merged, it)
			}
		case <-ctx.Done():
			r.logger.Warn("retrieval budget exhausted", "merged", len(merged), "err", ctx.Err())
			if len(merged) > 0 {
				return truncate(merged, maxTotal), nil
			}
			return nil, fmt.Errorf("retrieve: %w", ctx.Err())
		}
	}

	if len(failures) == len(p) {
		return nil, &AllQueriesFailedError{Errors: failures}
	}
	r.logger.Debug("retrieval complete", "variants", len(p), "failed", len(failures), "items", len(merged))
	return truncate(merged, maxTotal), nil
}

// runVariant pages through one variant until its budget is met, a short
// page arrives, or MaxPages is reached.
func (r *Retriever) runVariant(ctx context.Context, v plan.Variant, window string, budget int) (res branchResult) {
	res.label = v.Label
	page := 0
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("search variant panicked", "variant", v.Label, "panic", rec)
			if page == 0 {
				res.items = nil
				res.err = fmt.Errorf("retrieve: panic: %v", rec)
				metrics.VariantFailures.WithLabelValues(v.Label).Inc()
			}
		}
	}()

	pacer := ratelimit.NewPacer(r.pageDelay, 0)
	seen := make(map[string]struct{})

	for ; page < r.maxPages && len(res.items) < budget; page++ {
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		items, err := r.provider.FetchPage(ctx, serp.Query{
			Text:       v.Query,
			DateWindow: window,
			Start:      page*r.pageSize + 1,
			Num:        r.pageSize,
		})
		if err != nil {
			if page == 0 {
				r.logger.Warn("search variant failed", "variant", v.Label, "query", v.Query, "err", err)
				metrics.VariantFailures.WithLabelValues(v.Label).Inc()
				res.err = err
			} else {
				r.logger.Warn("search page failed, keeping earlier pages", "variant", v.Label, "page", page+1, "err", err)
			}
			break
		}

		for _, it := range items {
			if len(res.items) >= budget {
				break
			}
			if _, dup := seen[it.Link]; dup {
				continue
			}
			seen[it.Link] = struct{}{}
			res.items = append(res.items, it)
		}
		if len(items) < r.pageSize {
			break
		}
	}
	return res
}

func truncate(items []news.Item, n int) []news.Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}
