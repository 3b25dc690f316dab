package pipeline

import (
	"context"
	"time"

	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/plan"
	"github.com/FranksOps/scout/internal/serp"
)

// Broadener implements judge.Rescuer. It reruns retrieval with the
// deterministic plan only and twice the date window.
type Broadener struct {
	retriever Retriever
	window    string
	maxTotal  int
	budget    time.Duration
}

// NewBroadener returns a Broadener widening dateWindow. budget bounds each
// rescue; zero means DefaultTopicBudget.
func NewBroadener(r Retriever, dateWindow string, maxTotal int, budget time.Duration) *Broadener {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxCandidates
	}
	if budget <= 0 {
		budget = DefaultTopicBudget
	}
	return &Broadener{
		retriever: r,
		window:    serp.WidenDateWindow(dateWindow),
		maxTotal:  maxTotal,
		budget:    budget,
	}
}

func (b *Broadener) Rescue(ctx context.Context, topic string) ([]news.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()
	return b.retriever.Retrieve(ctx, plan.Deterministic(topic), b.window, b.maxTotal)
}
