package judge

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/scout/internal/llm"
	"github.com/FranksOps/scout/internal/metrics"
	"github.com/FranksOps/scout/internal/news"
)

const DefaultAITimeout = 30 * time.Second

// Template placeholders.
const (
	PlaceholderNews  = "{{NEWS_TEXT}}"
	PlaceholderTopic = "{{TOPIC}}"
	PlaceholderLimit = "{{LIMIT}}"
)

// DefaultTemplate is the instruction sent when no override is configured.
const DefaultTemplate = `You are screening web search results for a news briefing about "{{TOPIC}}".

Mark an item KEEP only if it is a specific, recent news article about the topic: it reports an event, announcement, decision, result or figure. Mark SKIP for homepages, category or tag pages, site descriptions, listicles, product pages, opinion roundups and anything off-topic. Keep at most {{LIMIT}} items, preferring original reporting from reputable publishers and dropping near-duplicate stories.

Answer with exactly one line per item and nothing else, in this form:
ITEM_1: KEEP
ITEM_2: SKIP

Items:

{{NEWS_TEXT}}`

// AIConfig configures the model-backed judge.
type AIConfig struct {
	LLM llm.Generator
	// Template overrides DefaultTemplate. If it lacks {{NEWS_TEXT}} the
	// items are appended after it.
	Template string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// AI asks a language model which candidates to keep. Any failure falls back
// to the first limit candidates in their given order.
type AI struct {
	llm      llm.Generator
	template string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAI(cfg AIConfig) *AI {
	if strings.TrimSpace(cfg.Template) == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAITimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AI{llm: cfg.LLM, template: cfg.Template, timeout: cfg.Timeout, logger: cfg.Logger}
}

func (a *AI) Judge(ctx context.Context, candidates []news.Item, topic string, limit int) (out Outcome, err error) {
	if limit <= 0 || len(candidates) == 0 {
		return Selected(nil), nil
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("ai judge panicked", "topic", topic, "panic", r)
			out, err = FallbackSelected(head(candidates, limit), ReasonUnparseable), nil
		}
		metrics.RecordJudge(StrategyAI, out.Fallback)
	}()

	prompt := BuildPrompt(a.template, candidates, topic, limit)
	text, callErr := llm.Complete(ctx, a.llm, prompt, a.timeout)
	if callErr != nil {
		reason := fmt.Errorf("%w: %v", ErrUnavailable, callErr)
		a.logger.Warn("ai judge call failed, using first candidates", "topic", topic, "err", callErr)
		return FallbackSelected(head(candidates, limit), reason.Error()), nil
	}

	keep, parseErr := ParseKeep(text, len(candidates), limit)
	if parseErr != nil {
		a.logger.Warn("ai judge response unreadable, using first candidates", "topic", topic, "err", parseErr)
		return FallbackSelected(head(candidates, limit), ReasonUnparseable), nil
	}
	if len(keep) == 0 {
		a.logger.Warn("ai judge kept nothing, using first candidates", "topic", topic)
		return FallbackSelected(head(candidates, limit), ReasonNothingKept), nil
	}

	items := make([]news.Item, len(keep))
	for i, idx := range keep {
		items[i] = candidates[idx]
	}
	return Selected(items), nil
}

// FormatItems renders candidates as numbered ITEM_n blocks, 1-based.
func FormatItems(candidates []news.Item) string {
	var b strings.Builder
	for i, it := range candidates {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "ITEM_%d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", oneLine(it.Title))
		fmt.Fprintf(&b, "Source: %s\n", orUnknown(it.Source))
		fmt.Fprintf(&b, "Published: %s\n", orUnknown(it.PublishedTime))
		fmt.Fprintf(&b, "Content: %s\n", oneLine(it.Snippet))
		fmt.Fprintf(&b, "URL: %s\n", it.Link)
	}
	return b.String()
}

// BuildPrompt fills template with the formatted candidates, the topic and
// the keep limit.
func BuildPrompt(template string, candidates []news.Item, topic string, limit int) string {
	block := FormatItems(candidates)
	p := strings.ReplaceAll(template, PlaceholderTopic, topic)
	p = strings.ReplaceAll(p, PlaceholderLimit, strconv.Itoa(limit))
	if !strings.Contains(p, PlaceholderNews) {
		return strings.TrimRight(p, "\n") + "\n\n" + block
	}
	return strings.ReplaceAll(p, PlaceholderNews, block)
}

var keepRe = regexp.MustCompile(`(?i)\bITEM[_ ]?(\d+)\**\s*[:\-]\s*\**\s*KEEP\b`)

// maxResponseLine bounds a single line of model output.
const maxResponseLine = 1 << 20

// ParseKeep extracts 0-based indices marked KEEP, in the order the model
// gave them. Duplicates and indices outside [1, n] are ignored and at most
// limit indices are returned. A line too long to scan is an error.
func ParseKeep(text string, n, limit int) ([]int, error) {
	var out []int
	seen := make(map[int]bool)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), maxResponseLine)
	for sc.Scan() {
		for _, m := range keepRe.FindAllStringSubmatch(sc.Text(), -1) {
			k, err := strconv.Atoi(m[1])
			if err != nil || k < 1 || k > n || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k-1)
			if len(out) == limit {
				return out, nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("judge: scan ai response: %w", err)
	}
	return out, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
