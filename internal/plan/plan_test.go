package plan

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/scout/internal/llm"
)

func TestDeterministic(t *testing.T) {
	p := Deterministic("  Technology ")
	want := Plan{
		{LabelStandard, "Technology news (launch OR release OR update)"},
		{LabelSpecific, `"Technology" news article`},
		{LabelBroad, "Technology developments OR announcement OR report"},
		{LabelRecent, "Technology news this week"},
		{LabelFallback, "Technology news"},
	}
	if len(p) != len(want) {
		t.Fatalf("expected %d variants, got %d", len(want), len(p))
	}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("variant %d: expected %+v, got %+v", i, want[i], p[i])
		}
	}
}

func TestDeterministicIsPure(t *testing.T) {
	a := Deterministic("rust compiler")
	b := Deterministic("rust compiler")
	if strings.Join(a.Labels(), ",") != strings.Join(b.Labels(), ",") {
		t.Fatal("labels differ between calls")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("variant %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestDeterministicEmptyTopic(t *testing.T) {
	if p := Deterministic("   "); len(p) != 0 {
		t.Fatalf("expected empty plan, got %v", p)
	}
}

func TestStandardQueryCategories(t *testing.T) {
	tests := []struct {
		topic, want string
	}{
		{"AI regulation", "AI regulation news (launch OR release OR update)"},
		{"Stock market", "Stock market news (earnings OR acquisition OR revenue)"},
		{"Mars space mission", "Mars space mission news (study OR discovery OR research)"},
		{"NBA playoffs", "NBA playoffs news (match OR score OR transfer)"},
		{"Knitting", "Knitting latest news"},
		{"Maine", "Maine latest news"}, // "ai" must not match inside a word
	}
	for _, tt := range tests {
		if got := standardQuery(tt.topic); got != tt.want {
			t.Errorf("standardQuery(%q): expected %q, got %q", tt.topic, tt.want, got)
		}
	}
}

func TestBuildWithoutAI(t *testing.T) {
	var calls atomic.Int32
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "q", nil
	})
	g := NewGenerator(Config{LLM: gen})

	p := g.Build(context.Background(), "Technology", false)
	if len(p) != 5 {
		t.Fatalf("expected 5 variants, got %d", len(p))
	}
	if calls.Load() != 0 {
		t.Fatal("generator should not be called when useAI is false")
	}
}

func TestBuildWithAI(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Topic: Technology") {
			t.Errorf("prompt missing topic: %q", prompt)
		}
		return "Query: \"latest chip launches October\"\n", nil
	})
	g := NewGenerator(Config{LLM: gen})

	p := g.Build(context.Background(), "Technology", true)
	if len(p) != 6 {
		t.Fatalf("expected 6 variants, got %d", len(p))
	}
	last := p[len(p)-1]
	if last.Label != LabelAIGenerated || last.Query != "latest chip launches October" {
		t.Fatalf("unexpected ai variant %+v", last)
	}
}

func TestBuildOmitsUnusableAIQuery(t *testing.T) {
	tests := map[string]llm.GeneratorFunc{
		"error": func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("unavailable")
		},
		"empty": func(ctx context.Context, prompt string) (string, error) {
			return "  \n\"\"\n", nil
		},
		"too long": func(ctx context.Context, prompt string) (string, error) {
			return strings.Repeat("x", DefaultMaxAIQueryLength+1), nil
		},
		"panic": func(ctx context.Context, prompt string) (string, error) {
			panic("bad generator")
		},
	}
	for name, gen := range tests {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(Config{LLM: gen})
			p := g.Build(context.Background(), "Technology", true)
			if len(p) != 5 {
				t.Fatalf("expected 5 deterministic variants, got %d", len(p))
			}
			for _, v := range p {
				if v.Label == LabelAIGenerated {
					t.Fatal("ai variant should be omitted")
				}
			}
		})
	}
}

func TestBuildAITimeout(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := NewGenerator(Config{LLM: gen, AITimeout: 20 * time.Millisecond})

	start := time.Now()
	p := g.Build(context.Background(), "Technology", true)
	if len(p) != 5 {
		t.Fatalf("expected 5 variants, got %d", len(p))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("ai timeout not applied, took %v", elapsed)
	}
}

func TestAIQueryGenerationError(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", nil
	})
	g := NewGenerator(Config{LLM: gen})

	_, err := g.aiQuery(context.Background(), "Technology")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if !errors.Is(err, errEmptyQuery) {
		t.Errorf("expected errEmptyQuery, got %v", genErr.Err)
	}
}

func TestBuildCachesAIQuery(t *testing.T) {
	var calls atomic.Int32
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "cached query", nil
	})
	cache := NewQueryCache()
	g := NewGenerator(Config{LLM: gen, Cache: cache})

	g.Build(context.Background(), "Technology", true)
	p := g.Build(context.Background(), " technology ", true)

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 generator call, got %d", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached topic, got %d", cache.Len())
	}
	if p[len(p)-1].Query != "cached query" {
		t.Fatalf("expected cached query, got %+v", p[len(p)-1])
	}
}

func TestBuildDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "", errors.New("down")
	})
	g := NewGenerator(Config{LLM: gen})

	g.Build(context.Background(), "Technology", true)
	g.Build(context.Background(), "Technology", true)
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected failures to be retried on the next build, got %d calls", got)
	}
}
