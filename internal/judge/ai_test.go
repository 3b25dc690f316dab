package judge

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/scout/internal/llm"
	"github.com/FranksOps/scout/internal/news"
)

func candidates(n int) []news.Item {
	items := make([]news.Item, n)
	for i := range items {
		items[i] = news.Item{
			Title:   fmt.Sprintf("Story %d", i+1),
			Link:    fmt.Sprintf("https://news.example/story/%d", i+1),
			Snippet: fmt.Sprintf("Snippet for story %d", i+1),
			Source:  "News Example",
		}
	}
	return items
}

func reply(text string) llm.GeneratorFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return text, nil
	}
}

func TestAIJudgeKeepsModelSelection(t *testing.T) {
	c := candidates(6)
	a := NewAI(AIConfig{LLM: reply("ITEM_1: SKIP\nITEM_2: KEEP\nITEM_3: SKIP\nITEM_4: SKIP\nITEM_5: KEEP\nITEM_6: SKIP")})

	out, err := a.Judge(context.Background(), c, "tech", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Fallback {
		t.Fatalf("unexpected fallback: %s", out.Reason)
	}
	want := []news.Item{c[1], c[4]}
	if !reflect.DeepEqual(out.Items, want) {
		t.Fatalf("expected %+v, got %+v", want, out.Items)
	}
}

func TestAIJudgeNetworkErrorFallsBack(t *testing.T) {
	c := candidates(6)
	a := NewAI(AIConfig{LLM: llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	})})

	out, err := a.Judge(context.Background(), c, "tech", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Fallback {
		t.Fatal("expected fallback")
	}
	if !reflect.DeepEqual(out.Items, c[:4]) {
		t.Fatalf("expected first 4 candidates, got %+v", out.Items)
	}
	if !strings.HasPrefix(out.Reason, ErrUnavailable.Error()) {
		t.Errorf("expected reason to mention unavailability, got %q", out.Reason)
	}
}

func TestAIJudgeFallbackNonEmpty(t *testing.T) {
	tests := map[string]llm.GeneratorFunc{
		"empty keep set": reply("ITEM_1: SKIP\nITEM_2: SKIP"),
		"garbage":        reply("I cannot help with that."),
		"out of range":   reply("ITEM_99: KEEP"),
		"panic": func(ctx context.Context, prompt string) (string, error) {
			panic("broken")
		},
		"timeout": func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	c := candidates(3)
	for name, gen := range tests {
		t.Run(name, func(t *testing.T) {
			a := NewAI(AIConfig{LLM: gen, Timeout: 20 * time.Millisecond})
			out, err := a.Judge(context.Background(), c, "tech", 5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Fallback {
				t.Fatal("expected fallback")
			}
			if !reflect.DeepEqual(out.Items, c) {
				t.Fatalf("expected all 3 candidates, got %d", len(out.Items))
			}
		})
	}
}

func TestAIJudgeLimit(t *testing.T) {
	c := candidates(6)
	a := NewAI(AIConfig{LLM: reply("ITEM_1: KEEP\nITEM_2: KEEP\nITEM_3: KEEP\nITEM_4: KEEP")})

	out, _ := a.Judge(context.Background(), c, "tech", 2)
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out.Items))
	}

	out, _ = a.Judge(context.Background(), c, "tech", 0)
	if len(out.Items) != 0 || out.Fallback {
		t.Fatalf("expected empty selection for limit 0, got %+v", out)
	}
}

func TestAIJudgeNoCandidates(t *testing.T) {
	called := false
	a := NewAI(AIConfig{LLM: llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "", nil
	})})
	out, err := a.Judge(context.Background(), nil, "tech", 3)
	if err != nil || len(out.Items) != 0 {
		t.Fatalf("expected empty outcome, got %+v, %v", out, err)
	}
	if called {
		t.Fatal("generator should not be called without candidates")
	}
}

func TestParseKeep(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		n     int
		limit int
		want  []int
	}{
		{"model order", "ITEM_5: KEEP\nITEM_2: KEEP", 6, 5, []int{4, 1}},
		{"markdown", "**ITEM_3**: **KEEP**\n- ITEM_1: keep", 6, 5, []int{2, 0}},
		{"duplicates", "ITEM_2: KEEP\nITEM_2: KEEP\nITEM_3: KEEP", 6, 5, []int{1, 2}},
		{"out of range", "ITEM_0: KEEP\nITEM_7: KEEP\nITEM_6: KEEP", 6, 5, []int{5}},
		{"capped", "ITEM_1: KEEP\nITEM_2: KEEP\nITEM_3: KEEP", 6, 2, []int{0, 1}},
		{"skip ignored", "ITEM_1: SKIP\nITEM_2: SKIPPED", 6, 5, nil},
		{"same line", "ITEM_1: KEEP, ITEM_4: KEEP", 6, 5, []int{0, 3}},
		{"dash separator", "ITEM 2 - KEEP", 6, 5, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeep(tt.text, tt.n, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseKeepOverlongLine(t *testing.T) {
	text := strings.Repeat("x", maxResponseLine+1) + "\nITEM_1: KEEP"
	if _, err := ParseKeep(text, 3, 3); err == nil {
		t.Fatal("expected error for a line longer than the scan buffer")
	}
}

func TestAIJudgeOverlongResponseIsUnparseable(t *testing.T) {
	c := candidates(4)
	a := NewAI(AIConfig{LLM: reply("ITEM_2: KEEP " + strings.Repeat("x", maxResponseLine+1))})

	out, err := a.Judge(context.Background(), c, "tech", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Fallback || out.Reason != ReasonUnparseable {
		t.Fatalf("expected unparseable fallback, got %+v", out)
	}
	if !reflect.DeepEqual(out.Items, c[:3]) {
		t.Errorf("expected first 3 candidates, got %+v", out.Items)
	}
}

func TestBuildPrompt(t *testing.T) {
	c := []news.Item{{Title: "A  headline", Link: "https://a.example/1", Snippet: "line one\nline two", PublishedTime: "2026-10-01"}}

	p := BuildPrompt(DefaultTemplate, c, "space", 4)
	for _, want := range []string{
		`news briefing about "space"`,
		"Keep at most 4 items",
		"ITEM_1:\nTitle: A headline\nSource: unknown\nPublished: 2026-10-01\nContent: line one line two\nURL: https://a.example/1",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "{{") {
		t.Errorf("unsubstituted placeholder in prompt:\n%s", p)
	}

	custom := BuildPrompt("Pick news about {{TOPIC}}.", c, "space", 4)
	if !strings.HasPrefix(custom, "Pick news about space.\n\nITEM_1:") {
		t.Errorf("expected items appended to override template, got:\n%s", custom)
	}
}

func TestNewStrategy(t *testing.T) {
	if j, err := New(Config{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if _, ok := j.(*Heuristic); !ok {
		t.Fatalf("expected heuristic by default, got %T", j)
	}
	if _, err := New(Config{Strategy: StrategyAI}, nil); err == nil {
		t.Fatal("expected error for ai strategy without generator")
	}
	if j, err := New(Config{Strategy: StrategyAI, AI: AIConfig{LLM: reply("")}}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if _, ok := j.(*AI); !ok {
		t.Fatalf("expected *AI, got %T", j)
	}
	if _, err := New(Config{Strategy: "magic"}, nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
