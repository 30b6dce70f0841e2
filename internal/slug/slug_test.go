package slug

import (
	"errors"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Hello World":                "hello-world",
		"  Spaces   everywhere  ":    "spaces-everywhere",
		"Crème brûlée recipe":        "creme-brulee-recipe",
		"AI: what's next?":           "ai-whats-next",
		"Already-hyphenated - title": "already-hyphenated-title",
		"snake_case stays":           "snake_case-stays",
		"100% growth in Q3":          "100-growth-in-q3",
		"!!!":                        "",
		"Москва":                     "",
	}
	for in, want := range cases {
		if got := Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := Make(long)
	if len(got) > maxBase {
		t.Errorf("expected at most %d chars, got %d", maxBase, len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug should not end with '-': %q", got)
	}
}

func TestNormalizeFallback(t *testing.T) {
	if got := Normalize("???"); got != Fallback {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := Normalize("Budget Day"); got != "budget-day" {
		t.Errorf("expected budget-day, got %q", got)
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"news": true, "news-1": true}
	got, err := Unique("news", func(s string) (bool, error) { return taken[s], nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "news-2" {
		t.Errorf("expected news-2, got %q", got)
	}

	got, _ = Unique("fresh", func(s string) (bool, error) { return taken[s], nil })
	if got != "fresh" {
		t.Errorf("expected fresh, got %q", got)
	}
}

func TestUniquePropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique("x", func(string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
