package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/TobiSchelling/ingestor/internal/config"
)

// RawArticle is one decoded provider record before validation. Fields are
// kept as strings; the ingest job decides what is usable.
type RawArticle struct {
	Title       string
	URL         string
	Description string
	Content     string
	ImageURL    string
	SourceName  string
	Topic       string
	PublishedAt string
}

// Provider fetches raw articles from one external news API.
type Provider interface {
	Name() string
	// Topics lists the topic codes to query, one call each. Empty means a
	// single call without a topic.
	Topics() []string
	Fetch(ctx context.Context, topic string) ([]RawArticle, error)
}

// New builds the provider for cfg.Kind using the shared client.
func New(cfg config.Provider, client *Client) (Provider, error) {
	switch cfg.Kind {
	case config.KindNewsAPI:
		return NewNewsAPI(cfg, client), nil
	case config.KindGNews:
		return NewGNews(cfg, client), nil
	case config.KindGuardian:
		return NewGuardian(cfg, client), nil
	case config.KindRSS:
		return NewFeed(cfg, client), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// NeedsKey reports whether the provider kind authenticates with an API key.
func NeedsKey(kind string) bool {
	return kind != config.KindRSS
}

// plainText reduces an HTML fragment to its collapsed text content.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func topicList(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
