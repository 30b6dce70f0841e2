package collect

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/ingestor/internal/config"
)

// Feed reads an RSS or Atom feed. Topics are not supported; every call
// returns the whole feed capped at PageSize items.
type Feed struct {
	cfg    config.Provider
	client *Client
}

// NewFeed creates an RSS/Atom provider.
func NewFeed(cfg config.Provider, client *Client) *Feed {
	return &Feed{cfg: cfg, client: client}
}

func (f *Feed) Name() string     { return f.cfg.Name }
func (f *Feed) Topics() []string { return nil }

func (f *Feed) Fetch(ctx context.Context, _ string) ([]RawArticle, error) {
	body, err := f.client.get(ctx, f.cfg.Name, f.cfg.Endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchFailure{Provider: f.cfg.Name, Cause: fmt.Errorf("parsing feed: %w", err)}
	}

	source := f.cfg.SourceName
	if source == "" {
		source = strings.TrimSpace(feed.Title)
	}
	if source == "" {
		source = extractSourceName(f.cfg.Endpoint)
	}

	var articles []RawArticle
	for _, item := range feed.Items {
		if f.cfg.PageSize > 0 && len(articles) >= f.cfg.PageSize {
			break
		}
		articles = append(articles, parseItem(item, source))
	}
	return articles, nil
}

func parseItem(item *gofeed.Item, source string) RawArticle {
	link := item.Link
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = item.GUID
	}

	var published string
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		published = item.Published
	}

	var image string
	if item.Image != nil {
		image = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				image = enc.URL
				break
			}
		}
	}

	var topic string
	if len(item.Categories) > 0 {
		topic = strings.ToLower(strings.TrimSpace(item.Categories[0]))
	}

	return RawArticle{
		Title:       strings.TrimSpace(item.Title),
		URL:         strings.TrimSpace(link),
		Description: plainText(item.Description),
		Content:     plainText(item.Content),
		ImageURL:    image,
		SourceName:  source,
		Topic:       topic,
		PublishedAt: published,
	}
}

// extractSourceName turns a feed URL into a display name, e.g.
// https://feeds.bbci.co.uk/news/rss.xml -> "Bbci".
func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
		if len(parts) >= 3 && (name == "co" || name == "com") {
			name = parts[len(parts)-3]
		}
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
