package collect

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/config"
)

// GNews queries the gnews.io top-headlines endpoint.
type GNews struct {
	cfg    config.Provider
	client *Client
}

// NewGNews creates a GNews provider.
func NewGNews(cfg config.Provider, client *Client) *GNews {
	return &GNews{cfg: cfg, client: client}
}

func (g *GNews) Name() string     { return g.cfg.Name }
func (g *GNews) Topics() []string { return topicList(g.cfg.Topics) }

type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (g *GNews) Fetch(ctx context.Context, topic string) ([]RawArticle, error) {
	params := url.Values{
		"max":    {strconv.Itoa(g.cfg.PageSize)},
		"apikey": {g.cfg.APIKey()},
	}
	if g.cfg.Language != "" {
		params.Set("lang", g.cfg.Language)
	}
	if g.cfg.Country != "" {
		params.Set("country", g.cfg.Country)
	}
	if topic != "" {
		params.Set("topic", topic)
	}

	var result gnewsResponse
	if err := g.client.getJSON(ctx, g.cfg.Name, g.cfg.Endpoint, params, nil, &result); err != nil {
		return nil, err
	}

	articles := make([]RawArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		articles = append(articles, RawArticle{
			Title:       strings.TrimSpace(a.Title),
			URL:         strings.TrimSpace(a.URL),
			Description: plainText(a.Description),
			Content:     strings.TrimSpace(a.Content),
			ImageURL:    a.Image,
			SourceName:  a.Source.Name,
			Topic:       topic,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
