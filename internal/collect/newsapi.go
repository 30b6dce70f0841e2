package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/config"
)

// removedMarker is what NewsAPI puts in place of withdrawn articles.
const removedMarker = "[Removed]"

// NewsAPI queries the newsapi.org top-headlines endpoint.
type NewsAPI struct {
	cfg    config.Provider
	client *Client
}

// NewNewsAPI creates a NewsAPI provider.
func NewNewsAPI(cfg config.Provider, client *Client) *NewsAPI {
	return &NewsAPI{cfg: cfg, client: client}
}

func (n *NewsAPI) Name() string     { return n.cfg.Name }
func (n *NewsAPI) Topics() []string { return topicList(n.cfg.Topics) }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Fetch returns the current headlines, optionally for one category.
func (n *NewsAPI) Fetch(ctx context.Context, topic string) ([]RawArticle, error) {
	params := url.Values{"pageSize": {strconv.Itoa(n.cfg.PageSize)}}
	if n.cfg.Country != "" {
		params.Set("country", n.cfg.Country)
	}
	if n.cfg.Language != "" {
		params.Set("language", n.cfg.Language)
	}
	if topic != "" {
		params.Set("category", topic)
	}
	header := http.Header{}
	if key := n.cfg.APIKey(); key != "" {
		header.Set("X-Api-Key", key)
	}

	var result newsAPIResponse
	if err := n.client.getJSON(ctx, n.cfg.Name, n.cfg.Endpoint, params, header, &result); err != nil {
		return nil, err
	}
	if result.Status != "ok" {
		return nil, &FetchFailure{
			Provider: n.cfg.Name,
			Cause:    fmt.Errorf("api status %q: %s %s", result.Status, result.Code, result.Message),
		}
	}

	articles := make([]RawArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == removedMarker || a.URL == "https://removed.com" {
			continue
		}
		articles = append(articles, RawArticle{
			Title:       strings.TrimSpace(a.Title),
			URL:         strings.TrimSpace(a.URL),
			Description: plainText(a.Description),
			Content:     strings.TrimSpace(a.Content),
			ImageURL:    a.URLToImage,
			SourceName:  a.Source.Name,
			Topic:       topic,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
