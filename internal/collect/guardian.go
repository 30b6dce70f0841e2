package collect

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/config"
)

// Guardian queries the Guardian content search API. Every result is
// attributed to cfg.SourceName.
type Guardian struct {
	cfg    config.Provider
	client *Client
}

// NewGuardian creates a Guardian provider.
func NewGuardian(cfg config.Provider, client *Client) *Guardian {
	return &Guardian{cfg: cfg, client: client}
}

func (g *Guardian) Name() string     { return g.cfg.Name }
func (g *Guardian) Topics() []string { return topicList(g.cfg.Topics) }

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			SectionID          string `json:"sectionId"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// Fetch returns the newest items, optionally restricted to one section.
func (g *Guardian) Fetch(ctx context.Context, topic string) ([]RawArticle, error) {
	params := url.Values{
		"show-fields": {"trailText,thumbnail"},
		"page-size":   {strconv.Itoa(g.cfg.PageSize)},
		"order-by":    {"newest"},
		"api-key":     {g.cfg.APIKey()},
	}
	if topic != "" {
		params.Set("section", topic)
	}

	var result guardianResponse
	if err := g.client.getJSON(ctx, g.cfg.Name, g.cfg.Endpoint, params, nil, &result); err != nil {
		return nil, err
	}

	articles := make([]RawArticle, 0, len(result.Response.Results))
	for _, r := range result.Response.Results {
		section := r.SectionID
		if section == "" {
			section = topic
		}
		articles = append(articles, RawArticle{
			Title:       strings.TrimSpace(r.WebTitle),
			URL:         strings.TrimSpace(r.WebURL),
			Description: plainText(r.Fields.TrailText),
			Content:     plainText(r.Fields.BodyText),
			ImageURL:    r.Fields.Thumbnail,
			SourceName:  g.cfg.SourceName,
			Topic:       section,
			PublishedAt: r.WebPublicationDate,
		})
	}
	return articles, nil
}
