// Package ingest runs one provider's fetch → classify → persist → cache job.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/ingestor/internal/cache"
	"github.com/TobiSchelling/ingestor/internal/classify"
	"github.com/TobiSchelling/ingestor/internal/collect"
	"github.com/TobiSchelling/ingestor/internal/config"
	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/fetch"
)

// Store is everything the job persists through.
type Store interface {
	ArticleStore
	SourceStore
}

// Enricher replaces a missing or truncated body with the page's text.
type Enricher interface {
	Enrich(ctx context.Context, url string) (string, error)
}

// Deps are the clients a job runs against. Enricher may be nil.
type Deps struct {
	Store      Store
	Classifier *classify.Classifier
	Cache      *cache.Writer
	Enricher   Enricher
	Log        *slog.Logger
	Now        func() time.Time
}

// Result counts what one job did. Skipped records are Duplicates + Invalid.
type Result struct {
	Provider   string
	Fetched    int
	Created    int
	Duplicates int
	Invalid    int
	Errors     int
	Cached     int

	AlreadyCached bool
	MissingKey    string
	Err           error
}

// Skipped is the number of records not created for an expected reason.
func (r *Result) Skipped() int {
	return r.Duplicates + r.Invalid
}

// Summary renders the result as the job's one-line report.
func (r *Result) Summary() string {
	switch {
	case r.AlreadyCached:
		return fmt.Sprintf("%s: articles already cached, skipping fetch.", r.Provider)
	case r.MissingKey != "":
		return fmt.Sprintf("%s: %s is not set, skipping fetch.", r.Provider, r.MissingKey)
	case r.Err != nil:
		return fmt.Sprintf("%s: error fetching articles: %v (%d new articles created before the failure).",
			r.Provider, r.Err, r.Created)
	}
	return fmt.Sprintf("%s: %d fetched, %d new articles created, %d skipped (%d duplicates, %d invalid), %d errors.",
		r.Provider, r.Fetched, r.Created, r.Skipped(), r.Duplicates, r.Invalid, r.Errors)
}

// Job ingests from one provider.
type Job struct {
	cfg      config.Provider
	provider collect.Provider
	upserter *Upserter
	sources  *SourceRegistry
	deps     Deps
	log      *slog.Logger
}

// NewJob wires a job for cfg using provider to fetch.
func NewJob(cfg config.Provider, provider collect.Provider, deps Deps) *Job {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Job{
		cfg:      cfg,
		provider: provider,
		upserter: NewUpserter(deps.Store),
		sources:  NewSourceRegistry(deps.Store),
		deps:     deps,
		log:      deps.Log.With("provider", cfg.Name),
	}
}

// Run executes the job. It never returns an error; failures are recorded in
// the Result and logged.
func (j *Job) Run(ctx context.Context) *Result {
	r := &Result{Provider: j.cfg.Name}

	if j.cfg.SkipIfCached {
		cached, err := j.deps.Cache.Cached(ctx, j.cfg.Name)
		if err != nil {
			j.log.Warn("cache guard check failed, fetching anyway", "error", err)
		} else if cached {
			r.AlreadyCached = true
			j.log.Info("articles already cached, skipping fetch")
			return r
		}
	}

	if collect.NeedsKey(j.cfg.Kind) && j.cfg.APIKey() == "" {
		r.MissingKey = j.cfg.APIKeyEnv
		j.log.Warn("api key not configured, skipping fetch", "env", j.cfg.APIKeyEnv)
		return r
	}

	topics := j.provider.Topics()
	if len(topics) == 0 {
		topics = []string{""}
	}

	for _, topic := range topics {
		batch, err := j.provider.Fetch(ctx, topic)
		if err != nil {
			r.Err = err
			var ff *collect.FetchFailure
			if errors.As(err, &ff) && ff.Timeout() {
				j.log.Error("fetch timed out", "topic", topic, "error", err)
			} else {
				j.log.Error("fetch failed", "topic", topic, "error", err)
			}
			return r
		}
		r.Fetched += len(batch)

		entries := j.processBatch(ctx, batch, r)
		if len(entries) > 0 {
			r.Cached += j.deps.Cache.Cache(ctx, j.cfg.Name, entries)
		}
	}

	j.log.Info("ingest complete",
		"fetched", r.Fetched,
		"created", r.Created,
		"duplicates", r.Duplicates,
		"invalid", r.Invalid,
		"errors", r.Errors,
		"cached", r.Cached,
	)
	return r
}

// processBatch persists each record in order and returns the cache entries
// for every valid record, new or already stored.
func (j *Job) processBatch(ctx context.Context, batch []collect.RawArticle, r *Result) []cache.Entry {
	var entries []cache.Entry
	for _, raw := range batch {
		title := strings.TrimSpace(raw.Title)
		url := strings.TrimSpace(raw.URL)
		if title == "" || url == "" {
			r.Invalid++
			j.log.Warn("skipping article due to missing title or url", "title", title, "url", url)
			continue
		}

		published := j.parsePublished(raw.PublishedAt)

		sourceName := strings.TrimSpace(raw.SourceName)
		if sourceName == "" {
			sourceName = j.cfg.SourceName
		}
		if sourceName == "" {
			sourceName = DefaultSourceName
		}
		src, err := j.sources.Resolve(sourceName)
		if err != nil {
			r.Errors++
			j.log.Error("resolving source failed", "source", sourceName, "error", err)
			continue
		}

		content := raw.Content
		if j.deps.Enricher != nil && fetch.NeedsEnrichment(content) {
			content = j.enrich(ctx, url, content)
		}

		article := database.Article{
			Title:       title,
			Content:     content,
			Summary:     optional(raw.Description),
			ImageURL:    optional(raw.ImageURL),
			URL:         url,
			PublishedAt: published,
			SourceID:    &src.ID,
		}
		if cat := j.deps.Classifier.Classify(classify.Input{
			Title:   title,
			Summary: raw.Description,
			Body:    content,
			Topic:   raw.Topic,
		}); cat != nil {
			article.CategoryID = &cat.ID
		}

		_, created, err := j.upserter.Upsert(article)
		switch {
		case errors.Is(err, ErrInvalidArticle):
			r.Invalid++
			j.log.Warn("skipping invalid article", "url", url)
			continue
		case err != nil:
			r.Errors++
			j.log.Error("storing article failed", "url", url, "error", err)
			continue
		case created:
			r.Created++
		default:
			r.Duplicates++
			j.log.Debug("article already stored", "url", url)
		}

		entries = append(entries, cache.Entry{
			Title:       title,
			URL:         url,
			Summary:     raw.Description,
			ImageURL:    optional(raw.ImageURL),
			PublishedAt: published.Format(time.RFC3339),
			Source:      sourceName,
		})
	}
	return entries
}

// parsePublished accepts any common date layout; unparseable or empty
// values become the ingestion time.
func (j *Job) parsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		t, err := dateparse.ParseIn(s, time.UTC)
		if err == nil {
			return t.UTC()
		}
		j.log.Debug("unparseable publication date, using now", "value", s)
	}
	return j.deps.Now().UTC()
}

func (j *Job) enrich(ctx context.Context, url, content string) string {
	if known, err := j.upserter.Find(url); err == nil && known != nil {
		return content
	}
	text, err := j.deps.Enricher.Enrich(ctx, url)
	if err != nil {
		j.log.Debug("content enrichment failed", "url", url, "error", err)
		return content
	}
	return text
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
