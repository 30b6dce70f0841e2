package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultMaxArticles = 100
	DefaultTTL         = 28 * 24 * time.Hour
)

// Entry is the read-optimised projection of an article kept in the cache.
type Entry struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Summary     string  `json:"summary"`
	ImageURL    *string `json:"image_url"`
	PublishedAt string  `json:"published_at"`
	Source      string  `json:"source"`
}

// Key returns the list key for a provider.
func Key(provider string) string {
	return "news:" + strings.ToLower(provider)
}

// Writer maintains the rolling list per provider. The read-then-write
// sequence is not atomic: two concurrent Cache calls for the same provider
// can both push the same URL.
type Writer struct {
	backend     Backend
	maxArticles int
	ttl         time.Duration
	log         *slog.Logger
}

// NewWriter creates a writer. Non-positive limits fall back to the defaults.
func NewWriter(backend Backend, maxArticles int, ttl time.Duration, log *slog.Logger) *Writer {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Writer{backend: backend, maxArticles: maxArticles, ttl: ttl, log: log}
}

// Cache pushes entries whose URL is not already in the provider's list, then
// trims the list and refreshes its TTL. It returns how many entries were
// pushed. Backend errors are logged and end the call; they never propagate.
func (w *Writer) Cache(ctx context.Context, provider string, entries []Entry) int {
	key := Key(provider)

	existing, err := w.backend.LRange(ctx, key, 0, -1)
	if err != nil {
		w.log.Error("cache read failed", "key", key, "error", err)
		return 0
	}

	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, raw := range existing {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			w.log.Warn("skipping malformed cache entry", "key", key, "error", err)
			continue
		}
		seen[e.URL] = struct{}{}
	}

	var fresh []string
	for _, e := range entries {
		if _, dup := seen[e.URL]; dup {
			continue
		}
		seen[e.URL] = struct{}{}
		data, err := json.Marshal(e)
		if err != nil {
			w.log.Warn("skipping unencodable cache entry", "url", e.URL, "error", err)
			continue
		}
		fresh = append(fresh, string(data))
	}

	if len(fresh) == 0 {
		w.log.Info("no new articles to cache", "provider", provider)
		return 0
	}

	if err := w.backend.LPush(ctx, key, fresh...); err != nil {
		w.log.Error("cache push failed", "key", key, "error", err)
		return 0
	}
	if err := w.backend.LTrim(ctx, key, 0, int64(w.maxArticles-1)); err != nil {
		w.log.Error("cache trim failed", "key", key, "error", err)
		return len(fresh)
	}
	if err := w.backend.Expire(ctx, key, w.ttl); err != nil {
		w.log.Error("cache expire failed", "key", key, "error", err)
	}

	w.log.Debug("cached articles", "key", key, "pushed", len(fresh))
	return len(fresh)
}

// Cached reports whether the provider's list exists.
func (w *Writer) Cached(ctx context.Context, provider string) (bool, error) {
	return w.backend.Exists(ctx, Key(provider))
}

// Reader serves the cached lists.
type Reader struct {
	backend Backend
}

// NewReader creates a reader over backend.
func NewReader(backend Backend) *Reader {
	return &Reader{backend: backend}
}

// Latest returns up to n entries for provider, newest first. n <= 0 returns
// the whole list. Undecodable entries are skipped.
func (r *Reader) Latest(ctx context.Context, provider string, n int) ([]Entry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	raw, err := r.backend.LRange(ctx, Key(provider), 0, stop)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if json.Unmarshal([]byte(s), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of entries cached for provider.
func (r *Reader) Count(ctx context.Context, provider string) (int, error) {
	raw, err := r.backend.LRange(ctx, Key(provider), 0, -1)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
