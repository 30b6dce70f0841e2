// Package classify assigns ingested articles to a seeded category using a
// static topic table and an ordered keyword rule list.
package classify

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/database"
)

// DefaultFallback is the sentinel category used when nothing matches.
const DefaultFallback = "General"

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// CategoryLookup resolves a category name. A missing category is (nil, nil).
type CategoryLookup interface {
	GetCategoryByName(name string) (*database.Category, error)
}

// Input is the text a classification decision is based on.
type Input struct {
	Title   string
	Summary string
	Body    string
	Topic   string
}

// Classifier maps Input to a Category. It is safe for concurrent use as long
// as the lookup is.
type Classifier struct {
	lookup   CategoryLookup
	rules    []Rule
	topics   map[string]string
	fallback string
	log      *slog.Logger
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithRules replaces the keyword rules. Keywords are lowercased.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = lowerRules(rules) }
}

// WithTopics replaces the topic table. Keys are matched lowercased.
func WithTopics(topics map[string]string) Option {
	return func(c *Classifier) {
		c.topics = make(map[string]string, len(topics))
		for k, v := range topics {
			c.topics[strings.ToLower(k)] = v
		}
	}
}

// WithFallback sets the sentinel category name.
func WithFallback(name string) Option {
	return func(c *Classifier) {
		if name != "" {
			c.fallback = name
		}
	}
}

// New creates a classifier backed by lookup.
func New(lookup CategoryLookup, log *slog.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		lookup:   lookup,
		rules:    lowerRules(DefaultRules),
		topics:   DefaultTopics,
		fallback: DefaultFallback,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the category for in, or nil when neither the match nor
// the fallback exists. It never fails; lookup errors count as "missing".
func (c *Classifier) Classify(in Input) *database.Category {
	if topic := strings.ToLower(strings.TrimSpace(in.Topic)); topic != "" {
		if name, ok := c.topics[topic]; ok {
			if cat := c.find(name); cat != nil {
				return cat
			}
		}
	}

	if name := c.Match(in); name != "" {
		if cat := c.find(name); cat != nil {
			return cat
		}
		c.log.Debug("matched category missing, using fallback", "category", name)
	} else {
		c.log.Debug("no category matched", "title", in.Title)
	}

	cat := c.find(c.fallback)
	if cat == nil {
		c.log.Warn("fallback category does not exist", "category", c.fallback)
	}
	return cat
}

// Match returns the category name of the first keyword rule matching the
// normalised text, or "" when none does. It does not consult storage.
func (c *Classifier) Match(in Input) string {
	text := Normalize(in.Title + " " + in.Summary + " " + in.Body)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return ""
}

// Normalize strips punctuation and lowercases text.
func Normalize(text string) string {
	return punctuation.ReplaceAllString(strings.ToLower(text), "")
}

func (c *Classifier) find(name string) *database.Category {
	cat, err := c.lookup.GetCategoryByName(name)
	if err != nil {
		c.log.Warn("category lookup failed", "category", name, "error", err)
		return nil
	}
	return cat
}

func lowerRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		out[i] = Rule{Category: r.Category, Keywords: kws}
	}
	return out
}
