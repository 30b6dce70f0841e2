package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Provider kinds understood by the collect package.
const (
	KindNewsAPI  = "newsapi"
	KindGNews    = "gnews"
	KindGuardian = "guardian"
	KindRSS      = "rss"
)

// Task identifiers accepted by the schedule table and the run command.
const (
	TaskFetch     = "fetch"
	TaskSweep     = "sweep"
	TaskHeartbeat = "heartbeat"
)

// Configuration validation errors.
var (
	ErrNoProviders        = errors.New("at least one provider is required")
	ErrProviderName       = errors.New("provider name is required")
	ErrDuplicateProvider  = errors.New("provider names must be unique")
	ErrProviderKind       = errors.New("provider kind must be one of: newsapi, gnews, guardian, rss")
	ErrProviderEndpoint   = errors.New("provider endpoint is required")
	ErrInvalidMaxArticles = errors.New("cache.max_articles must be at least 1")
	ErrInvalidTTL         = errors.New("cache.ttl_days must be at least 1")
	ErrInvalidBackend     = errors.New("cache.backend must be 'redis' or 'memory'")
	ErrInvalidRetention   = errors.New("retention.days must be at least 1")
	ErrInvalidTimeout     = errors.New("ingest.request_timeout_sec must be at least 1")
	ErrScheduleTrigger    = errors.New("schedule entry needs exactly one of 'every' or 'cron'")
	ErrScheduleEvery      = errors.New("schedule 'every' must be a positive duration")
	ErrScheduleCron       = errors.New("schedule 'cron' must have five fields")
	ErrScheduleTask       = errors.New("schedule task is not known")
)

type Config struct {
	Providers []Provider      `yaml:"providers"`
	Ingest    Ingest          `yaml:"ingest"`
	Cache     Cache           `yaml:"cache"`
	Retention Retention       `yaml:"retention"`
	Schedule  []ScheduleEntry `yaml:"schedule"`
	Output    Output          `yaml:"output"`
	Server    Server          `yaml:"server"`
	Logging   Logging         `yaml:"logging"`
}

// Provider describes one external news API.
type Provider struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Endpoint     string   `yaml:"endpoint"`
	APIKeyEnv    string   `yaml:"api_key_env"`
	Country      string   `yaml:"country"`
	Language     string   `yaml:"language"`
	Topics       []string `yaml:"topics"`
	PageSize     int      `yaml:"page_size"`
	SourceName   string   `yaml:"source_name"`
	Enabled      bool     `yaml:"enabled"`
	SkipIfCached bool     `yaml:"skip_if_cached"`
}

// APIKey reads the provider's key from the environment.
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

type Ingest struct {
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	EnrichContent     bool   `yaml:"enrich_content"`
	EnrichTimeoutSec  int    `yaml:"enrich_timeout_sec"`
	FallbackCategory  string `yaml:"fallback_category"`
}

// RequestTimeout returns the per-call timeout for provider requests.
func (i Ingest) RequestTimeout() time.Duration {
	return time.Duration(i.RequestTimeoutSec) * time.Second
}

type Cache struct {
	Backend     string `yaml:"backend"`
	URLEnv      string `yaml:"url_env"`
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	MaxArticles int    `yaml:"max_articles"`
	TTLDays     int    `yaml:"ttl_days"`
}

// TTL returns the rolling cache expiry.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

type Retention struct {
	Days int `yaml:"days"`
}

// Duration returns the sweep horizon.
func (r Retention) Duration() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// ScheduleEntry binds a task to an interval or a cron expression.
type ScheduleEntry struct {
	Name  string `yaml:"name"`
	Task  string `yaml:"task"`
	Every string `yaml:"every"`
	Cron  string `yaml:"cron"`
}

// Trigger renders the entry's timing for display.
func (s ScheduleEntry) Trigger() string {
	if s.Every != "" {
		return "every " + s.Every
	}
	return "cron " + s.Cron
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for ingestor.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "ingestor")
}

// DataDir returns the XDG data directory for ingestor.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "ingestor")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/ingestor/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'ingestor init' to create a default config",
		xdgConfig,
	)
}

// LoadEnv loads variables from a .env file if one exists. Variables already
// set in the environment win.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads, parses and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Ingest: Ingest{
			RequestTimeoutSec: 10,
			EnrichTimeoutSec:  15,
			FallbackCategory:  "General",
		},
		Cache: Cache{
			Backend:     "redis",
			URLEnv:      "REDIS_URL",
			Addr:        "localhost:6379",
			MaxArticles: 100,
			TTLDays:     28,
		},
		Retention: Retention{Days: 28},
		Server:    Server{Port: 8000},
		Logging:   Logging{Level: "info", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Providers {
		applyProviderDefaults(&cfg.Providers[i])
	}
	return cfg, nil
}

func applyProviderDefaults(p *Provider) {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if p.Kind == "" {
		p.Kind = p.Name
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	switch p.Kind {
	case KindNewsAPI:
		if p.Endpoint == "" {
			p.Endpoint = "https://newsapi.org/v2/top-headlines"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "NEWS_API_KEY"
		}
	case KindGNews:
		if p.Endpoint == "" {
			p.Endpoint = "https://gnews.io/api/v4/top-headlines"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "GNEWS_API_KEY"
		}
	case KindGuardian:
		if p.Endpoint == "" {
			p.Endpoint = "https://content.guardianapis.com/search"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "GUARDIAN_API_KEY"
		}
		if p.SourceName == "" {
			p.SourceName = "The Guardian"
		}
	}
}

// Validate checks the parsed configuration for values the jobs cannot work with.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return ErrNoProviders
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return ErrProviderName
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name)
		}
		seen[p.Name] = struct{}{}

		switch p.Kind {
		case KindNewsAPI, KindGNews, KindGuardian, KindRSS:
		default:
			return fmt.Errorf("%w (provider %s: %q)", ErrProviderKind, p.Name, p.Kind)
		}
		if p.Endpoint == "" {
			return fmt.Errorf("%w (provider %s)", ErrProviderEndpoint, p.Name)
		}
	}

	if c.Cache.Backend != "redis" && c.Cache.Backend != "memory" {
		return ErrInvalidBackend
	}
	if c.Cache.MaxArticles < 1 {
		return ErrInvalidMaxArticles
	}
	if c.Cache.TTLDays < 1 {
		return ErrInvalidTTL
	}
	if c.Retention.Days < 1 {
		return ErrInvalidRetention
	}
	if c.Ingest.RequestTimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	for _, s := range c.Schedule {
		if err := c.validateSchedule(s); err != nil {
			return fmt.Errorf("schedule %q: %w", s.Name, err)
		}
	}
	return nil
}

func (c *Config) validateSchedule(s ScheduleEntry) error {
	if (s.Every == "") == (s.Cron == "") {
		return ErrScheduleTrigger
	}
	if s.Every != "" {
		d, err := time.ParseDuration(s.Every)
		if err != nil || d <= 0 {
			return ErrScheduleEvery
		}
	}
	if s.Cron != "" && len(strings.Fields(s.Cron)) != 5 {
		return ErrScheduleCron
	}
	if !c.KnownTask(s.Task) {
		return fmt.Errorf("%w: %s", ErrScheduleTask, s.Task)
	}
	return nil
}

// KnownTask reports whether task names a job this configuration can run.
func (c *Config) KnownTask(task string) bool {
	switch task {
	case TaskFetch, TaskSweep, TaskHeartbeat:
		return true
	}
	name, ok := strings.CutPrefix(task, TaskFetch+":")
	if !ok {
		return false
	}
	_, found := c.Provider(name)
	return found
}

// Provider returns the provider with the given (case-insensitive) name.
func (c *Config) Provider(name string) (Provider, bool) {
	name = strings.ToLower(name)
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// EnabledProviders returns providers with enabled: true, in config order.
func (c *Config) EnabledProviders() []Provider {
	var out []Provider
	for _, p := range c.Providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
