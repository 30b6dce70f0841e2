// Package pipeline maps task identifiers to the jobs that implement them and
// runs them with shared, explicitly constructed clients.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/ingestor/internal/cache"
	"github.com/TobiSchelling/ingestor/internal/classify"
	"github.com/TobiSchelling/ingestor/internal/collect"
	"github.com/TobiSchelling/ingestor/internal/config"
	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/fetch"
	"github.com/TobiSchelling/ingestor/internal/housekeeping"
	"github.com/TobiSchelling/ingestor/internal/ingest"
)

// ErrUnknownTask is returned for task identifiers no job answers to.
var ErrUnknownTask = errors.New("unknown task")

// StepResult holds the result of a single job within a task.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of one task run.
type Result struct {
	Task  string
	RunID string
	Steps []StepResult
	Err   error
}

// Summary joins the step summaries into the task's report line.
func (r *Result) Summary() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	parts := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		parts = append(parts, s.Summary)
	}
	return strings.Join(parts, " ")
}

// Runner dispatches tasks against one database and one cache backend.
type Runner struct {
	cfg      *config.Config
	db       *database.DB
	backend  cache.Backend
	client   *collect.Client
	enricher ingest.Enricher
	log      *slog.Logger
}

// New creates a runner. The caller owns db and backend.
func New(cfg *config.Config, db *database.DB, backend cache.Backend, log *slog.Logger) *Runner {
	r := &Runner{
		cfg:     cfg,
		db:      db,
		backend: backend,
		client:  collect.NewClient(cfg.Ingest.RequestTimeout()),
		log:     log,
	}
	if cfg.Ingest.EnrichContent {
		r.enricher = fetch.NewContentFetcher(time.Duration(cfg.Ingest.EnrichTimeoutSec) * time.Second)
	}
	return r
}

// Run executes task. Result.Err is only set when the task is unknown; job
// failures live in the step summaries.
func (r *Runner) Run(ctx context.Context, task string) *Result {
	res := &Result{Task: task, RunID: uuid.NewString()}
	log := r.log.With("task", task, "run_id", res.RunID)
	log.Info("task started")
	started := time.Now()

	switch {
	case task == config.TaskFetch:
		providers := r.cfg.EnabledProviders()
		if len(providers) == 0 {
			res.Steps = append(res.Steps, StepResult{Name: "fetch", Summary: "No providers enabled."})
		}
		for _, p := range providers {
			res.Steps = append(res.Steps, r.runFetch(ctx, p, log))
		}
	case strings.HasPrefix(task, config.TaskFetch+":"):
		name := strings.TrimPrefix(task, config.TaskFetch+":")
		p, ok := r.cfg.Provider(name)
		if !ok {
			res.Err = fmt.Errorf("%w: no provider named %q", ErrUnknownTask, name)
			break
		}
		res.Steps = append(res.Steps, r.runFetch(ctx, p, log))
	case task == config.TaskSweep:
		res.Steps = append(res.Steps, r.runSweep(log))
	case task == config.TaskHeartbeat:
		res.Steps = append(res.Steps, r.runHeartbeat(ctx, log))
	default:
		res.Err = fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}

	if res.Err != nil {
		log.Error("task rejected", "error", res.Err)
		return res
	}
	log.Info("task finished", "duration", time.Since(started).Round(time.Millisecond), "summary", res.Summary())
	return res
}

func (r *Runner) runFetch(ctx context.Context, p config.Provider, log *slog.Logger) StepResult {
	name := config.TaskFetch + ":" + p.Name
	provider, err := collect.New(p, r.client)
	if err != nil {
		log.Error("building provider failed", "provider", p.Name, "error", err)
		return StepResult{Name: name, Summary: fmt.Sprintf("%s: %v.", p.Name, err), Err: err}
	}

	job := ingest.NewJob(p, provider, ingest.Deps{
		Store: r.db,
		Classifier: classify.New(r.db, log,
			classify.WithFallback(r.cfg.Ingest.FallbackCategory),
		),
		Cache:    cache.NewWriter(r.backend, r.cfg.Cache.MaxArticles, r.cfg.Cache.TTL(), log),
		Enricher: r.enricher,
		Log:      log,
	})
	res := job.Run(ctx)
	return StepResult{Name: name, Summary: res.Summary(), Err: res.Err}
}

func (r *Runner) runSweep(log *slog.Logger) StepResult {
	s := housekeeping.NewSweeper(r.db, r.cfg.Retention.Duration(), log)
	return StepResult{Name: config.TaskSweep, Summary: s.Run()}
}

func (r *Runner) runHeartbeat(ctx context.Context, log *slog.Logger) StepResult {
	p := housekeeping.NewPinger(r.backend, 5*time.Second, log)
	return StepResult{Name: config.TaskHeartbeat, Summary: p.Run(ctx)}
}
