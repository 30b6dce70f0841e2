package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ingestor/internal/cache"
	"github.com/TobiSchelling/ingestor/internal/config"
	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/logger"
	"github.com/TobiSchelling/ingestor/internal/pipeline"
	"github.com/TobiSchelling/ingestor/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	envPath    string
	cfg        *config.Config
	log        *slog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ingestor",
	Short:   "Scheduled news ingestion into SQLite and a rolling Redis cache",
	Long:    "ingestor fetches headlines from news APIs, classifies them into categories, stores each URL once and keeps a bounded cache of the latest items per provider.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(envPath); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log = logger.New(os.Stderr, level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Path to a .env file with API keys")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(heartbeatCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ingestor", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/ingestor/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set NEWS_API_KEY (and REDIS_URL) in the environment or a .env file.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Articles:")
		fmt.Printf("  Total: %d\n", stats.TotalArticles)
		fmt.Printf("  Imported: %d\n", stats.ImportedArticles)
		fmt.Printf("  Curated: %d\n", stats.CuratedArticles)
		fmt.Printf("  Uncategorized: %d\n", stats.Uncategorized)
		fmt.Printf("\nSources: %d\n", stats.Sources)
		fmt.Printf("Categories: %d\n", stats.Categories)

		backend, err := cache.Open(cfg.Cache)
		if err != nil {
			return err
		}
		defer backend.Close()

		fmt.Printf("\nCache (%s):\n", cfg.Cache.Backend)
		if err := backend.Ping(cmd.Context()); err != nil {
			fmt.Printf("  unavailable: %v\n", err)
			return nil
		}
		reader := cache.NewReader(backend)
		for _, p := range cfg.EnabledProviders() {
			n, err := reader.Count(cmd.Context(), p.Name)
			if err != nil {
				fmt.Printf("  %s: error: %v\n", cache.Key(p.Name), err)
				continue
			}
			fmt.Printf("  %s: %d entries\n", cache.Key(p.Name), n)
		}
		return nil
	},
}

// --- task commands ---

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run a task: fetch, fetch:<provider>, sweep or heartbeat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd.Context(), args[0])
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [provider]",
	Short: "Fetch, classify, store and cache articles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := config.TaskFetch
		if len(args) == 1 {
			task = config.TaskFetch + ":" + args[0]
		}
		return runTask(cmd.Context(), task)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete imported articles past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd.Context(), config.TaskSweep)
	},
}

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Ping the cache backend to keep it alive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd.Context(), config.TaskHeartbeat)
	},
}

func runTask(ctx context.Context, task string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	backend, err := cache.Open(cfg.Cache)
	if err != nil {
		return err
	}
	defer backend.Close()

	result := pipeline.New(cfg, db, backend, log).Run(ctx, task)
	if result.Err != nil {
		return result.Err
	}
	for _, step := range result.Steps {
		fmt.Println(step.Summary)
	}
	return nil
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the configured schedule for an external scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Schedule) == 0 {
			fmt.Println("No schedule entries configured.")
			return nil
		}
		rows := make([][]string, 0, len(cfg.Schedule))
		for _, s := range cfg.Schedule {
			rows = append(rows, []string{s.Name, s.Task, s.Trigger(), "ingestor run " + s.Task})
		}
		printTable(os.Stdout, []string{"NAME", "TASK", "TRIGGER", "COMMAND"}, rows, nil)
		return nil
	},
}

// --- latest command ---

var latestLimit int

var latestCmd = &cobra.Command{
	Use:   "latest <provider>",
	Short: "Show the newest cached articles for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cache.Open(cfg.Cache)
		if err != nil {
			return err
		}
		defer backend.Close()

		entries, err := cache.NewReader(backend).Latest(cmd.Context(), args[0], latestLimit)
		if err != nil {
			return fmt.Errorf("reading cache: %w", err)
		}
		if len(entries) == 0 {
			fmt.Printf("Nothing cached under %s.\n", cache.Key(args[0]))
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.PublishedAt, e.Source, e.Title})
		}
		printTable(os.Stdout, []string{"PUBLISHED", "SOURCE", "TITLE"}, rows, []int{20, 24, 72})
		return nil
	},
}

func init() {
	latestCmd.Flags().IntVarP(&latestLimit, "limit", "n", 10, "Number of entries to show")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		backend, err := cache.Open(cfg.Cache)
		if err != nil {
			return err
		}
		defer backend.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cmd.Context(), server.New(db, backend, log), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "ingestor.db")
	return database.Open(dbPath)
}
