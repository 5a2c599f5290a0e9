package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
	"github.com/TobiSchelling/tweelyzer/internal/config"
	"github.com/TobiSchelling/tweelyzer/internal/database"
	"github.com/TobiSchelling/tweelyzer/internal/export"
	"github.com/TobiSchelling/tweelyzer/internal/fetch"
	"github.com/TobiSchelling/tweelyzer/internal/logging"
	"github.com/TobiSchelling/tweelyzer/internal/pipeline"
	"github.com/TobiSchelling/tweelyzer/internal/report"
	"github.com/TobiSchelling/tweelyzer/internal/server"
	"github.com/TobiSchelling/tweelyzer/internal/session"
	"github.com/TobiSchelling/tweelyzer/internal/validate"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	cfgPath    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tweelyzer",
	Short:        "Sentiment and fact-check analysis for posts on X",
	Long:         "Tweelyzer sends a post URL to the analysis API, shows the sentiment and fact-check result, and exports it as a text report.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		logging.Init(os.Stderr, "INFO", verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfgPath = path
		logging.Init(os.Stderr, cfg.Logging.Level, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(readCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tweelyzer", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tweelyzer/",
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
		fmt.Printf("Edit it to set the analysis endpoint, or export %s.\n", config.BaseURLEnv)
		return nil
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate [url]",
	Short: "Check whether a URL is an X/Twitter post link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := validate.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Valid post URL: @%s, status %s\n", ref.Handle, ref.ID)
		return nil
	},
}

// --- analyze command ---

var (
	exportReport bool
	outDir       string
	jsonOutput   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze a post and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		var recorder pipeline.Recorder
		if history != nil {
			defer history.Close()
			recorder = history
		}

		dir := cfg.GetExportDir()
		if outDir != "" {
			dir = outDir
		}
		pipe := pipeline.New(newClient(), export.NewEmitter(dir), recorder)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result := pipe.Run(ctx, args[0], exportReport)
		if err := result.Err(); err != nil {
			if errors.Is(err, analysis.ErrCanceled) {
				fmt.Fprintln(os.Stderr, "Analysis canceled.")
				return nil
			}
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Analysis); err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
		} else {
			fmt.Print(report.Format(result.Analysis))
		}

		for _, step := range result.Steps {
			fmt.Fprintf(os.Stderr, "%s: %s\n", step.Name, step.Summary)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVarP(&exportReport, "export", "e", false, "Write the report to a file")
	analyzeCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for exported reports")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw analysis as JSON instead of the report")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		var recorder pipeline.Recorder
		if history != nil {
			defer history.Close()
			recorder = history
		}

		sessions, err := session.NewStore(cfg.Server.Sessions)
		if err != nil {
			return err
		}
		pipe := pipeline.New(newClient(), export.NewEmitter(cfg.GetExportDir()), recorder)
		srv, err := server.New(pipe, sessions)
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting dashboard at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the dashboard on (default from config)")
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		if db == nil {
			fmt.Println("History is disabled. Set history.enabled: true in your config to record analyses.")
			return nil
		}
		defer db.Close()

		runs, err := db.RecentRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No analyses recorded yet.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("  %-9s %-14s %6dms  %s\n", r.Outcome, humanize.Time(r.RequestedAt), r.DurationMS, r.URL)
			if r.Error != nil {
				fmt.Printf("            %s\n", *r.Error)
			}
		}

		exports, err := db.RecentExports(historyLimit)
		if err != nil {
			return fmt.Errorf("reading exports: %w", err)
		}
		if len(exports) > 0 {
			fmt.Println("\nExports:")
			for _, e := range exports {
				fmt.Printf("  %-14s %s\n", humanize.Time(e.ExportedAt), e.Path)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and history status",
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfgPath
		if source == "" {
			source = "(defaults)"
		}
		fmt.Printf("Config: %s\n", source)
		fmt.Printf("Analysis API: %s\n", cfg.API.BaseURL)
		fmt.Printf("  Timeout: %s, retries: %d\n", cfg.API.Timeout, cfg.API.Retries)
		fmt.Printf("Export directory: %s\n", cfg.GetExportDir())

		db, err := openHistory()
		if err != nil {
			return err
		}
		if db == nil {
			fmt.Println("History: disabled")
			return nil
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		fmt.Printf("History: %s\n", db.Path())
		fmt.Printf("  Analyses: %d (%d ok, %d failed, %d canceled, %d invalid)\n",
			stats.TotalRuns, stats.Succeeded, stats.Failed, stats.Canceled, stats.Invalid)
		fmt.Printf("  Reports exported: %d\n", stats.Exports)
		if stats.LastRunAt != nil {
			fmt.Printf("  Last analysis: %s\n", humanize.Time(*stats.LastRunAt))
		}
		return nil
	},
}

// --- read command ---

var readCmd = &cobra.Command{
	Use:   "read [url...]",
	Short: "Fetch evidence sources and print their readable text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := fetch.NewReader(cfg.Reader.Timeout, cfg.Reader.UserAgent)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failed := 0
		for i, o := range reader.ReadAll(ctx, args) {
			if i > 0 {
				fmt.Println(strings.Repeat("-", 60))
			}
			if o.Err != nil {
				failed++
				fmt.Printf("%s\n  Error: %v\n", o.URL, o.Err)
				continue
			}
			fmt.Println(o.Page.Title)
			if o.Page.Byline != "" {
				fmt.Println(o.Page.Byline)
			}
			fmt.Printf("%s\n\n%s\n", o.Page.URL, o.Page.Text)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sources could not be read", failed, len(args))
		}
		return nil
	},
}

func newClient() *analysis.Client {
	return analysis.NewClient(cfg.API.BaseURL, analysis.Options{
		Timeout: cfg.API.Timeout,
		Retries: cfg.API.Retries,
		Backoff: cfg.API.Backoff,
	})
}

// openHistory opens the ledger when enabled, and returns nil otherwise.
func openHistory() (*database.DB, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return database.OpenInDir(cfg.GetDataDir())
}
