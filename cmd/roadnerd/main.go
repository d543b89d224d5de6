package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"roadnerd/internal/brainstorm"
	"roadnerd/internal/config"
	"roadnerd/internal/engine"
	"roadnerd/internal/export"
	"roadnerd/internal/logging"
	"roadnerd/internal/progress"
	"roadnerd/internal/roadmap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workDir    string

	// Logger
	logger *zap.Logger

	// Loaded in PersistentPreRunE, shared by all commands.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roadnerd",
	Short: "roadNERD - Gap Detection & Strategic Roadmap Generation",
	Long: `roadNERD analyzes a codebase against its specification and documentation,
detects implementation gaps via AST-level signature verification, brainstorms
desirable features, and generates a phased, dependency-ordered roadmap with
timeline estimates.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logging.Configure(filepath.Dir(workDir), logging.Settings{
			DebugMode:  cfg.Logging.DebugMode,
			Categories: cfg.Logging.Categories,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
		}); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

var (
	analyzeSpecs   string
	analyzeDocs    string
	analyzeOut     string
	analyzeFormats []string
	analyzeProject string
	noBrainstorm   bool
	previousPath   string
	reinstateIDs   []string
	freshRun       bool
)

// analyzeCmd runs the full pipeline on a codebase
var analyzeCmd = &cobra.Command{
	Use:   "analyze [code-dir]",
	Short: "Analyze a codebase and generate a roadmap",
	Long: `Runs the full pipeline: scans the code once, verifies specification
requirements and documentation claims against it, optionally brainstorms new
features via the configured provider, scores and prioritizes everything, and
exports the roadmap.

Example:
  roadnerd analyze . --specs docs/specs --docs README.md --out roadmap/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var progressAgainst string

// progressCmd compares the current roadmap against history
var progressCmd = &cobra.Command{
	Use:   "progress [roadmap.json]",
	Short: "Track roadmap progress across snapshots",
	Long: `Loads a roadmap artifact, saves it as a snapshot, and reports the delta
against the previous snapshot plus completion velocity over the full history.

Example:
  roadnerd progress roadmap/roadmap.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProgress,
}

// exportCmd re-exports an existing roadmap artifact
var exportCmd = &cobra.Command{
	Use:   "export [roadmap.json]",
	Short: "Re-export a roadmap artifact to other formats",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

// initCmd writes a default config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".roadnerd/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", ".roadnerd", "working directory for logs and history")

	analyzeCmd.Flags().StringVar(&analyzeSpecs, "specs", "", "specification directory")
	analyzeCmd.Flags().StringVar(&analyzeDocs, "docs", "", "documentation directory")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "roadmap", "output directory")
	analyzeCmd.Flags().StringSliceVar(&analyzeFormats, "format", nil, "export formats (markdown,json,csv,issues); default all")
	analyzeCmd.Flags().StringVar(&analyzeProject, "project", "", "project name (default: code dir base name)")
	analyzeCmd.Flags().BoolVar(&noBrainstorm, "no-brainstorm", false, "skip feature brainstorming")
	analyzeCmd.Flags().StringVar(&previousPath, "previous", "", "prior roadmap.json; completed and wont-do items stay excluded (default: <out>/roadmap.json when present)")
	analyzeCmd.Flags().StringSliceVar(&reinstateIDs, "reinstate", nil, "item IDs to bring back despite being completed or wont-do in the prior roadmap")
	analyzeCmd.Flags().BoolVar(&freshRun, "fresh", false, "ignore any prior roadmap state")

	exportCmd.Flags().StringVar(&analyzeOut, "out", "roadmap", "output directory")
	exportCmd.Flags().StringSliceVar(&analyzeFormats, "format", nil, "export formats; default all")

	progressCmd.Flags().StringVar(&progressAgainst, "against", "", "compare against this roadmap.json instead of the last snapshot")

	rootCmd.AddCommand(analyzeCmd, progressCmd, exportCmd, initCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	codeDir := "."
	if len(args) > 0 {
		codeDir = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	project := analyzeProject
	if project == "" {
		abs, err := filepath.Abs(codeDir)
		if err == nil {
			project = filepath.Base(abs)
		} else {
			project = codeDir
		}
	}

	provider, err := buildProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if provider == nil {
		logger.Info("brainstorming disabled", zap.Bool("no_brainstorm", noBrainstorm))
	}

	previous, err := loadPrevious()
	if err != nil {
		return err
	}

	eng := engine.New(cfg, provider)
	res, err := eng.Analyze(cmd.Context(), engine.Input{
		Project:   project,
		CodeDir:   codeDir,
		SpecsDir:  analyzeSpecs,
		DocsDir:   analyzeDocs,
		Previous:  previous,
		Reinstate: reinstateIDs,
	})
	if err != nil {
		return err
	}

	logger.Info("analysis complete",
		zap.String("run_id", res.RunID),
		zap.Int("spec_gaps", len(res.SpecGaps)),
		zap.Int("feature_gaps", len(res.FeatureGaps)),
		zap.Int("items", len(res.Roadmap.Items)),
		zap.Float64("readiness", res.Completeness.ProductionReadiness),
		zap.Bool("partial", res.Partial))

	written, errs := export.Export(res.Roadmap, analyzeOut, parseFormats(analyzeFormats))
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
	return joinExportErrors(errs)
}

func runProgress(cmd *cobra.Command, args []string) error {
	current, err := progress.LoadProgress(args[0])
	if err != nil {
		return err
	}

	store, err := progress.NewStore(workDir)
	if err != nil {
		return err
	}
	defer store.Close()

	var previous *progress.Snapshot
	if progressAgainst != "" {
		rm, err := progress.LoadProgress(progressAgainst)
		if err != nil {
			return err
		}
		previous = &progress.Snapshot{Roadmap: rm}
	} else {
		previous, err = store.LatestSnapshot()
		if err != nil {
			return err
		}
	}

	if _, err := store.SaveSnapshot(current); err != nil {
		return err
	}

	if previous == nil {
		fmt.Println("First snapshot saved; nothing to compare yet.")
		return nil
	}

	delta := progress.CalculateDelta(previous.Roadmap, current)
	printDelta(delta)

	history, err := store.ListSnapshots(0)
	if err != nil {
		return err
	}
	velocity, err := progress.CalculateVelocity(history)
	if err != nil {
		fmt.Printf("Velocity: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("Velocity: %.1f h/week, %.1f items/week over %d snapshots\n",
		velocity.HoursPerWeek, velocity.ItemsPerWeek, velocity.SnapshotCount)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	rm, err := export.LoadRoadmap(args[0])
	if err != nil {
		return err
	}
	written, errs := export.Export(rm, analyzeOut, parseFormats(analyzeFormats))
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
	return joinExportErrors(errs)
}

// loadPrevious resolves the roadmap from the last run so its completed and
// wont-do items stay excluded. An explicit --previous path must load; the
// default location under --out is optional.
func loadPrevious() (*roadmap.Roadmap, error) {
	if freshRun {
		return nil, nil
	}
	path := previousPath
	if path == "" {
		path = filepath.Join(analyzeOut, "roadmap.json")
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}
	rm, err := export.LoadRoadmap(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous roadmap: %w", err)
	}
	return rm, nil
}

// buildProvider selects the suggestion provider from config and flags.
func buildProvider(ctx context.Context, cfg *config.Config) (brainstorm.SuggestionProvider, error) {
	if noBrainstorm || cfg.Brainstorm.Provider == "none" || cfg.Brainstorm.Provider == "" {
		return nil, nil
	}
	if cfg.Brainstorm.APIKey == "" {
		// No key means analysis-only; not an error.
		return nil, nil
	}
	return brainstorm.NewGeminiProvider(ctx, cfg.Brainstorm.APIKey, cfg.Brainstorm.Model)
}

func parseFormats(names []string) []export.Format {
	var out []export.Format
	for _, n := range names {
		out = append(out, export.Format(strings.ToLower(strings.TrimSpace(n))))
	}
	return out
}

func joinExportErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("export failures: %s", strings.Join(msgs, "; "))
}

func printDelta(d progress.Delta) {
	if d.Empty() {
		fmt.Println("No changes since the previous snapshot.")
		return
	}
	if len(d.Added) > 0 {
		fmt.Printf("Added:     %s\n", strings.Join(d.Added, ", "))
	}
	if len(d.Removed) > 0 {
		fmt.Printf("Removed:   %s\n", strings.Join(d.Removed, ", "))
	}
	if len(d.Completed) > 0 {
		fmt.Printf("Completed: %s\n", strings.Join(d.Completed, ", "))
	}
	for _, c := range d.Changed {
		for _, fc := range c.Changes {
			fmt.Printf("Changed:   %s %s: %s -> %s\n", c.ID, fc.Field, fc.Old, fc.New)
		}
	}
}
