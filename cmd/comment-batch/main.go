package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/generate"
	"github.com/reportmate/comment-engine/internal/llm/openai"
	"github.com/reportmate/comment-engine/internal/ratelimit"
	"github.com/reportmate/comment-engine/internal/roster"
	"github.com/reportmate/comment-engine/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite state")
		rosterPath = flag.String("roster", "", "class roster XLSX to import (required)")
		period     = flag.String("period", "", "reporting period, e.g. 2026-S1 (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to roster directory)")
	)
	flag.Parse()

	// Validate required flags
	if *rosterPath == "" {
		printError("Error: --roster is required\n")
		os.Exit(1)
	}
	if *period == "" {
		printError("Error: --period is required\n")
		os.Exit(1)
	}
	if v := common.NewValidator().Field("period", *period, common.Required, common.Period); v.HasErrors() {
		printError("Error: invalid --period: %s\n", v.ErrorMessage())
		os.Exit(1)
	}

	// If output file not specified, write next to the roster
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*rosterPath), "comments.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Ctrl-C aborts the batch but keeps everything already generated.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize state database
	dbPath := cfg.Store.Path
	if *inmem {
		dbPath = ":memory:"
	}
	db, err := store.OpenSQLite(ctx, dbPath, logger)
	if err != nil {
		logger.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.NewStore(logger)
	if err := db.Load(ctx, st); err != nil {
		logger.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	// Import the roster
	importer := roster.NewImporter(logger)
	students, err := importer.ImportFile(*rosterPath, *period)
	if err != nil {
		logger.Error("failed to import roster", "roster", *rosterPath, "error", err)
		os.Exit(1)
	}
	if len(students) == 0 {
		printError("Error: roster %s contains no students\n", *rosterPath)
		os.Exit(1)
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, s := range students {
		st.Put(s)
		ids = append(ids, s.ID)
	}

	// Wire the generation stack
	limiter := ratelimit.NewLimiter(ratelimit.DefaultTable, ratelimit.ModelConfig{
		RequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BaseDelay:         cfg.RateLimit.DefaultBaseDelay,
	}, logger)

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("LLM client initialized", "model", cfg.LLM.Model)

	coordinator := generate.NewCoordinator(generate.CoordinatorConfig{
		Store:                st,
		Registry:             generate.NewRegistry(),
		Limiter:              limiter,
		Generator:            client,
		SaveState:            db.SaveFunc(st),
		ModelKey:             cfg.LLM.Model,
		AggregationThreshold: cfg.Generation.AggregationThreshold,
		CallTimeout:          cfg.LLM.Timeout,
		Logger:               logger,
	})

	runner := generate.NewBatchRunner(generate.BatchRunnerConfig{
		Coordinator:     coordinator,
		Store:           st,
		Limiter:         limiter,
		ModelKey:        cfg.LLM.Model,
		FallbackBackoff: cfg.Generation.QuotaBackoff,
		OnProgress: func(p generate.Progress) {
			if p.CurrentLabel == "" {
				return
			}
			fmt.Printf("[%d/%d] %s (about %.1f min remaining)\n",
				p.Processed+1, p.Total, p.CurrentLabel, p.ETAMinutes)
		},
		Logger: logger,
	})

	est := limiter.Estimate(cfg.LLM.Model, len(ids))
	logger.Info("starting batch generation",
		"students", len(ids), "period", *period, "estimated_minutes", est.TotalMinutes)

	result := runner.Run(ctx, ids, *period)

	// Export to XLSX
	logger.Info("exporting comments", "output", *out)
	exporter := roster.NewExporter(logger)
	xlsxBytes, err := exporter.ExportCommentsXLSX(st.List(), *period)
	if err != nil {
		logger.Error("failed to export comments", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	// Log summary
	logger.Info("batch generation complete",
		"students", len(ids),
		"generated", result.Processed,
		"failed", len(result.Failed),
		"aborted", result.Aborted,
		"elapsed", result.Elapsed,
		"output_file", *out)

	fmt.Printf("Batch generation complete!\n")
	fmt.Printf("- Students: %d\n", len(ids))
	fmt.Printf("- Generated: %d\n", result.Processed)
	fmt.Printf("- Failed: %d\n", len(result.Failed))
	for _, f := range result.Failed {
		fmt.Printf("    %s: %s\n", f.Label, f.Message)
	}
	if result.Aborted {
		fmt.Printf("- Aborted early, completed comments were kept\n")
	}
	fmt.Printf("- Output: %s\n", *out)
}
