package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/llm"
	"github.com/reportmate/comment-engine/internal/llm/openai"
	"github.com/reportmate/comment-engine/internal/ratelimit"
)

// llmcheck fires N generation calls for a synthetic student against the
// configured provider. Useful for verifying credentials, model choice and
// rate-limit behavior before a real batch run.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	times := 3
	if len(os.Args) >= 2 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultTable, ratelimit.ModelConfig{
		RequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BaseDelay:         cfg.RateLimit.DefaultBaseDelay,
	}, logger)

	grade := 2.5
	req := llm.CommentRequest{
		StudentName: "Sample Student",
		Period:      "2026-S1",
		Grade:       &grade,
		ContextNote: "transferred mid-year, settling in well",
		StatusTags:  []string{"Participation", "Homework"},
		Notes: []string{
			"volunteered to present group results",
			"homework late twice in a row",
		},
		ActiveTags: []string{"Participation"},
	}

	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.LLM.Timeout)
		if err := limiter.WaitIfNeeded(runCtx, cfg.LLM.Model); err != nil {
			cancelRun()
			logger.Error("llmcheck.wait_cancelled", "iter", i, "error", err)
			os.Exit(1)
		}

		start := time.Now()
		res, err := client.GenerateComment(runCtx, req)
		cancelRun()

		if err != nil {
			if common.IsQuotaError(err) {
				hint, _ := limiter.MarkRateLimited(cfg.LLM.Model, err.Error())
				logger.Warn("llmcheck.rate_limited", "iter", i, "suggested_wait", hint)
				continue
			}
			logger.Error("llmcheck.error", "iter", i, "error", err)
			continue
		}

		limiter.MarkSuccess(cfg.LLM.Model)
		logger.Info("llmcheck.ok",
			"iter", i,
			"chars", len(res.Text),
			"confidence", res.Confidence,
			"total_tokens", res.Usage.TotalTokens,
			"cost_usd", res.Usage.EstimatedCostUSD,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}

	logger.Info("done", "model", cfg.LLM.Model, "times", times)
}
