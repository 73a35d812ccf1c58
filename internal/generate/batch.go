package generate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reportmate/comment-engine/constants"
	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/llm"
	"github.com/reportmate/comment-engine/internal/metrics"
	"github.com/reportmate/comment-engine/internal/ratelimit"
	"github.com/reportmate/comment-engine/internal/store"
)

// Progress is emitted before each item and once after the run ends.
type Progress struct {
	Processed    int
	Total        int
	CurrentLabel string
	ETAMinutes   float64
	Elapsed      time.Duration
}

// BatchFailure records one item that did not produce a comment. Quota marks
// failures caused by provider rate limiting after the backoff was spent.
type BatchFailure struct {
	ID      uuid.UUID
	Label   string
	Message string
	Quota   bool
}

// BatchResult summarizes a run. Completed items always survive an abort.
type BatchResult struct {
	Processed int
	Failed    []BatchFailure
	Aborted   bool
	Elapsed   time.Duration
	Status    constants.JobStatus
}

// BatchRunner processes entities strictly in the given order, pacing calls
// through the shared rate limiter. Quota exhaustion on one item backs off
// once, marks the item failed and moves on; cancellation aborts the rest of
// the run while keeping everything already written.
type BatchRunner struct {
	coord   *Coordinator
	store   *store.Store
	limiter *ratelimit.Limiter

	modelKey        string
	fallbackBackoff time.Duration // used when the provider gave no retry-after hint
	onProgress      func(Progress)
	logger          *slog.Logger
}

type BatchRunnerConfig struct {
	Coordinator     *Coordinator
	Store           *store.Store
	Limiter         *ratelimit.Limiter
	ModelKey        string
	FallbackBackoff time.Duration
	OnProgress      func(Progress)
	Logger          *slog.Logger
}

func NewBatchRunner(cfg BatchRunnerConfig) *BatchRunner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FallbackBackoff <= 0 {
		cfg.FallbackBackoff = 15 * time.Second
	}
	return &BatchRunner{
		coord:           cfg.Coordinator,
		store:           cfg.Store,
		limiter:         cfg.Limiter,
		modelKey:        cfg.ModelKey,
		fallbackBackoff: cfg.FallbackBackoff,
		onProgress:      cfg.OnProgress,
		logger:          cfg.Logger,
	}
}

// Run generates comments for the given entity IDs in order. It never returns
// an error for per-item failures; only the aggregate result reports them.
func (b *BatchRunner) Run(ctx context.Context, ids []uuid.UUID, period string) BatchResult {
	ctx = common.WithBatchID(ctx, uuid.NewString())
	started := time.Now()
	result := BatchResult{Failed: make([]BatchFailure, 0)}
	total := len(ids)

	b.logger.Info("generate.batch.start", "items", total, "period", period, "model", b.modelKey)

	for i, id := range ids {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}

		label := id.String()
		if e, ok := b.store.Get(id); ok {
			label = e.Label()
		}

		// Pacing applies between items; the first one goes out immediately.
		if i > 0 && b.limiter != nil {
			waited := b.limiter.WaitTime(b.modelKey)
			if err := b.limiter.WaitIfNeeded(ctx, b.modelKey); err != nil {
				result.Aborted = true
				break
			}
			metrics.RateLimitWaitSeconds.Observe(waited.Seconds())
		}

		b.emit(Progress{
			Processed:    result.Processed,
			Total:        total,
			CurrentLabel: label,
			ETAMinutes:   b.estimateMinutes(total - i),
			Elapsed:      time.Since(started),
		})

		_, err := b.coord.Generate(ctx, id, period)
		switch {
		case err == nil:
			result.Processed++
			metrics.BatchItemsTotal.WithLabelValues("success").Inc()

		case common.IsCancelled(err):
			result.Aborted = true
			metrics.BatchItemsTotal.WithLabelValues("aborted").Inc()

		case common.IsQuotaError(err):
			result.Failed = append(result.Failed, BatchFailure{
				ID: id, Label: label, Message: common.UserMessage(err), Quota: true,
			})
			metrics.BatchItemsTotal.WithLabelValues("quota").Inc()
			backoff := b.fallbackBackoff
			if hint, ok := llm.RetryAfterHint(err); ok {
				backoff = hint
			}
			b.logger.Warn("generate.batch.quota_backoff",
				"entity", id, "student", label, "backoff", backoff)
			if b.sleep(ctx, backoff) != nil {
				result.Aborted = true
			}

		default:
			result.Failed = append(result.Failed, BatchFailure{
				ID: id, Label: label, Message: common.UserMessage(err),
			})
			metrics.BatchItemsTotal.WithLabelValues("failed").Inc()
		}

		if result.Aborted {
			break
		}
	}

	result.Elapsed = time.Since(started)
	switch {
	case result.Aborted:
		result.Status = constants.JobStatusAborted
	case len(result.Failed) > 0:
		result.Status = constants.JobStatusFailed
	default:
		result.Status = constants.JobStatusDone
	}
	b.emit(Progress{
		Processed: result.Processed,
		Total:     total,
		Elapsed:   result.Elapsed,
	})
	b.logger.Info("generate.batch.done",
		"status", result.Status,
		"processed", result.Processed,
		"failed", len(result.Failed),
		"aborted", result.Aborted,
		"elapsed", result.Elapsed,
	)
	return result
}

func (b *BatchRunner) sleep(ctx context.Context, d time.Duration) error {
	if b.limiter != nil {
		return b.limiter.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return common.ErrCancelled
	case <-time.After(d):
		return nil
	}
}

func (b *BatchRunner) estimateMinutes(remaining int) float64 {
	if b.limiter == nil || remaining <= 0 {
		return 0
	}
	return b.limiter.Estimate(b.modelKey, remaining).TotalMinutes
}

func (b *BatchRunner) emit(p Progress) {
	if b.onProgress != nil {
		b.onProgress(p)
	}
}
