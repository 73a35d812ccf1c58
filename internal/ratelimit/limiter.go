package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reportmate/comment-engine/internal/common"
)

// ModelConfig is the static per-model rate description. BaseDelay is the
// floor the adaptive delay can never go below.
type ModelConfig struct {
	RequestsPerMinute int
	BaseDelay         time.Duration
}

// DefaultTable lists known provider/model quotas. Unknown models fall back
// to DefaultConfig, which is deliberately conservative.
var DefaultTable = map[string]ModelConfig{
	"gpt-4o-mini":                 {RequestsPerMinute: 60, BaseDelay: 1 * time.Second},
	"gpt-4o":                      {RequestsPerMinute: 30, BaseDelay: 2 * time.Second},
	"gemini-2.0-flash":            {RequestsPerMinute: 15, BaseDelay: 4 * time.Second},
	"gemini-1.5-pro":              {RequestsPerMinute: 2, BaseDelay: 30 * time.Second},
	"deepseek/deepseek-chat":      {RequestsPerMinute: 20, BaseDelay: 3 * time.Second},
	"meta-llama/llama-3.3-70b":    {RequestsPerMinute: 20, BaseDelay: 3 * time.Second},
	"mistralai/mistral-small-3.1": {RequestsPerMinute: 20, BaseDelay: 3 * time.Second},
}

// DefaultConfig is used for any model key absent from the table.
var DefaultConfig = ModelConfig{RequestsPerMinute: 10, BaseDelay: 6 * time.Second}

const (
	// delayCeiling bounds the adaptive delay no matter how many quota
	// errors arrive in a row.
	delayCeiling = 2 * time.Minute

	// successStep is the fraction the delay shrinks by after a clean
	// response. Recovery is gradual so one lucky call cannot undo a
	// string of 429s.
	successStepDivisor = 10

	// nominalCallDuration is the per-item allowance added on top of the
	// spacing delay when projecting batch wall-clock time.
	nominalCallDuration = 8 * time.Second
)

type modelState struct {
	cfg         ModelConfig
	delay       time.Duration // current adaptive inter-request delay
	lastRequest time.Time     // zero until the first wait completes
	override    time.Duration // provider-suggested spacing, next wait only
}

// Limiter spaces outbound generation calls per model key and tunes its
// spacing from live success/failure signals.
type Limiter struct {
	mu     sync.Mutex
	models map[string]*modelState
	table  map[string]ModelConfig
	def    ModelConfig
	logger *slog.Logger

	now func() time.Time
}

// NewLimiter builds a limiter over the given static table. A nil table means
// DefaultTable.
func NewLimiter(table map[string]ModelConfig, def ModelConfig, logger *slog.Logger) *Limiter {
	if table == nil {
		table = DefaultTable
	}
	if def.BaseDelay <= 0 {
		def = DefaultConfig
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		models: make(map[string]*modelState),
		table:  table,
		def:    def,
		logger: logger,
		now:    time.Now,
	}
}

// state returns the tracked state for modelKey, creating it on first use.
// Callers must hold l.mu.
func (l *Limiter) state(modelKey string) *modelState {
	st, ok := l.models[modelKey]
	if !ok {
		cfg, known := l.table[modelKey]
		if !known {
			cfg = l.def
		}
		st = &modelState{cfg: cfg, delay: cfg.BaseDelay}
		l.models[modelKey] = st
	}
	return st
}

// WaitTime returns how long the next request for modelKey must still wait.
// Never negative.
func (l *Limiter) WaitTime(modelKey string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(modelKey)
	effective := st.delay
	if st.override > 0 {
		effective = st.override
	}
	if st.lastRequest.IsZero() {
		return 0
	}
	wait := effective - l.now().Sub(st.lastRequest)
	if wait < 0 {
		return 0
	}
	return wait
}

// WaitIfNeeded sleeps until the next request for modelKey is allowed,
// recording the request timestamp on completion. A fired ctx aborts the wait
// and returns ErrCancelled; in that case no timestamp is recorded and a
// pending override survives for the next attempt.
func (l *Limiter) WaitIfNeeded(ctx context.Context, modelKey string) error {
	wait := l.WaitTime(modelKey)
	if wait > 0 {
		l.logger.Debug("ratelimit.wait", "model", modelKey, "wait_ms", wait.Milliseconds())
	}
	if err := l.Sleep(ctx, wait); err != nil {
		return err
	}

	l.mu.Lock()
	st := l.state(modelKey)
	st.lastRequest = l.now()
	st.override = 0 // an explicit retry-after covers one wait only
	l.mu.Unlock()
	return nil
}

// MarkSuccess nudges the adaptive delay down toward the model's base delay.
func (l *Limiter) MarkSuccess(modelKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(modelKey)
	step := st.delay / successStepDivisor
	st.delay -= step
	if st.delay < st.cfg.BaseDelay {
		st.delay = st.cfg.BaseDelay
	}
}

// MarkRateLimited doubles the adaptive delay (bounded by the ceiling) and
// parses a provider-suggested retry-after out of rawErrorText. A parsed
// duration supersedes the adaptive delay for the next wait only, and is also
// returned so batch callers can sleep it directly.
func (l *Limiter) MarkRateLimited(modelKey, rawErrorText string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(modelKey)
	st.delay *= 2
	if st.delay > delayCeiling {
		st.delay = delayCeiling
	}

	retryAfter, ok := ParseRetryAfter(rawErrorText)
	if ok {
		st.override = retryAfter
	}
	l.logger.Warn("ratelimit.throttled",
		"model", modelKey,
		"delay_ms", st.delay.Milliseconds(),
		"retry_after_ms", retryAfter.Milliseconds(),
		"retry_after_parsed", ok,
	)
	return retryAfter, ok
}

// Delay exposes the current adaptive delay for modelKey.
func (l *Limiter) Delay(modelKey string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state(modelKey).delay
}

// Estimate projects the wall-clock time for processing itemCount items at
// the current spacing, for user-facing progress display.
func (l *Limiter) Estimate(modelKey string, itemCount int) Estimate {
	if itemCount < 0 {
		itemCount = 0
	}
	delay := l.Delay(modelKey)
	total := time.Duration(itemCount) * (delay + nominalCallDuration)
	return Estimate{
		Total:        total,
		TotalMinutes: total.Minutes(),
	}
}

// Estimate is a wall-clock projection for a batch run.
type Estimate struct {
	Total        time.Duration
	TotalMinutes float64
}

// Sleep is the cancellable delay primitive every pause in the engine goes
// through. It returns ErrCancelled as soon as ctx fires.
func (l *Limiter) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return common.ErrCancelled
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return common.ErrCancelled
	case <-timer.C:
		return nil
	}
}
