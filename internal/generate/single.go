package generate

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/llm"
	"github.com/reportmate/comment-engine/internal/model"
	"github.com/reportmate/comment-engine/internal/ratelimit"
	"github.com/reportmate/comment-engine/internal/staleness"
	"github.com/reportmate/comment-engine/internal/store"
)

// SaveStateFunc is the persistence hook called after every applied result,
// successful or failed. The coordinator does not manage storage itself.
type SaveStateFunc func(context.Context) error

// CoordinatorConfig wires a Coordinator. Store, Registry and Generator are
// required; the rest has workable defaults.
type CoordinatorConfig struct {
	Store     *store.Store
	Registry  *Registry
	Limiter   *ratelimit.Limiter
	Generator llm.Generator
	SaveState SaveStateFunc

	ModelKey             string
	AggregationThreshold int
	CallTimeout          time.Duration // ceiling for one provider call
	Logger               *slog.Logger
}

// Coordinator drives one entity's generation end-to-end: token acquisition,
// the opaque provider call, last-request-wins result application, snapshot
// update, and the persistence hook.
type Coordinator struct {
	store     *store.Store
	registry  *Registry
	limiter   *ratelimit.Limiter
	gen       llm.Generator
	saveState SaveStateFunc

	modelKey    string
	threshold   int
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	if cfg.AggregationThreshold < 1 {
		cfg.AggregationThreshold = 1
	}
	if cfg.SaveState == nil {
		cfg.SaveState = func(context.Context) error { return nil }
	}
	return &Coordinator{
		store:       cfg.Store,
		registry:    cfg.Registry,
		limiter:     cfg.Limiter,
		gen:         cfg.Generator,
		saveState:   cfg.SaveState,
		modelKey:    cfg.ModelKey,
		threshold:   cfg.AggregationThreshold,
		callTimeout: cfg.CallTimeout,
		logger:      cfg.Logger,
	}
}

// Registry exposes the cancellation registry, e.g. for badge derivation and
// for cancelling an attempt from the outside.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Generate runs one generation attempt for the entity. Restart semantics: a
// newer call for the same entity cancels an older in-flight one, whose
// result is then discarded silently with ErrCancelled. The result is written
// onto the entity regardless of what the UI currently shows; it is only
// dropped when the entity itself was deleted mid-flight.
func (c *Coordinator) Generate(ctx context.Context, entityID uuid.UUID, period string) (*model.GenerationOutput, error) {
	entity, ok := c.store.Get(entityID)
	if !ok {
		return nil, common.ErrEntityNotFound
	}
	inputs, _ := c.store.InputsSnapshot(entityID)
	label := entity.Label()

	rid := uuid.NewString()
	tok := c.registry.Begin(common.WithRequestID(ctx, rid), entityID)
	c.logger.Info("generate.single.start",
		"req_id", rid, "entity", entityID, "student", label, "period", period, "model", c.modelKey)

	req := c.buildRequest(label, period, inputs)

	callCtx, cancel := common.WithTimeout(tok.Context(), c.callTimeout)
	defer cancel()
	res, err := c.gen.GenerateComment(callCtx, req)

	// Cancellation is checked before anything else: a superseded attempt
	// may have "succeeded" from the provider's perspective, but its result
	// must never reach the entity.
	if tok.Cancelled() || common.IsCancelled(err) {
		c.registry.Finish(tok)
		c.logger.Debug("generate.single.discarded", "entity", entityID, "student", label)
		return nil, common.ErrCancelled
	}

	if err != nil {
		c.registry.Finish(tok)
		if c.limiter != nil {
			if common.IsQuotaError(err) {
				c.limiter.MarkRateLimited(c.modelKey, err.Error())
			}
		}
		message := common.UserMessage(err)
		applied := c.store.ApplyError(entityID, c.modelKey, message)
		c.logger.Error("generate.single.failed",
			"entity", entityID, "student", label, "applied", applied, "error", err)
		if applied {
			c.persist(ctx)
		}
		return nil, err
	}

	c.registry.Finish(tok)
	if c.limiter != nil {
		c.limiter.MarkSuccess(c.modelKey)
	}

	out := &model.GenerationOutput{
		Text:        res.Text,
		Model:       res.Model,
		Usage:       res.Usage,
		GeneratedAt: time.Now(),
	}
	snap := model.NewSnapshot(inputs, period, c.threshold)

	applied := c.store.ApplyOutput(entityID, out, snap)
	c.logger.Info("generate.single.ok",
		"entity", entityID,
		"student", label,
		"applied", applied,
		"chars", len(res.Text),
		"total_tokens", res.Usage.TotalTokens,
	)
	if applied {
		c.persist(ctx)
	}
	return out, nil
}

// buildRequest normalizes the entity's inputs into the provider request:
// note texts oldest first, active journal tags under the current threshold.
func (c *Coordinator) buildRequest(label, period string, inputs model.GenerationInputs) llm.CommentRequest {
	obs := make([]model.ObservationEntry, len(inputs.Observations))
	copy(obs, inputs.Observations)
	sort.Slice(obs, func(i, j int) bool { return obs[i].RecordedAt.Before(obs[j].RecordedAt) })

	notes := make([]string, 0, len(obs))
	for _, o := range obs {
		if o.Text != "" {
			notes = append(notes, o.Text)
		}
	}

	return llm.CommentRequest{
		StudentName: label,
		Period:      period,
		Grade:       inputs.Grade,
		ContextNote: inputs.ContextNote,
		StatusTags:  inputs.StatusTags,
		Notes:       notes,
		ActiveTags:  staleness.ActiveTags(inputs.Observations, c.threshold),
	}
}

// persist fires the save-state hook; persistence failures are logged, never
// propagated into the generation outcome.
func (c *Coordinator) persist(ctx context.Context) {
	if err := c.saveState(ctx); err != nil {
		c.logger.Error("generate.persist_failed", "error", err)
	}
}
