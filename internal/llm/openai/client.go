package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/llm"
	"github.com/reportmate/comment-engine/internal/metrics"
	"github.com/reportmate/comment-engine/internal/model"
	"github.com/reportmate/comment-engine/internal/ratelimit"
)

// Client implements llm.Generator against any OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	cfg    Config
	api    *openaigo.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()

	apiCfg := openaigo.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		cfg:    cfg,
		api:    openaigo.NewClientWithConfig(apiCfg),
		logger: defaultLogger(logger),
	}
}

// GenerateComment builds the prompt pair, calls the provider, and validates
// the structured JSON reply against the comment schema.
func (c *Client) GenerateComment(ctx context.Context, req llm.CommentRequest) (llm.CommentResult, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	schema := llm.BuildCommentJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	c.logger.Info("llm.comment.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"student", req.StudentName,
		"period", req.Period,
		"notes", len(req.Notes),
		"prompt_tokens_est", c.estimateTokens(sys+user),
	)

	resp, err := c.api.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: sys},
			{Role: openaigo.ChatMessageRoleUser, Content: user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{Role: openaigo.ChatMessageRoleSystem, Content: "JSON Schema:\n" + mustJSON(schema)},
		},
	})
	elapsed := time.Since(start)

	if err != nil {
		return llm.CommentResult{}, c.classifyError(rid, err, elapsed)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
		c.logger.Error("llm.comment.empty_response", "req_id", rid, "elapsed_ms", elapsed.Milliseconds())
		return llm.CommentResult{}, fmt.Errorf("empty response from provider")
	}

	content := []byte(strings.TrimSpace(resp.Choices[0].Message.Content))

	// Validate strictly first, then fall back to a lenient
	// sanitize-and-revalidate pass.
	if vErr := llm.ValidateJSONAgainstSchema(schema, content); vErr != nil {
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(content, c.logger)
		if sErr != nil {
			metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
			c.logger.Error("llm.comment.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.CommentResult{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr = llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
			c.logger.Error("llm.comment.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content))
			return llm.CommentResult{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.comment.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var parsed struct {
		Comment    string  `json:"comment"`
		Confidence float32 `json:"confidence"`
	}
	if err := json.Unmarshal(content, &parsed); err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
		return llm.CommentResult{}, fmt.Errorf("unmarshal comment: %w", err)
	}

	usage := model.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		EstimatedCostUSD: c.estimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}

	metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "success").Inc()
	metrics.GenerationDuration.WithLabelValues(c.cfg.Model).Observe(elapsed.Seconds())
	metrics.PromptTokens.WithLabelValues(c.cfg.Model).Observe(float64(usage.PromptTokens))
	metrics.CompletionTokens.WithLabelValues(c.cfg.Model).Observe(float64(usage.CompletionTokens))
	if usage.EstimatedCostUSD > 0 {
		metrics.EstimatedCostUSD.WithLabelValues(c.cfg.Model).Add(usage.EstimatedCostUSD)
	}

	c.logger.Info("llm.comment.ok",
		"req_id", rid,
		"chars", len(parsed.Comment),
		"confidence", parsed.Confidence,
		"total_tokens", usage.TotalTokens,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return llm.CommentResult{
		Text:       parsed.Comment,
		Confidence: parsed.Confidence,
		Model:      c.cfg.Model,
		Usage:      usage,
	}, nil
}

// classifyError maps transport failures onto the engine's error taxonomy.
// Quota responses carry the provider's retry-after suggestion when one can
// be parsed out of the raw message.
func (c *Client) classifyError(rid string, err error, elapsed time.Duration) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			retryAfter, _ := ratelimit.ParseRetryAfter(apiErr.Message)
			metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "quota").Inc()
			c.logger.Warn("llm.comment.rate_limited",
				"req_id", rid,
				"retry_after_ms", retryAfter.Milliseconds(),
				"elapsed_ms", elapsed.Milliseconds(),
			)
			return &llm.ProviderError{
				StatusCode: apiErr.HTTPStatusCode,
				Message:    apiErr.Message,
				Quota:      true,
				RetryAfter: retryAfter,
			}
		}
		metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
		c.logger.Error("llm.comment.api_error",
			"req_id", rid,
			"status", apiErr.HTTPStatusCode,
			"error", apiErr.Message,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return &llm.ProviderError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	if errors.Is(err, context.Canceled) {
		metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "cancelled").Inc()
		return err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
	c.logger.Error("llm.comment.transport_error",
		"req_id", rid, "error", err, "elapsed_ms", elapsed.Milliseconds())
	return err
}

// estimateTokens is a preflight estimate only; billing uses the usage block
// the provider returns.
func (c *Client) estimateTokens(text string) int {
	tke, err := tiktoken.EncodingForModel(c.cfg.Model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0
		}
	}
	return len(tke.Encode(text, nil, nil))
}

func (c *Client) estimateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * c.cfg.PricePerMInputUSD / 1_000_000.0
	outputCost := float64(completionTokens) * c.cfg.PricePerMOutputUSD / 1_000_000.0
	return inputCost + outputCost
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
