package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
)

// AnthropicScorer scores matches through the Anthropic Messages API.
type AnthropicScorer struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicScorer creates an Anthropic-backed scorer.
func NewAnthropicScorer(apiKey, model string, logger *zap.Logger) (*AnthropicScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}

	return &AnthropicScorer{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("scorer-anthropic"),
	}, nil
}

var _ Scorer = (*AnthropicScorer)(nil)

func (s *AnthropicScorer) Name() string { return "anthropic" }

func (s *AnthropicScorer) Score(ctx context.Context, job *models.Job, candidate *models.Candidate) (*Result, error) {
	prompt := buildPrompt(job, candidate)

	start := time.Now()
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		s.logger.Error("scoring request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("anthropic scoring call: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty scoring response")
	}

	result, err := parseResult(text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scored pair",
		zap.String("job_id", job.ID.String()),
		zap.String("candidate_id", candidate.ID.String()),
		zap.Float64("score", result.Score),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func firstText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
