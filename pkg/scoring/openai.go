package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
)

// OpenAIScorer scores matches through any OpenAI-compatible chat endpoint.
type OpenAIScorer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIScorer creates an OpenAI-compatible scorer. endpoint may be empty
// for the default OpenAI base URL.
func NewOpenAIScorer(apiKey, model, endpoint string, logger *zap.Logger) (*OpenAIScorer, error) {
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	}

	return &OpenAIScorer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("scorer-openai"),
	}, nil
}

var _ Scorer = (*OpenAIScorer)(nil)

func (s *OpenAIScorer) Name() string { return "openai" }

func (s *OpenAIScorer) Score(ctx context.Context, job *models.Job, candidate *models.Candidate) (*Result, error) {
	prompt := buildPrompt(job, candidate)

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		s.logger.Error("scoring request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("openai scoring call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in scoring response")
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
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
