package scoring

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/config"
)

// NewScorer builds the scorer selected by configuration. Provider "none"
// returns nil: batch scoring is then disabled and the engine serves only
// already-cached and staff-validated matches.
func NewScorer(cfg *config.ScoringConfig, logger *zap.Logger) (Scorer, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicScorer(cfg.APIKey, cfg.Model, logger)
	case "openai":
		return NewOpenAIScorer(cfg.APIKey, cfg.Model, cfg.Endpoint, logger)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown scoring provider %q", cfg.Provider)
	}
}
