package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/introloop/referral-engine/pkg/jsonutil"
	"github.com/introloop/referral-engine/pkg/models"
)

// wire mirrors the JSON shape requested from the model. Rationales are kept
// raw because models occasionally return numbers or booleans where a string
// was asked for.
type wire struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Breakdown  struct {
		RoleFit    wirePart `json:"role_fit"`
		Stability  wirePart `json:"stability"`
		Trajectory wirePart `json:"trajectory"`
		HardSkills wirePart `json:"hard_skills"`
	} `json:"breakdown"`
}

type wirePart struct {
	Score     float64         `json:"score"`
	Weight    float64         `json:"weight"`
	Rationale json.RawMessage `json:"rationale"`
}

// parseResult extracts and validates the scoring JSON from a raw model
// response, tolerating surrounding prose and markdown fences.
func parseResult(raw string) (*Result, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var w wire
	if err := json.Unmarshal([]byte(jsonStr), &w); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	if w.Score < 0 || w.Score > 100 {
		return nil, fmt.Errorf("score %v out of range", w.Score)
	}
	if w.Confidence < 0 || w.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", w.Confidence)
	}

	return &Result{
		Score:      w.Score,
		Confidence: w.Confidence,
		Breakdown: models.MatchBreakdown{
			RoleFit:    toPart(w.Breakdown.RoleFit),
			Stability:  toPart(w.Breakdown.Stability),
			Trajectory: toPart(w.Breakdown.Trajectory),
			HardSkills: toPart(w.Breakdown.HardSkills),
		},
	}, nil
}

func toPart(p wirePart) models.ScorePart {
	return models.ScorePart{
		Score:     p.Score,
		Weight:    p.Weight,
		Rationale: jsonutil.FlexibleStringValue(p.Rationale),
	}
}

// extractJSON finds the first balanced JSON object in a response that may be
// wrapped in prose or a markdown code block.
func extractJSON(response string) (string, error) {
	start := strings.IndexByte(response, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := response[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, nil
				}
				return "", fmt.Errorf("unbalanced JSON in response")
			}
		}
	}

	return "", fmt.Errorf("no balanced JSON object in response")
}
