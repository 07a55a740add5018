// Package significance splits memory items into scored components via
// the scoring collaborator and validates its structured output.
package significance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/llm"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/retry"
)

// ScoredComponent is one raw component as returned by the scoring
// collaborator, before enum validation.
type ScoredComponent struct {
	Content               string `json:"content"`
	MemoryType            string `json:"memory_type,omitempty"`
	SignificanceCategory  string `json:"significance_category"`
	SignificanceLevel     string `json:"significance_level"`
	StorageRecommendation string `json:"storage_recommendation"`
	Reasoning             string `json:"reasoning,omitempty"`

	ConnectionType        string `json:"connection_type,omitempty"`
	AnchorStrength        string `json:"anchor_strength,omitempty"`
	EmotionalSignificance string `json:"emotional_significance,omitempty"`
}

// ScoreResult is the collaborator's full response for one message.
type ScoreResult struct {
	Components []ScoredComponent `json:"components"`
}

// Scorer is the significance scoring collaborator.
type Scorer interface {
	Score(ctx context.Context, content string) (*ScoreResult, error)
}

// generator abstracts the LLM call for testability.
type generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, llm.Usage, error)
}

const scoringSystemPrompt = `You are a memory significance analyst for a personal assistant.
Split the user's message into semantically coherent components and classify each one.

Respond with JSON only, no prose:
{"components": [{"content": "...", "significance_category": "...", "significance_level": "...", "storage_recommendation": "...", "reasoning": "...", "connection_type": "...", "anchor_strength": "...", "emotional_significance": "..."}]}

significance_category: one of life_changing, emotional_insight, therapeutic_foundation, meaningful_connection, routine_moment
significance_level: one of critical, high, moderate, low, minimal
storage_recommendation: one of definitely_save, probably_save, user_choice, probably_skip
connection_type, anchor_strength, emotional_significance: only for meaningful_connection, omit otherwise

Every component's content must be verbatim text from the message.`

// LLMScorer scores content with a language model, retrying transient
// failures under the bounded policy.
type LLMScorer struct {
	model   generator
	retry   retry.Policy
	metrics *metrics.Collector
}

// Compile-time check.
var _ Scorer = (*LLMScorer)(nil)

// NewLLMScorer creates a scorer backed by the given model.
func NewLLMScorer(model *llm.Model, retryPolicy retry.Policy, collector *metrics.Collector) *LLMScorer {
	return &LLMScorer{model: model, retry: retryPolicy, metrics: collector}
}

// Score asks the model to decompose and classify the content.
func (s *LLMScorer) Score(ctx context.Context, content string) (*ScoreResult, error) {
	var raw string
	start := time.Now()
	err := s.retry.Do(ctx, func() error {
		out, usage, gerr := s.model.GenerateWithSystem(ctx, scoringSystemPrompt, content)
		if gerr != nil {
			return gerr
		}
		if s.metrics != nil {
			s.metrics.RecordLLMUsage(metrics.OpScoring, time.Since(start), usage.InputTokens, usage.OutputTokens)
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("score content: %w", err)
	}

	result, err := parseScoreResult(raw)
	if err != nil {
		return nil, fmt.Errorf("parse score result: %w", err)
	}
	return result, nil
}

// parseScoreResult decodes the model output, tolerating markdown code
// fences around the JSON body.
func parseScoreResult(raw string) (*ScoreResult, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if i := strings.LastIndex(trimmed, "```"); i >= 0 {
			trimmed = trimmed[:i]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	var result ScoreResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
