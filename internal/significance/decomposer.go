package significance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// DefaultScoringTimeout bounds how long one scoring call may take. The
// conversation path never waits longer; a timeout degrades to the
// single-component fallback.
const DefaultScoringTimeout = 10 * time.Second

// Decomposer splits a memory item into classified components. It only
// classifies; storage decisions belong to the router.
type Decomposer struct {
	scorer  Scorer
	timeout time.Duration
	logger  *slog.Logger
}

// NewDecomposer creates a decomposer. Zero timeout uses
// DefaultScoringTimeout; nil logger uses slog.Default.
func NewDecomposer(scorer Scorer, timeout time.Duration, logger *slog.Logger) *Decomposer {
	if timeout <= 0 {
		timeout = DefaultScoringTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decomposer{scorer: scorer, timeout: timeout, logger: logger}
}

// Decompose returns at least one component for any item. Collaborator
// failure or malformed output falls back to the whole message as a
// single routine-moment component; component indices are contiguous
// from 0.
func (d *Decomposer) Decompose(ctx context.Context, item *models.MemoryItem) []models.MemoryComponent {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.scorer.Score(ctx, item.Content)
	if err != nil {
		d.logger.Warn("significance scoring unavailable, using fallback component",
			"item", item.ID, "error", err)
		return d.fallback(item)
	}

	components := make([]models.MemoryComponent, 0, len(result.Components))
	for _, scored := range result.Components {
		content := strings.TrimSpace(scored.Content)
		if content == "" {
			continue
		}

		category := normalizeEnum(scored.SignificanceCategory)
		level := normalizeEnum(scored.SignificanceLevel)
		recommendation := normalizeEnum(scored.StorageRecommendation)

		comp := models.MemoryComponent{
			ItemID:         item.ID,
			Index:          len(components),
			Content:        content,
			Category:       models.SignificanceCategory(category),
			Level:          models.SignificanceLevel(level),
			Recommendation: models.StorageRecommendation(recommendation),
		}
		if !comp.Category.IsValid() || !comp.Level.IsValid() || !comp.Recommendation.IsValid() {
			d.logger.Warn("malformed scoring output, using fallback component",
				"item", item.ID, "category", scored.SignificanceCategory,
				"level", scored.SignificanceLevel, "recommendation", scored.StorageRecommendation)
			return d.fallback(item)
		}

		// Connection fields are only meaningful for that category.
		if comp.Category == models.SignificanceMeaningfulConnection {
			comp.ConnectionType = scored.ConnectionType
			comp.AnchorStrength = scored.AnchorStrength
			comp.EmotionalSignificance = scored.EmotionalSignificance
		}

		components = append(components, comp)
	}

	if len(components) == 0 {
		return d.fallback(item)
	}
	return components
}

// fallback treats the whole message as one low-significance component.
func (d *Decomposer) fallback(item *models.MemoryItem) []models.MemoryComponent {
	return []models.MemoryComponent{{
		ItemID:         item.ID,
		Index:          0,
		Content:        item.Content,
		Category:       models.SignificanceRoutineMoment,
		Level:          models.LevelMinimal,
		Recommendation: models.RecommendProbablySkip,
	}}
}

// normalizeEnum accepts hyphenated or spaced collaborator spellings
// ("emotional-insight", "Probably Save") for the underscore enums.
func normalizeEnum(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	return v
}
