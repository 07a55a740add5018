package significance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// scorerFunc adapts a function to the Scorer interface for tests.
type scorerFunc func(ctx context.Context, content string) (*ScoreResult, error)

func (f scorerFunc) Score(ctx context.Context, content string) (*ScoreResult, error) {
	return f(ctx, content)
}

func testItem(content string) *models.MemoryItem {
	return &models.MemoryItem{
		ID:      "item-1",
		UserID:  "user-1",
		Content: content,
		Type:    models.ItemUserMessage,
	}
}

func TestDecomposeSplitsIntoComponents(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{Components: []ScoredComponent{
			{
				Content:               "I got the job offer today",
				SignificanceCategory:  "life_changing",
				SignificanceLevel:     "critical",
				StorageRecommendation: "definitely_save",
			},
			{
				Content:               "also I had pasta for lunch",
				SignificanceCategory:  "routine_moment",
				SignificanceLevel:     "minimal",
				StorageRecommendation: "probably_skip",
			},
		}}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("I got the job offer today, also I had pasta for lunch"))

	require.Len(t, components, 2)
	assert.Equal(t, 0, components[0].Index)
	assert.Equal(t, 1, components[1].Index)
	assert.Equal(t, models.SignificanceLifeChanging, components[0].Category)
	assert.Equal(t, models.RecommendDefinitelySave, components[0].Recommendation)
	assert.Equal(t, models.SignificanceRoutineMoment, components[1].Category)
	assert.Equal(t, "item-1", components[0].ItemID)
}

func TestDecomposeNormalizesEnumSpellings(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{Components: []ScoredComponent{{
			Content:               "met someone special",
			SignificanceCategory:  "Meaningful Connection",
			SignificanceLevel:     "HIGH",
			StorageRecommendation: "probably-save",
			ConnectionType:        "romantic",
			AnchorStrength:        "strong",
		}}}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("met someone special"))

	require.Len(t, components, 1)
	assert.Equal(t, models.SignificanceMeaningfulConnection, components[0].Category)
	assert.Equal(t, models.LevelHigh, components[0].Level)
	assert.Equal(t, models.RecommendProbablySave, components[0].Recommendation)
	assert.Equal(t, "romantic", components[0].ConnectionType)
	assert.Equal(t, "strong", components[0].AnchorStrength)
}

func TestDecomposeDropsConnectionFieldsForOtherCategories(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{Components: []ScoredComponent{{
			Content:               "realized I avoid conflict",
			SignificanceCategory:  "emotional_insight",
			SignificanceLevel:     "moderate",
			StorageRecommendation: "probably_save",
			ConnectionType:        "spurious",
		}}}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("realized I avoid conflict"))

	require.Len(t, components, 1)
	assert.Empty(t, components[0].ConnectionType)
}

func TestDecomposeSkipsEmptyComponentsAndReindexes(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{Components: []ScoredComponent{
			{Content: "   ", SignificanceCategory: "routine_moment", SignificanceLevel: "minimal", StorageRecommendation: "probably_skip"},
			{Content: "keep this", SignificanceCategory: "emotional_insight", SignificanceLevel: "low", StorageRecommendation: "user_choice"},
		}}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("keep this"))

	require.Len(t, components, 1)
	assert.Equal(t, 0, components[0].Index)
	assert.Equal(t, "keep this", components[0].Content)
}

func TestDecomposeFallbackOnScorerError(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return nil, errors.New("model unavailable")
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("whole message"))

	require.Len(t, components, 1)
	assert.Equal(t, "whole message", components[0].Content)
	assert.Equal(t, models.SignificanceRoutineMoment, components[0].Category)
	assert.Equal(t, models.LevelMinimal, components[0].Level)
	assert.Equal(t, models.RecommendProbablySkip, components[0].Recommendation)
}

func TestDecomposeFallbackOnInvalidEnum(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{Components: []ScoredComponent{{
			Content:               "whatever",
			SignificanceCategory:  "extremely_important",
			SignificanceLevel:     "high",
			StorageRecommendation: "probably_save",
		}}}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("whole message"))

	require.Len(t, components, 1)
	assert.Equal(t, models.SignificanceRoutineMoment, components[0].Category)
	assert.Equal(t, "whole message", components[0].Content)
}

func TestDecomposeFallbackOnEmptyResult(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, content string) (*ScoreResult, error) {
		return &ScoreResult{}, nil
	})

	d := NewDecomposer(scorer, 0, nil)
	components := d.Decompose(context.Background(), testItem("whole message"))
	require.Len(t, components, 1)
	assert.Equal(t, "whole message", components[0].Content)
}
