package models

// SignificanceCategory classifies what kind of moment a component
// captures. A closed set: unknown values from the scoring collaborator
// fail validation instead of silently defaulting.
type SignificanceCategory string

const (
	SignificanceLifeChanging          SignificanceCategory = "life_changing"
	SignificanceEmotionalInsight      SignificanceCategory = "emotional_insight"
	SignificanceTherapeuticFoundation SignificanceCategory = "therapeutic_foundation"
	SignificanceMeaningfulConnection  SignificanceCategory = "meaningful_connection"
	SignificanceRoutineMoment         SignificanceCategory = "routine_moment"
)

// IsValid returns true if the category is recognized.
func (c SignificanceCategory) IsValid() bool {
	switch c {
	case SignificanceLifeChanging, SignificanceEmotionalInsight,
		SignificanceTherapeuticFoundation, SignificanceMeaningfulConnection,
		SignificanceRoutineMoment:
		return true
	}
	return false
}

// Lasting reports whether the category marks a lasting memory, i.e. one
// that is a candidate for the durable tier. Everything except routine
// moments qualifies.
func (c SignificanceCategory) Lasting() bool {
	return c.IsValid() && c != SignificanceRoutineMoment
}

// SignificanceLevel grades how strongly a component matters.
type SignificanceLevel string

const (
	LevelCritical SignificanceLevel = "critical"
	LevelHigh     SignificanceLevel = "high"
	LevelModerate SignificanceLevel = "moderate"
	LevelLow      SignificanceLevel = "low"
	LevelMinimal  SignificanceLevel = "minimal"
)

// IsValid returns true if the level is recognized.
func (l SignificanceLevel) IsValid() bool {
	switch l {
	case LevelCritical, LevelHigh, LevelModerate, LevelLow, LevelMinimal:
		return true
	}
	return false
}

// StorageRecommendation is the scoring collaborator's advice on whether
// a component should reach the durable tier.
type StorageRecommendation string

const (
	RecommendDefinitelySave StorageRecommendation = "definitely_save"
	RecommendProbablySave   StorageRecommendation = "probably_save"
	RecommendUserChoice     StorageRecommendation = "user_choice"
	RecommendProbablySkip   StorageRecommendation = "probably_skip"
)

// IsValid returns true if the recommendation is recognized.
func (r StorageRecommendation) IsValid() bool {
	switch r {
	case RecommendDefinitelySave, RecommendProbablySave,
		RecommendUserChoice, RecommendProbablySkip:
		return true
	}
	return false
}

// Favorable reports whether the recommendation supports durable storage.
func (r StorageRecommendation) Favorable() bool {
	return r == RecommendDefinitelySave || r == RecommendProbablySave
}

// MemoryComponent is one semantically coherent fragment extracted from a
// MemoryItem by the significance decomposer. Connection fields are only
// populated for the meaningful_connection category.
type MemoryComponent struct {
	ItemID         string                `json:"item_id"`
	Index          int                   `json:"index"`
	Content        string                `json:"content"`
	Category       SignificanceCategory  `json:"category"`
	Level          SignificanceLevel     `json:"level"`
	Recommendation StorageRecommendation `json:"recommendation"`

	ConnectionType        string `json:"connection_type,omitempty"`
	AnchorStrength        string `json:"anchor_strength,omitempty"`
	EmotionalSignificance string `json:"emotional_significance,omitempty"`
}
