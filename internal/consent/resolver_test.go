package consent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

func entityAt(content, text, entityType string, risk models.RiskTier) models.DetectedEntity {
	start := strings.Index(content, text)
	return models.DetectedEntity{
		ID:    models.EntityID(entityType, start, start+len(text)),
		Text:  text,
		Start: start,
		End:   start + len(text),
		Type:  entityType,
		Risk:  risk,
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "<PERSON>", Placeholder("person"))
	assert.Equal(t, "<CRISIS_HOTLINE>", Placeholder("crisis_hotline"))
	assert.Equal(t, "<CREDIT_CARD>", Placeholder("credit card"))
	assert.Equal(t, "<ENTITY>", Placeholder("!!!"))
}

func TestResolveDurableDefaultsRedactHighRisk(t *testing.T) {
	content := "Dr. Lee prescribed Prozac for my anxiety"
	entities := []models.DetectedEntity{
		entityAt(content, "Dr. Lee", "person", models.RiskHigh),
		entityAt(content, "Prozac", "medication", models.RiskMedium),
	}

	durable := Resolve(content, DestinationDurable, nil, entities)
	assert.Equal(t, "<PERSON> prescribed Prozac for my anxiety", durable)

	ephemeral := Resolve(content, DestinationEphemeral, nil, entities)
	assert.Equal(t, content, ephemeral, "ephemeral keeps everything without explicit choices")
}

func TestResolveExplicitChoicesOverrideDefaults(t *testing.T) {
	content := "Dr. Lee prescribed Prozac for my anxiety"
	person := entityAt(content, "Dr. Lee", "person", models.RiskHigh)
	med := entityAt(content, "Prozac", "medication", models.RiskMedium)
	entities := []models.DetectedEntity{person, med}

	decisions := models.ConsentMap{
		person.ID: models.ConsentKeep,
		med.ID:    models.ConsentAnonymize,
	}

	got := Resolve(content, DestinationDurable, decisions, entities)
	assert.Equal(t, "Dr. Lee prescribed <MEDICATION> for my anxiety", got)

	// Same decisions apply identically to the ephemeral tier.
	got = Resolve(content, DestinationEphemeral, decisions, entities)
	assert.Equal(t, "Dr. Lee prescribed <MEDICATION> for my anxiety", got)
}

func TestResolveMultipleEntitiesKeepOffsetsValid(t *testing.T) {
	content := "email a@b.com or call 555-123-4567 before 2024-01-15"
	entities := []models.DetectedEntity{
		entityAt(content, "a@b.com", "email", models.RiskHigh),
		entityAt(content, "555-123-4567", "phone", models.RiskHigh),
		entityAt(content, "2024-01-15", "date", models.RiskLow),
	}

	got := Resolve(content, DestinationDurable, nil, entities)
	assert.Equal(t, "email <EMAIL> or call <PHONE> before 2024-01-15", got)
}

func TestResolveIsIdempotent(t *testing.T) {
	content := "reach me at jane@example.com"
	entities := []models.DetectedEntity{
		entityAt(content, "jane@example.com", "email", models.RiskHigh),
	}

	once := Resolve(content, DestinationDurable, nil, entities)
	twice := Resolve(once, DestinationDurable, nil, entities)
	assert.Equal(t, once, twice, "re-resolving redacted output must be a no-op")
}

func TestResolveSkipsOverlappingSpans(t *testing.T) {
	// The hotline number is also matched by the generic phone pattern.
	content := "call 1-800-273-8255 now"
	hotline := entityAt(content, "1-800-273-8255", "crisis_hotline", models.RiskHigh)
	phone := entityAt(content, "1-800-273-8255", "phone", models.RiskHigh)

	got := Resolve(content, DestinationDurable, nil, []models.DetectedEntity{hotline, phone})

	// Exactly one replacement for the shared span.
	assert.Equal(t, 1, strings.Count(got, "<"))
	assert.NotContains(t, got, "273-8255")
}

func TestResolveIgnoresStaleSpans(t *testing.T) {
	content := "short text"
	stale := models.DetectedEntity{
		ID: "email:40:60", Text: "gone@example.com",
		Start: 40, End: 56, Type: "email", Risk: models.RiskHigh,
	}
	mismatched := models.DetectedEntity{
		ID: "person:0:5", Text: "Alice",
		Start: 0, End: 5, Type: "person", Risk: models.RiskHigh,
	}

	got := Resolve(content, DestinationDurable, nil, []models.DetectedEntity{stale, mismatched})
	assert.Equal(t, content, got)
}

func TestUnknownReferences(t *testing.T) {
	content := "Dr. Lee is here"
	person := entityAt(content, "Dr. Lee", "person", models.RiskHigh)

	decisions := models.ConsentMap{
		person.ID:      models.ConsentKeep,
		"email:99:120": models.ConsentAnonymize,
		"date:5:15":    models.ConsentKeep,
	}

	unknown := UnknownReferences(decisions, []models.DetectedEntity{person})
	assert.Equal(t, []string{"date:5:15", "email:99:120"}, unknown)

	assert.Nil(t, UnknownReferences(nil, []models.DetectedEntity{person}))
}
