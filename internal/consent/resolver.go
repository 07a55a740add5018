// Package consent implements granular per-entity redaction and the
// pending-consent lifecycle.
package consent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// Destination selects the redaction policy tier.
type Destination string

const (
	// DestinationEphemeral biases toward personalization: everything is
	// kept unless the user explicitly asked for anonymization.
	DestinationEphemeral Destination = "ephemeral"
	// DestinationDurable biases toward privacy: high-risk entities with
	// no explicit choice are redacted.
	DestinationDurable Destination = "durable"
)

var placeholderSanitizer = regexp.MustCompile(`[^A-Z0-9_]+`)

// Placeholder returns the type-tagged replacement for a redacted span,
// e.g. "<PERSON>". Placeholders never match an entity span themselves,
// which is what makes redaction idempotent.
func Placeholder(entityType string) string {
	tag := placeholderSanitizer.ReplaceAllString(strings.ToUpper(entityType), "_")
	tag = strings.Trim(tag, "_")
	if tag == "" {
		tag = "ENTITY"
	}
	return "<" + tag + ">"
}

// Resolve produces redacted content for the given destination. Entities
// are applied in descending start-offset order so earlier replacements
// do not invalidate later offsets; spans overlapping an already-replaced
// range are skipped, as are spans that no longer match their recorded
// text (which makes re-resolving already-redacted output a no-op).
//
// Output offsets are not stable across consent maps: always resolve from
// the original content, never from a previously redacted string.
func Resolve(content string, dest Destination, decisions models.ConsentMap, entities []models.DetectedEntity) string {
	if len(entities) == 0 {
		return content
	}

	ordered := make([]models.DetectedEntity, len(entities))
	copy(ordered, entities)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start > ordered[j].Start
		}
		return ordered[i].End > ordered[j].End
	})

	// Start offset of the most recent replacement; anything ending past
	// it is duplicate coverage.
	consumed := len(content) + 1

	for _, e := range ordered {
		if e.Start < 0 || e.End > len(content) || e.Start >= e.End {
			continue
		}
		if e.End > consumed {
			continue
		}
		if content[e.Start:e.End] != e.Text {
			continue
		}
		if !shouldRedact(dest, decisions[e.ID], e.Risk) {
			continue
		}
		content = content[:e.Start] + Placeholder(e.Type) + content[e.End:]
		consumed = e.Start
	}
	return content
}

// shouldRedact applies the per-destination defaults. An empty action
// means the caller made no explicit choice for this entity.
func shouldRedact(dest Destination, action models.ConsentAction, tier models.RiskTier) bool {
	switch action {
	case models.ConsentAnonymize:
		return true
	case models.ConsentKeep:
		return false
	}
	// No explicit choice: ephemeral keeps everything, durable redacts
	// high risk.
	return dest == DestinationDurable && tier == models.RiskHigh
}

// UnknownReferences returns consent-map keys that reference no entity in
// the current detection set. Callers log these and proceed with the
// remaining valid entries.
func UnknownReferences(decisions models.ConsentMap, entities []models.DetectedEntity) []string {
	if len(decisions) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		known[e.ID] = struct{}{}
	}
	var unknown []string
	for id := range decisions {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return unknown
}
