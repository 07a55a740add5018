package recognition

import (
	"context"
	"regexp"
)

// Entity types emitted by detectors. Model-based detectors may emit
// additional types; the risk policy table defaults unknowns to medium.
const (
	TypePerson        = "person"
	TypeEmail         = "email"
	TypePhone         = "phone"
	TypeSSN           = "ssn"
	TypeCreditCard    = "credit_card"
	TypeMedication    = "medication"
	TypeDiagnosis     = "diagnosis"
	TypeFacility      = "facility"
	TypeTherapyType   = "therapy_type"
	TypeCrisisHotline = "crisis_hotline"
	TypeDate          = "date"
)

type pattern struct {
	entityType string
	confidence float64
	re         *regexp.Regexp
}

// Structured identifiers only; names, medications and diagnoses come
// from model-based detectors composed in front of this one.
var patterns = []pattern{
	{TypeEmail, 0.95, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
	{TypeSSN, 0.9, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{TypeCreditCard, 0.85, regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
	// Hotline before phone so the well-known numbers get the right type;
	// the generic phone pattern will still produce an overlapping span.
	{TypeCrisisHotline, 0.9, regexp.MustCompile(`\b(?:988|1[ -]?800[ -]?273[ -]?8255)\b`)},
	{TypePhone, 0.8, regexp.MustCompile(`\b(?:\+?1[ .-]?)?\(?\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}\b`)},
	{TypeDate, 0.7, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)},
}

// PatternDetector finds structured identifiers with regular expressions.
type PatternDetector struct{}

// NewPatternDetector creates the pattern-based detector.
func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// Compile-time check that PatternDetector implements Detector.
var _ Detector = (*PatternDetector)(nil)

// Detect scans text against all patterns. Overlapping spans across
// patterns are reported as-is.
func (d *PatternDetector) Detect(ctx context.Context, text string) ([]Detection, error) {
	var found []Detection
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			found = append(found, Detection{
				Type:       p.entityType,
				Text:       text[loc[0]:loc[1]],
				Start:      loc[0],
				End:        loc[1],
				Confidence: p.confidence,
			})
		}
	}
	return found, nil
}
