// Package recognition provides entity detection over raw text. The
// routing engine treats detection as a black box: any Detector may be a
// composition of pattern-based and model-based sources, and duplicate or
// overlapping spans are allowed.
package recognition

import "context"

// Detection is one raw entity detection before risk classification.
type Detection struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Detector finds potentially sensitive spans in text.
type Detector interface {
	Detect(ctx context.Context, text string) ([]Detection, error)
}

// Composite merges the output of multiple detectors. Spans are not
// deduplicated; downstream redaction handles duplicate coverage.
type Composite struct {
	detectors []Detector
}

// NewComposite creates a detector that runs all given detectors in order.
func NewComposite(detectors ...Detector) *Composite {
	return &Composite{detectors: detectors}
}

// Detect runs every detector and concatenates results. A failing
// detector fails the whole pass; the risk classifier degrades that to
// zero entities.
func (c *Composite) Detect(ctx context.Context, text string) ([]Detection, error) {
	var all []Detection
	for _, d := range c.detectors {
		found, err := d.Detect(ctx, text)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}
