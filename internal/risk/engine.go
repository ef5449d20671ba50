package risk

import (
	"fmt"
	"slices"
	"strings"
)

const (
	largeDocumentBytes = 100_000
	exclamationLimit   = 5
)

// ErrUnreadable is the Report.Error message for text with no usable content.
const ErrUnreadable = "unable to read document content"

// Assess scores text and returns a Report. It never fails: empty or
// whitespace-only text yields a Report labeled LabelUnknown with Error set.
func Assess(text string, meta FileMetadata) Report {
	if strings.TrimSpace(text) == "" {
		return unknown(meta, ErrUnreadable)
	}

	lower := strings.ToLower(text)

	keywords, components := scanKeywords(lower)
	patterns := scanPatterns(text)
	structure := analyzeStructure(text)
	documentType := detectDocumentType(lower)

	switch documentType {
	case "legal", "financial", "contract":
		components.High += 5
	}
	if patterns.FinancialAmounts > 0 {
		components.Medium += 3
	}
	if patterns.Exclamations > exclamationLimit {
		components.High += 2
	}
	if meta.SizeBytes > largeDocumentBytes {
		components.Medium += 1
	}

	score := components.High*3 + components.Medium*2 + components.Low
	label, confidence := classify(components, score)

	r := Report{
		Score:        score,
		Label:        label,
		Confidence:   confidence,
		Components:   components,
		DocumentType: documentType,
		Keywords:     keywords,
		Patterns:     patterns,
		Structure:    structure,
		Metadata:     meta,
		Version:      ReportVersion,
	}

	r.Recommendations = recommend(r)
	r.Summary = fmt.Sprintf(
		"Document analyzed with %d%% confidence. Found %d high-risk, %d medium-risk, and %d low-risk indicators.",
		r.Confidence,
		r.Matched(TierHigh),
		r.Matched(TierMedium),
		r.Matched(TierLow),
	)

	return r
}

func scanKeywords(lower string) ([]KeywordMatch, Components) {
	var c Components
	matches := make([]KeywordMatch, 0)

	for _, spec := range tiers {
		for _, kw := range spec.keywords {
			n := strings.Count(lower, kw)
			if n == 0 {
				continue
			}

			matches = append(matches, KeywordMatch{
				Keyword:     kw,
				Tier:        spec.tier,
				Occurrences: n,
				Weight:      spec.weight,
			})

			switch spec.tier {
			case TierHigh:
				c.High += n * spec.weight
			case TierMedium:
				c.Medium += n * spec.weight
			case TierLow:
				c.Low += n * spec.weight
			}
		}
	}

	return matches, c
}

func detectDocumentType(lower string) string {
	for _, dt := range docTypes {
		found := 0
		for _, kw := range dt.keywords {
			if strings.Contains(lower, kw) {
				found++
			}
		}
		if found >= 2 {
			return dt.name
		}
	}
	return defaultDocType
}

func classify(c Components, score int) (Label, int) {
	switch {
	case c.High > 0 || score > 50:
		return LabelHigh, min(85+c.High, 95)
	case c.Medium > 0 || score > 20:
		return LabelMedium, min(70+c.Medium, 85)
	default:
		return LabelLow, max(50, min(60+c.Low, 70))
	}
}

func recommend(r Report) []string {
	recs := slices.Clone(baseRecommendations[r.Label])

	if r.Matched(TierHigh) > 0 {
		recs = append(recs, recHighIndicators)
	}

	switch r.DocumentType {
	case "legal":
		recs = append(recs, recLegal)
	case "financial":
		recs = append(recs, recFinancial)
	}

	return recs
}

func unknown(meta FileMetadata, reason string) Report {
	return Report{
		Label:           LabelUnknown,
		DocumentType:    defaultDocType,
		Summary:         "Analysis failed: " + reason,
		Recommendations: []string{recManual},
		Keywords:        []KeywordMatch{},
		Metadata:        meta,
		Error:           reason,
		Version:         ReportVersion,
	}
}
