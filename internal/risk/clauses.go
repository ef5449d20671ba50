package risk

import (
	"slices"
	"strings"
)

// ClauseLevel is the risk rating an analyzer assigns to a single clause.
type ClauseLevel string

const (
	ClauseLow    ClauseLevel = "Low"
	ClauseMedium ClauseLevel = "Medium"
	ClauseHigh   ClauseLevel = "High"
)

// Clause is one finding from a clause analyzer.
type Clause struct {
	Name            string      `json:"clause_name"`
	Present         bool        `json:"is_present"`
	ConfidenceScore float64     `json:"confidence_score"`
	Level           ClauseLevel `json:"risk_level"`
	Justification   string      `json:"justification"`
	CitedText       string      `json:"cited_text"`
}

// ClauseReview aggregates clause findings for a document.
type ClauseReview struct {
	Clauses  []Clause    `json:"clauses"`
	MaxLevel ClauseLevel `json:"max_risk_level"`
	High     int         `json:"high"`
	Medium   int         `json:"medium"`
	Low      int         `json:"low"`
}

// SummarizeClauses counts findings per level and keeps the highest level seen.
// Levels are matched case-insensitively; unrecognized levels count as Low.
func SummarizeClauses(clauses []Clause) ClauseReview {
	review := ClauseReview{
		Clauses:  slices.Clone(clauses),
		MaxLevel: ClauseLow,
	}
	if review.Clauses == nil {
		review.Clauses = []Clause{}
	}

	for i, c := range review.Clauses {
		level := normalizeLevel(c.Level)
		review.Clauses[i].Level = level

		switch level {
		case ClauseHigh:
			review.High++
		case ClauseMedium:
			review.Medium++
		default:
			review.Low++
		}

		if rank(level) > rank(review.MaxLevel) {
			review.MaxLevel = level
		}
	}

	return review
}

func normalizeLevel(l ClauseLevel) ClauseLevel {
	switch strings.ToLower(strings.TrimSpace(string(l))) {
	case "high":
		return ClauseHigh
	case "medium":
		return ClauseMedium
	default:
		return ClauseLow
	}
}

func rank(l ClauseLevel) int {
	switch l {
	case ClauseHigh:
		return 2
	case ClauseMedium:
		return 1
	default:
		return 0
	}
}
