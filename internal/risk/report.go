// Package risk scores document text with a weighted keyword and pattern model.
// Assess is pure: identical text and metadata always produce an identical Report.
package risk

// Label is the categorical risk outcome of an assessment.
type Label string

const (
	LabelLow     Label = "LOW"
	LabelMedium  Label = "MEDIUM"
	LabelHigh    Label = "HIGH"
	LabelUnknown Label = "UNKNOWN"
)

// Tier is a keyword severity band.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// ReportVersion identifies the scoring model that produced a Report.
const ReportVersion = "1.0"

// FileMetadata describes the uploaded artifact the text was extracted from.
type FileMetadata struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Components holds the per-tier weighted totals after adjustments.
type Components struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// KeywordMatch records a keyword found in the text.
type KeywordMatch struct {
	Keyword     string `json:"keyword"`
	Tier        Tier   `json:"tier"`
	Occurrences int    `json:"occurrences"`
	Weight      int    `json:"weight"`
}

// Patterns counts structural signals found in the text.
type Patterns struct {
	FinancialAmounts int `json:"financial_amounts"`
	Dates            int `json:"dates"`
	Emails           int `json:"emails"`
	PhoneNumbers     int `json:"phone_numbers"`
	URLs             int `json:"urls"`
	CapitalWords     int `json:"capital_words"`
	Exclamations     int `json:"exclamation_marks"`
	Questions        int `json:"question_marks"`
}

// Structure summarizes the shape of the text.
type Structure struct {
	Lines                   int     `json:"total_lines"`
	Words                   int     `json:"total_words"`
	Sentences               int     `json:"total_sentences"`
	AverageWordsPerSentence float64 `json:"average_words_per_sentence"`
	HasHeaders              bool    `json:"has_headers"`
	HasDates                bool    `json:"has_dates"`
	HasNumbers              bool    `json:"has_numbers"`
	HasEmails               bool    `json:"has_emails"`
	Complexity              float64 `json:"complexity_score"`
}

// Report is the immutable result of a risk assessment.
type Report struct {
	Score           int            `json:"score"`
	Label           Label          `json:"label"`
	Confidence      int            `json:"confidence"`
	Components      Components     `json:"components"`
	DocumentType    string         `json:"document_type"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`
	Keywords        []KeywordMatch `json:"keywords"`
	Patterns        Patterns       `json:"patterns"`
	Structure       Structure      `json:"structure"`
	Metadata        FileMetadata   `json:"metadata"`
	Error           string         `json:"error,omitempty"`
	Version         string         `json:"version"`
}

// Matched returns the number of distinct keywords matched in the given tier.
func (r Report) Matched(tier Tier) int {
	n := 0
	for _, k := range r.Keywords {
		if k.Tier == tier {
			n++
		}
	}
	return n
}
