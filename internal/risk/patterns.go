package risk

import (
	"math"
	"regexp"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)\$[\d,]+\.?\d*|USD\s*[\d,]+`)
	datePattern     = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
	longDatePattern = regexp.MustCompile(`[A-Za-z]+ \d{1,2}, \d{4}`)
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern    = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	urlPattern      = regexp.MustCompile(`https?://[A-Za-z0-9$\-_@.&+!*(),%/?=#~:;]+`)
	capitalPattern  = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	numberPattern   = regexp.MustCompile(`\d+`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)

	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z\s]+$`),
		regexp.MustCompile(`^\d+\.\s+[A-Z]`),
		regexp.MustCompile(`^[A-Z][a-z]+:`),
	}
)

// only the first lines are inspected for header structure
const headerScanLines = 10

func scanPatterns(text string) Patterns {
	return Patterns{
		FinancialAmounts: len(currencyPattern.FindAllStringIndex(text, -1)),
		Dates:            len(datePattern.FindAllStringIndex(text, -1)),
		Emails:           len(emailPattern.FindAllStringIndex(text, -1)),
		PhoneNumbers:     len(phonePattern.FindAllStringIndex(text, -1)),
		URLs:             len(urlPattern.FindAllStringIndex(text, -1)),
		CapitalWords:     len(capitalPattern.FindAllStringIndex(text, -1)),
		Exclamations:     strings.Count(text, "!"),
		Questions:        strings.Count(text, "?"),
	}
}

func analyzeStructure(text string) Structure {
	words := strings.Fields(text)
	sentences := countSentences(text)

	return Structure{
		Lines:                   len(strings.Split(text, "\n")),
		Words:                   len(words),
		Sentences:               sentences,
		AverageWordsPerSentence: float64(len(words)) / float64(max(sentences, 1)),
		HasHeaders:              hasHeaders(text),
		HasDates:                datePattern.MatchString(text) || longDatePattern.MatchString(text),
		HasNumbers:              numberPattern.MatchString(text),
		HasEmails:               emailPattern.MatchString(text),
		Complexity:              complexity(words, sentences),
	}
}

func countSentences(text string) int {
	n := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

func hasHeaders(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) > headerScanLines {
		lines = lines[:headerScanLines]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, p := range headerPatterns {
			if p.MatchString(line) {
				return true
			}
		}
	}
	return false
}

// complexity blends word length, sentence length and vocabulary spread into 0-100.
func complexity(words []string, sentences int) float64 {
	if len(words) == 0 {
		return 0
	}

	letters := 0
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		letters += len([]rune(w))
		unique[strings.ToLower(w)] = struct{}{}
	}

	avgWord := float64(letters) / float64(len(words))
	avgSentence := float64(len(words)) / float64(max(sentences, 1))
	uniqueRatio := float64(len(unique)) / float64(len(words))

	score := math.Min(avgWord, 10)/10*30 +
		math.Min(avgSentence, 30)/30*40 +
		uniqueRatio*30

	return math.Round(score*100) / 100
}
