// Package budget infers a compensation string from the loosely structured
// text that job sources attach to a posting.
package budget

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/gigfinder/internal/model"
)

// shortTextMax is the exclusive rune length under which a string with a
// currency symbol and a digit is taken verbatim.
const shortTextMax = 20

const currencySymbols = "$€£¥"

var (
	symbolPattern = regexp.MustCompile(`(?i)[$€£¥]\s*\d+(?:,\d+)*k?(?:\s*-\s*[$€£¥]?\s*\d+(?:,\d+)*k?)?`)
	codePattern   = regexp.MustCompile(`(?i)\d+(?:,\d+)*k?\s*(?:USD|EUR|GBP|CAD|AUD)`)
)

// Fields are the candidate texts of one posting, most authoritative first.
type Fields struct {
	Explicit string   // dedicated salary-like field (or a location that doubles as one)
	Tags     []string // short category tags
	Aux      []string // other short texts, only used by the short-text fallback
}

// Extract runs the tiers in order: explicit field, tag scan, short-text
// fallback. The second result is false when nothing matched.
func Extract(f Fields) (string, bool) {
	if s, ok := Match(f.Explicit); ok {
		return s, true
	}
	for _, tag := range f.Tags {
		if s, ok := Match(tag); ok {
			return s, true
		}
	}

	candidates := make([]string, 0, 1+len(f.Tags)+len(f.Aux))
	candidates = append(candidates, f.Explicit)
	candidates = append(candidates, f.Tags...)
	candidates = append(candidates, f.Aux...)
	for _, c := range candidates {
		if s, ok := shortText(c); ok {
			return s, true
		}
	}
	return "", false
}

// FromText extracts a budget from a single free-text value.
func FromText(text string) (string, bool) {
	return Extract(Fields{Explicit: text})
}

// OrNA returns the extracted budget for f, or model.BudgetNA.
func OrNA(f Fields) string {
	if s, ok := Extract(f); ok {
		return s
	}
	return model.BudgetNA
}

// Match applies the currency-symbol pattern, then the currency-code pattern.
func Match(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if m := symbolPattern.FindString(text); m != "" {
		return m, true
	}
	if m := codePattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

func shortText(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) >= shortTextMax {
		return "", false
	}
	if !strings.ContainsAny(text, currencySymbols) {
		return "", false
	}
	if strings.IndexFunc(text, unicode.IsDigit) < 0 {
		return "", false
	}
	return text, true
}
