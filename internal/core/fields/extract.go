// Package fields derives the Name, Company and Duration of an internship
// offer letter from raw text-layer or OCR output.
//
// Each field is matched by an ordered list of patterns, most anchored first.
// The first pattern that matches wins; a field nothing matches keeps the
// "Not Found" placeholder. Extract never fails.
package fields

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/offerscan/constants"
)

const corpSuffix = `(Foundation|Ltd|Pvt|Inc|Corp|Studio|Solutions|Technology|Technologies|Systems)`

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Dear[, ]+\s*([A-Z][A-Z\s]*[A-Z])`),
		regexp.MustCompile(`(?i)Dear[, ]+([A-Z][a-z]+(?:\s[A-Z][a-z]+){0,3})`),
		regexp.MustCompile(`(?i)Dear\s*,?\s*([A-Z][^\s,]*)`),
		regexp.MustCompile(`(?i)Dear\s*[,:]?\s*([A-Z][A-Za-z\s\.]{1,50})`),
	}
	// case sensitive: any run of 2-4 capitalized words
	nameFallback = regexp.MustCompile(`([A-Z][a-z]+(?:\s[A-Z][a-z]+){1,3})`)

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)with\s+“?([A-Z][A-Za-z&\.\s]{1,50})”?`),
		regexp.MustCompile(`(?i)at\s+“?([A-Z][A-Za-z&\.\s]{1,50})”?`),
		regexp.MustCompile(`(?i)Founder\s*\(([^)]+)\)`),
		regexp.MustCompile(`(?:with|at|from)\s+([A-Z][A-Za-z&\.\s-]{3,50}` + corpSuffix + `)`),
		regexp.MustCompile(`([A-Z][A-Za-z\s&\.-]{3,50}` + corpSuffix + `)`),
	}

	durationNumeric = regexp.MustCompile(`(?i)duration(?: of| will be of)?\s*(?:the)?\s*(\d+\s*(?:weeks?|months?))`)
	durationWord    = regexp.MustCompile(`(?i)duration(?: of| will be of)?\s*(?:the)?\s*(one|two|three|four|five|six|seven|eight|nine|ten)\s*(weeks?|months?)`)
	durationAny     = regexp.MustCompile(`(?i)(\d+\s*(?:weeks?|months?))`)
)

// Extract maps text to a Record.
func Extract(text string) Record {
	cleaned := Normalize(text)
	return Record{
		Name:     extractName(cleaned),
		Company:  extractCompany(cleaned),
		Duration: extractDuration(cleaned),
	}
}

// Normalize collapses every line break and whitespace run to a single space and trims the ends.
// A byte order mark counts as whitespace.
func Normalize(text string) string {
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

func extractName(s string) string {
	if m := firstMatch(namePatterns, s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := nameFallback.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return constants.NotFound
}

func extractCompany(s string) string {
	m := firstMatch(companyPatterns, s)
	if m == nil {
		return constants.NotFound
	}
	if len(m) > 1 && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[0])
}

func extractDuration(s string) string {
	if m := durationNumeric.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// only the number word, without its unit
	if m := durationWord.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := durationAny.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return constants.NotFound
}

func firstMatch(patterns []*regexp.Regexp, s string) []string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m
		}
	}
	return nil
}
