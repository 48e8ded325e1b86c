// Package scanner implements the resume scoring engine: text normalization,
// job-title inference, skill matching, experience timeline extraction, GPA
// recovery, and composite score calculation. The package is pure; all external
// effects (embedding similarity, text extraction) enter through injected
// functions.
package scanner

import "strings"

// Normalize returns s trimmed, lowercased, and with runs of whitespace
// collapsed to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// WordCount counts whitespace-separated tokens in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
