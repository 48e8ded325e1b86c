package scanner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capigiba/ADS/internal/scanner"
)

func TestExtractJobTitle_Prefixed(t *testing.T) {
	t.Parallel()
	text := "About us\nJob Title: Senior Backend Engineer.\nWe are hiring."
	title, ok := scanner.ExtractJobTitle(text)
	require.True(t, ok)
	assert.Equal(t, "senior backend engineer", title)
}

func TestExtractJobTitle_PrefixVariants(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"Position: Data Scientist",
		"Role: Data Scientist -",
		"Hiring: Data Scientist ***",
	} {
		title, ok := scanner.ExtractJobTitle(text)
		require.True(t, ok, text)
		assert.Equal(t, "data scientist", title)
	}
}

func TestExtractJobTitle_FirstLineHeuristic(t *testing.T) {
	t.Parallel()
	title, ok := scanner.ExtractJobTitle("Machine Learning Engineer\n\nWe build models at scale.")
	require.True(t, ok)
	assert.Equal(t, "machine learning engineer", title)
}

func TestExtractJobTitle_PrefixBeatsFirstLine(t *testing.T) {
	t.Parallel()
	text := "Acme Corp Careers\nJob: Platform Engineer\nApply today."
	title, ok := scanner.ExtractJobTitle(text)
	require.True(t, ok)
	assert.Equal(t, "platform engineer", title)
}

func TestExtractJobTitle_RejectsUnlikelyFirstLines(t *testing.T) {
	t.Parallel()
	for name, text := range map[string]string{
		"url":       "See http://jobs.example.com for details\nmore text",
		"email":     "apply@example.com\nmore text",
		"numeric":   "20240115\nmore text",
		"too short": "Go\nmore text",
		"too long":  strings.Repeat("very ", 20) + "long line here\nmore text",
		"wordy": "this line has far too many separate words to plausibly be a job title at all\nmore",
	} {
		_, ok := scanner.ExtractJobTitle(text)
		assert.False(t, ok, name)
	}
}

func TestExtractJobTitle_PrefixBeyondScanWindow(t *testing.T) {
	t.Parallel()
	lines := []string{"20240101", "two", "three", "four", "five", "six", "seven", "Job Title: Hidden Engineer"}
	_, ok := scanner.ExtractJobTitle(strings.Join(lines, "\n"))
	assert.False(t, ok)
}
