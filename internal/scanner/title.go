package scanner

import (
	"regexp"
	"strings"
)

// titlePrefixes are tested in order against the leading lines of the
// requirement text.
var titlePrefixes = []string{
	"job title:", "position:", "role:", "title:", "job:", "opportunity:", "hiring:",
}

const (
	titleScanLines     = 7
	maxPrefixTitleLen  = 100
	maxHeuristicLen    = 70
	minTitleLen        = 2
	maxHeuristicSpaces = 10
)

var numericLine = regexp.MustCompile(`^\d+$`)

// titleRule inspects the requirement lines and either produces a title or
// passes. Rules run in priority order with early accept.
type titleRule func(lines []string) (string, bool)

var titleRules = []titleRule{titleFromPrefix, titleFromFirstLine}

// ExtractJobTitle infers a job title from free-form requirement text. The
// second return value is false when no rule produced a confident title;
// callers skip title-based skill resolution in that case.
func ExtractJobTitle(reqText string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(reqText, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	for _, rule := range titleRules {
		if title, ok := rule(lines); ok {
			return Normalize(title), true
		}
	}
	return "", false
}

// titleFromPrefix scans the leading lines for a labelled title such as
// "Position: Data Engineer".
func titleFromPrefix(lines []string) (string, bool) {
	n := len(lines)
	if n > titleScanLines {
		n = titleScanLines
	}
	for _, line := range lines[:n] {
		lower := Normalize(line)
		for _, prefix := range titlePrefixes {
			if !strings.HasPrefix(lower, prefix) {
				continue
			}
			title := strings.TrimSpace(line[len(prefix):])
			title = strings.TrimRight(title, ".,:;-*#")
			if len(title) > minTitleLen && len(title) < maxPrefixTitleLen {
				return title, true
			}
		}
	}
	return "", false
}

// titleFromFirstLine accepts the first line as the title when it looks like a
// short heading rather than prose, markup, or contact details.
func titleFromFirstLine(lines []string) (string, bool) {
	first := strings.TrimRight(strings.TrimSpace(lines[0]), ".,:;-*#")
	if len(first) <= minTitleLen || len(first) >= maxHeuristicLen {
		return "", false
	}
	if strings.Count(first, " ") >= maxHeuristicSpaces {
		return "", false
	}
	if strings.ContainsAny(first, "@<>=+") {
		return "", false
	}
	if strings.Contains(strings.ToLower(first), "http") {
		return "", false
	}
	if numericLine.MatchString(first) {
		return "", false
	}
	return first, true
}
