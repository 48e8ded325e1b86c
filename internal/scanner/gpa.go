package scanner

import (
	"regexp"
	"strconv"
)

// GPA values are only credible on a 4-point scale; anything outside this range
// is treated as a different grading system and ignored.
const (
	minValidGPA = 1.0
	maxValidGPA = 4.0
)

// gpaPatterns are applied in order; each captures the candidate value in its
// first group.
var gpaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:GPA|Grade Point Average)\s*[:\-]?\s*(\d\.\d{1,2})\s*(?:/\s*4(?:\.0{1,2})?)?`),
	regexp.MustCompile(`(?i)(\d\.\d{1,2})\s*(?:/\s*4(?:\.0{1,2})?)?\s*(?:GPA|Grade Point Average)`),
	regexp.MustCompile(`(?i)GPA\s*of\s*(\d\.\d{1,2})`),
	regexp.MustCompile(`(?i)\b(\d\.\d{1,2})\s*(?:out\s+of\s+4(?:\.0{1,2})?)\b`),
}

// ExtractGPA recovers a GPA from raw resume text. It returns the first value
// adjacent to a GPA keyword that parses and falls within [1.0, 4.0]. The
// second return value is false when no credible GPA is present; GPA is an
// optional signal, so this is not an error.
func ExtractGPA(text string) (float64, bool) {
	for _, p := range gpaPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if v >= minValidGPA && v <= maxValidGPA {
				return v, true
			}
		}
	}
	return 0, false
}
