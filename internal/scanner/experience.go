package scanner

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// YearMonth is a calendar position with month precision.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Before reports whether y is strictly earlier than o.
func (y YearMonth) Before(o YearMonth) bool {
	return y.Year < o.Year || (y.Year == o.Year && y.Month < o.Month)
}

// After reports whether y is strictly later than o.
func (y YearMonth) After(o YearMonth) bool { return o.Before(y) }

// Period is one employment date range recovered from resume text.
// Invariant: End is never before Start and Months is positive; candidates
// violating this are discarded during extraction.
type Period struct {
	Start  YearMonth
	End    YearMonth
	Months int
}

// MonthsBetween counts calendar months covered by [start, end], inclusive of
// both endpoints: (end.year-start.year)*12 + (end.month-start.month) + 1.
// It returns 0 when end precedes start.
func MonthsBetween(start, end YearMonth) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year-start.Year)*12 + int(end.Month) - int(start.Month) + 1
	if months < 0 {
		return 0
	}
	return months
}

// datePatterns run in order; earlier patterns win overlapping text regions.
// The first two capture a leading role title; the last matches bare date
// pairs. Group captures that fail date parsing reject only that match.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:^|\n)\s*(?P<title>[^\n(]+?)\s*(?:\n|\s+at\s+|\s*,\s*)(?:[^\n(]+?\s+)?\(?(?P<start_date>.{5,25}?)\s*[-–—to]+\s*(?P<end_date>.{4,25}?)\)?`),
	regexp.MustCompile(`(?im)(?:^|\n)\s*(?P<title>[^\n(]{5,80}?)\s*(?:\n.*?){0,2}?\s*\(?(?P<start_date>.{5,25}?)\s*[-–—to]+\s*(?P<end_date>.{4,25}?)\)?`),
	regexp.MustCompile(`(?i)(?P<start_date>(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|spr|sum|fal|win)[a-z.]{0,6}\s+\d{4}|\d{1,2}[/-]\d{4}|\d{4})\s*[-–—to]+\s*(?P<end_date>(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|spr|sum|fal|win)[a-z.]{0,6}\s+\d{4}|\d{1,2}[/-]\d{4}|\d{4}|present|current|till date|now|ongoing)`),
}

// sectionHeaders are generic headings that regularly precede date ranges; a
// title capture matching one of these is not a real role title.
var sectionHeaders = []string{
	"experience", "work experience", "professional experience",
	"career summary", "employment", "history",
}

var (
	brokenDigits   = regexp.MustCompile(`(\d)\s+(\d)`)
	monthYearToken = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z.]{0,6}\s+(\d{4})\b`)
	numericMYToken = regexp.MustCompile(`\b(\d{1,2})[/-](\d{4})\b`)
	bareYearToken  = regexp.MustCompile(`^\d{4}$`)
)

var presentTerms = map[string]bool{
	"present": true, "current": true, "till date": true, "now": true, "ongoing": true,
}

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExperienceExtractor recovers employment periods from raw resume text. Now
// supplies the date that open-ended ("present") periods resolve to; it
// defaults to time.Now.
type ExperienceExtractor struct {
	Now func() time.Time
}

// NewExperienceExtractor returns an extractor anchored to the wall clock.
func NewExperienceExtractor() *ExperienceExtractor {
	return &ExperienceExtractor{Now: time.Now}
}

func (e *ExperienceExtractor) now() YearMonth {
	fn := e.Now
	if fn == nil {
		fn = time.Now
	}
	t := fn()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// parseDate resolves a captured date expression into a YearMonth. Sentinel
// end-date terms resolve to the extractor's current date. Month-name and
// numeric month/year tokens may appear anywhere inside the capture; a bare
// year must be the entire capture. Returns false when nothing parses.
func (e *ExperienceExtractor) parseDate(s string) (YearMonth, bool) {
	s = strings.TrimSpace(s)
	if presentTerms[strings.ToLower(s)] {
		return e.now(), true
	}
	if m := monthYearToken.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[2])
		if err != nil {
			return YearMonth{}, false
		}
		month, ok := monthIndex[strings.ToLower(m[1])]
		if !ok {
			return YearMonth{}, false
		}
		return YearMonth{Year: year, Month: month}, true
	}
	if m := numericMYToken.FindStringSubmatch(s); m != nil {
		month, err1 := strconv.Atoi(m[1])
		year, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return YearMonth{}, false
		}
		return YearMonth{Year: year, Month: time.Month(month)}, true
	}
	if bareYearToken.MatchString(s) {
		year, err := strconv.Atoi(s)
		if err != nil {
			return YearMonth{}, false
		}
		// Bare years carry no month; anchor to January for determinism.
		return YearMonth{Year: year, Month: time.January}, true
	}
	return YearMonth{}, false
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// ExtractPeriods applies the date patterns to raw resume text and returns the
// accepted periods in input order. A text region claimed by an earlier
// pattern is never double-counted by a later one.
func (e *ExperienceExtractor) ExtractPeriods(text string) []Period {
	// PDF extraction can split year digits ("2 019"); rejoin them before
	// pattern matching.
	cleaned := brokenDigits.ReplaceAllString(text, "$1$2")

	var periods []Period
	var claimed []span

	for _, p := range datePatterns {
		startIdx := p.SubexpIndex("start_date")
		endIdx := p.SubexpIndex("end_date")
		titleIdx := p.SubexpIndex("title")
		if startIdx < 0 || endIdx < 0 {
			continue
		}
		for _, m := range p.FindAllStringSubmatchIndex(cleaned, -1) {
			if m[2*startIdx] < 0 || m[2*endIdx] < 0 {
				continue
			}
			dateSpan := span{start: m[2*startIdx], end: m[2*endIdx+1]}
			taken := false
			for _, c := range claimed {
				if dateSpan.overlaps(c) {
					taken = true
					break
				}
			}
			if taken {
				continue
			}

			startStr := cleaned[m[2*startIdx]:m[2*startIdx+1]]
			endStr := cleaned[m[2*endIdx]:m[2*endIdx+1]]
			start, startOK := e.parseDate(startStr)
			end, endOK := e.parseDate(endStr)

			if titleIdx >= 0 && m[2*titleIdx] >= 0 {
				title := strings.ToLower(strings.TrimSpace(cleaned[m[2*titleIdx]:m[2*titleIdx+1]]))
				if title != "" && (isSectionHeader(title) || len(title) < 3) {
					if !startOK || !endOK {
						continue
					}
				}
			}
			if !startOK || !endOK {
				continue
			}
			months := MonthsBetween(start, end)
			if months <= 0 {
				continue
			}
			periods = append(periods, Period{Start: start, End: end, Months: months})
			claimed = append(claimed, dateSpan)
		}
	}
	return periods
}

func isSectionHeader(title string) bool {
	for _, h := range sectionHeaders {
		if strings.Contains(title, h) {
			return true
		}
	}
	return false
}

// MergePeriods collapses overlapping or touching periods into the minimal
// sorted, pairwise non-overlapping covering set. Merging an already-merged
// set is a no-op.
func MergePeriods(periods []Period) []Period {
	if len(periods) == 0 {
		return nil
	}
	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Period, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		cur.Months = MonthsBetween(cur.Start, cur.End)
		merged = append(merged, cur)
		cur = next
	}
	cur.Months = MonthsBetween(cur.Start, cur.End)
	merged = append(merged, cur)
	return merged
}

// TotalMonths extracts all employment periods from raw text, merges overlaps,
// and returns the total covered months. Unparsable fragments are skipped; no
// valid periods yields 0, never an error.
func (e *ExperienceExtractor) TotalMonths(text string) int {
	merged := MergePeriods(e.ExtractPeriods(text))
	total := 0
	for _, p := range merged {
		total += p.Months
	}
	return total
}
