package scanner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capigiba/ADS/internal/scanner"
)

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time { return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC) }
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()
	jan2020 := scanner.YearMonth{Year: 2020, Month: time.January}
	jun2024 := scanner.YearMonth{Year: 2024, Month: time.June}
	assert.Equal(t, 54, scanner.MonthsBetween(jan2020, jun2024))
	assert.Equal(t, 1, scanner.MonthsBetween(jan2020, jan2020))
	assert.Equal(t, 0, scanner.MonthsBetween(jun2024, jan2020))
}

func TestExtractPeriods_MonthNameRange(t *testing.T) {
	t.Parallel()
	e := &scanner.ExperienceExtractor{Now: fixedClock(2025, time.January)}
	periods := e.ExtractPeriods("Worked as engineer from Jan 2020 - Jun 2024 shipping services.")
	require.Len(t, periods, 1)
	assert.Equal(t, scanner.YearMonth{Year: 2020, Month: time.January}, periods[0].Start)
	assert.Equal(t, scanner.YearMonth{Year: 2024, Month: time.June}, periods[0].End)
	assert.Equal(t, 54, periods[0].Months)
}

func TestExtractPeriods_PresentResolvesToClock(t *testing.T) {
	t.Parallel()
	e := &scanner.ExperienceExtractor{Now: fixedClock(2024, time.March)}
	assert.Equal(t, 15, e.TotalMonths("Jan 2023 to Present"))
}

func TestExtractPeriods_NumericAndBareYearFormats(t *testing.T) {
	t.Parallel()
	e := &scanner.ExperienceExtractor{Now: fixedClock(2025, time.January)}

	periods := e.ExtractPeriods("03/2019 - 08/2021")
	require.Len(t, periods, 1)
	assert.Equal(t, 30, periods[0].Months)

	// Bare years anchor to January.
	periods = e.ExtractPeriods("2015 - 2017")
	require.Len(t, periods, 1)
	assert.Equal(t, 25, periods[0].Months)
}

func TestExtractPeriods_RejoinsSplitDigits(t *testing.T) {
	t.Parallel()
	e := &scanner.ExperienceExtractor{Now: fixedClock(2025, time.January)}
	periods := e.ExtractPeriods("Mar 2 019 - Mar 2 020")
	require.Len(t, periods, 1)
	assert.Equal(t, 13, periods[0].Months)
}

func TestExtractPeriods_ReversedRangeDropped(t *testing.T) {
	t.Parallel()
	e := &scanner.ExperienceExtractor{Now: fixedClock(2025, time.January)}
	assert.Empty(t, e.ExtractPeriods("Jun 2024 - Jan 2020"))
}

func TestMergePeriods_OverlapCollapses(t *testing.T) {
	t.Parallel()
	mk := func(sy int, sm time.Month, ey int, em time.Month) scanner.Period {
		s := scanner.YearMonth{Year: sy, Month: sm}
		e := scanner.YearMonth{Year: ey, Month: em}
		return scanner.Period{Start: s, End: e, Months: scanner.MonthsBetween(s, e)}
	}

	merged := scanner.MergePeriods([]scanner.Period{
		mk(2020, time.June, 2021, time.June),
		mk(2020, time.January, 2020, time.December),
	})
	require.Len(t, merged, 1)
	assert.Equal(t, 18, merged[0].Months)

	// Disjoint periods stay separate.
	merged = scanner.MergePeriods([]scanner.Period{
		mk(2015, time.January, 2015, time.June),
		mk(2018, time.January, 2018, time.June),
	})
	require.Len(t, merged, 2)

	// Merging is idempotent.
	again := scanner.MergePeriods(merged)
	assert.Equal(t, merged, again)
}

func TestMergePeriods_ContainedPeriodAbsorbed(t *testing.T) {
	t.Parallel()
	outer := scanner.Period{
		Start: scanner.YearMonth{Year: 2019, Month: time.January},
		End:   scanner.YearMonth{Year: 2022, Month: time.December},
	}
	inner := scanner.Period{
		Start: scanner.YearMonth{Year: 2020, Month: time.March},
		End:   scanner.YearMonth{Year: 2020, Month: time.September},
	}
	merged := scanner.MergePeriods([]scanner.Period{outer, inner})
	require.Len(t, merged, 1)
	assert.Equal(t, 48, merged[0].Months)
}

func TestTotalMonths_NoDatesFound(t *testing.T) {
	t.Parallel()
	e := scanner.NewExperienceExtractor()
	assert.Equal(t, 0, e.TotalMonths("No employment history in this text."))
}
