package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capigiba/ADS/internal/scanner"
)

func TestExtractGPA(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"slash four", "GPA: 3.6/4.0", 3.6, true},
		{"bare label", "gpa 3.85", 3.85, true},
		{"value first", "3.2 GPA in Computer Science", 3.2, true},
		{"value slash first", "Graduated with a 3.9/4.0 GPA", 3.9, true},
		{"cgpa", "CGPA: 3.4", 3.4, true},
		{"out of range high", "GPA: 4.5", 0, false},
		{"out of range low", "GPA: 0.9", 0, false},
		{"ten point scale", "7.8/10 GPA", 0, false},
		{"no gpa", "no academic results listed", 0, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := scanner.ExtractGPA(tc.text)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestExtractGPA_FirstValidWins(t *testing.T) {
	t.Parallel()
	got, ok := scanner.ExtractGPA("GPA: 5.0 then later GPA: 3.1")
	require.True(t, ok)
	assert.InDelta(t, 3.1, got, 1e-9)
}
