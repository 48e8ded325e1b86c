package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capigiba/ADS/internal/scanner"
)

func defaultWeights() scanner.Weights {
	return scanner.Weights{
		UserSkill:          0.8,
		UserExperience:     0.2,
		TargetJDSimilarity: 0.8,
		TargetSkills:       8,
		TargetMonthsBase:   60,
		TargetWordCount:    400,
		TargetGPA:          3.2,
		JD:                 30,
		Skill:              50,
		Months:             50,
		Word:               10,
		GPA:                10,
	}
}

func TestCompose_AllTargetsMet(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	gpa := 3.5
	score, br := w.Compose(0.9, 10, 120, 500, &gpa)
	assert.InDelta(t, 100, score, 1e-9)
	assert.InDelta(t, 30, br.JD, 1e-9)
	assert.InDelta(t, 40, br.Skill, 1e-9)
	assert.InDelta(t, 10, br.Months, 1e-9)
	assert.InDelta(t, 10, br.Word, 1e-9)
	assert.InDelta(t, 10, br.GPA, 1e-9)
	assert.InDelta(t, 100, br.Max, 1e-9)
}

func TestCompose_PartialRamps(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	score, br := w.Compose(0.4, 4, 6, 200, nil)
	// Each signal sits at half or less of its target.
	assert.InDelta(t, 15, br.JD, 1e-9)
	assert.InDelta(t, 20, br.Skill, 1e-9)
	// Months target is 60*0.2=12, cap 50*0.2=10; 6 months earns half.
	assert.InDelta(t, 5, br.Months, 1e-9)
	assert.InDelta(t, 5, br.Word, 1e-9)
	assert.InDelta(t, 0, br.GPA, 1e-9)
	assert.InDelta(t, 90, br.Max, 1e-9)
	assert.InDelta(t, 45.0/90.0*100.0, score, 1e-9)
}

func TestCompose_MissingGPAExcludedFromDenominator(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	score, br := w.Compose(0.9, 10, 120, 500, nil)
	assert.InDelta(t, 90, br.Max, 1e-9)
	assert.InDelta(t, 100, score, 1e-9)
}

func TestCompose_ExperienceCoupledToRelevance(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	w.ExperienceCoupledJD = true
	// Relevance at half target halves the experience credit.
	_, br := w.Compose(0.4, 0, 120, 0, nil)
	assert.InDelta(t, 5, br.Months, 1e-9)

	// Full relevance leaves it untouched.
	_, br = w.Compose(0.9, 0, 120, 0, nil)
	assert.InDelta(t, 10, br.Months, 1e-9)
}

func TestCompose_Bounds(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	gpa := 4.0
	for _, c := range []struct {
		jd     float64
		skills int
		months int
		words  int
		gpa    *float64
	}{
		{0, 0, 0, 0, nil},
		{1.0, 100, 1000, 10000, &gpa},
		{0.33, 3, 17, 123, nil},
	} {
		score, _ := w.Compose(c.jd, c.skills, c.months, c.words, c.gpa)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestCompose_ZeroTargetsContributeNothing(t *testing.T) {
	t.Parallel()
	w := defaultWeights()
	w.TargetSkills = 0
	_, br := w.Compose(0, 5, 0, 0, nil)
	assert.InDelta(t, 0, br.Skill, 1e-9)
}
