package scanner

import (
	"math"

	"github.com/capigiba/ADS/internal/domain"
)

// Weights is the immutable scoring parameter set for one scan invocation.
// Construct a fresh value per scan; concurrent scans with different weights
// never share mutable state.
type Weights struct {
	UserSkill      float64
	UserExperience float64

	TargetJDSimilarity float64
	TargetSkills       int
	TargetMonthsBase   int
	TargetWordCount    int
	TargetGPA          float64

	JD     float64
	Skill  float64
	Months float64
	Word   float64
	GPA    float64

	// ExperienceCoupledJD scales the experience sub-score by the achieved
	// fraction of the relevance sub-score, making experience credit
	// conditional on relevance.
	ExperienceCoupledJD bool
}

// ramp scales value toward target linearly and caps at weight once the target
// is met. A non-positive target contributes nothing.
func ramp(value, target, weight float64) float64 {
	if target <= 0 {
		return 0
	}
	if value >= target {
		return weight
	}
	return math.Max(0, value/target*weight)
}

// MaxScore returns the normalization denominator: the sum of all weights in
// play. The GPA weight participates only when a GPA was found.
func (w Weights) MaxScore(hasGPA bool) float64 {
	max := w.JD + w.Skill*w.UserSkill + w.Months*w.UserExperience + w.Word
	if hasGPA {
		max += w.GPA
	}
	return max
}

// Compose combines the sub-signals into a bounded 0-100 score with its full
// breakdown. A nil gpa excludes the GPA component from both numerator and
// denominator.
func (w Weights) Compose(jdSimilarity float64, skillCount, totalMonths, wordCount int, gpa *float64) (float64, domain.ScoreBreakdown) {
	jdScore := ramp(jdSimilarity, w.TargetJDSimilarity, w.JD)
	skillScore := ramp(float64(skillCount), float64(w.TargetSkills), w.Skill*w.UserSkill)

	monthsTarget := float64(w.TargetMonthsBase) * w.UserExperience
	monthsScore := ramp(float64(totalMonths), monthsTarget, w.Months*w.UserExperience)
	if w.ExperienceCoupledJD && w.JD > 0 {
		monthsScore *= jdScore / w.JD
	}

	wordScore := ramp(float64(wordCount), float64(w.TargetWordCount), w.Word)

	var gpaScore float64
	if gpa != nil {
		gpaScore = ramp(*gpa, w.TargetGPA, w.GPA)
	}

	raw := jdScore + skillScore + monthsScore + wordScore + gpaScore
	max := w.MaxScore(gpa != nil)

	var final float64
	if max > 0 {
		final = raw / max * 100.0
	}
	final = math.Max(0, math.Min(100, final))

	return final, domain.ScoreBreakdown{
		JD:     jdScore,
		Skill:  skillScore,
		Months: monthsScore,
		Word:   wordScore,
		GPA:    gpaScore,
		Raw:    raw,
		Max:    max,
	}
}
