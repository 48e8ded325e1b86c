package scanner

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/capigiba/ADS/internal/domain"
)

// SkillMatcher resolves job titles against a skill library and extracts
// matched skills from resume text using exact lemma hits plus fuzzy matching.
// Safe for concurrent use; the lemmatizer is read-only after construction.
type SkillMatcher struct {
	lemmatizer     *golem.Lemmatizer
	titleThreshold int
	skillThreshold int
}

// NewSkillMatcher builds a matcher with the given fuzzy thresholds (0-100).
func NewSkillMatcher(titleThreshold, skillThreshold int) (*SkillMatcher, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("op=scanner.NewSkillMatcher: %w", err)
	}
	return &SkillMatcher{
		lemmatizer:     lem,
		titleThreshold: titleThreshold,
		skillThreshold: skillThreshold,
	}, nil
}

// MatchTitle fuzzy-matches a normalized job title against the library keys
// using a token-order-insensitive ratio. It returns the matched key and its
// skill list only when the best score meets the title threshold; otherwise ok
// is false and skill matching is skipped, which is not an error.
func (m *SkillMatcher) MatchTitle(title string, lib domain.SkillLibrary) (string, []string, bool) {
	if title == "" || len(lib) == 0 {
		return "", nil, false
	}
	keys := make([]string, 0, len(lib))
	for k := range lib {
		keys = append(keys, k)
	}
	// Iterate keys in order so equal scores resolve deterministically.
	sort.Strings(keys)

	bestKey, bestScore := "", -1
	for _, k := range keys {
		if score := fuzzy.TokenSortRatio(title, k); score > bestScore {
			bestKey, bestScore = k, score
		}
	}
	if bestScore < m.titleThreshold {
		return "", nil, false
	}
	return bestKey, lib[bestKey], true
}

// ExtractSkills returns the target skills present in the resume text, as the
// union of exact lemma hits and fuzzy hits, deduplicated and sorted. The
// result is always a subset of the normalized target list.
func (m *SkillMatcher) ExtractSkills(text string, targetSkills []string) []string {
	if text == "" || len(targetSkills) == 0 {
		return nil
	}
	tokens := alphaTokens(strings.ToLower(text))
	lemmas := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		lemmas[m.lemmatizer.Lemma(tok)] = true
	}

	targets := make(map[string]bool, len(targetSkills))
	for _, s := range targetSkills {
		if n := Normalize(s); n != "" {
			targets[n] = true
		}
	}

	hits := make(map[string]bool)
	for t := range targets {
		if lemmas[t] {
			hits[t] = true
		}
	}
	for t := range targets {
		if hits[t] {
			continue
		}
		if m.fuzzyHit(t, tokens) {
			hits[t] = true
		}
	}

	out := make([]string, 0, len(hits))
	for t := range hits {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// fuzzyHit slides a token window the size of the skill across the resume
// tokens and accepts the skill when any window's token-sort ratio meets the
// skill threshold. Comparing windows rather than the whole text keeps the
// ratio meaningful for long resumes.
func (m *SkillMatcher) fuzzyHit(skill string, tokens []string) bool {
	width := len(strings.Fields(skill))
	if width == 0 || width > len(tokens) {
		return false
	}
	for i := 0; i+width <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+width], " ")
		if fuzzy.TokenSortRatio(skill, window) >= m.skillThreshold {
			return true
		}
	}
	return false
}

// alphaTokens splits s into purely alphabetic tokens, dropping numbers and
// punctuation the way the lemma comparison expects.
func alphaTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
