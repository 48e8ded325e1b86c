package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/capigiba/ADS/internal/domain"
)

// SimilarityFunc scores how close a resume is to the requirement text on a
// 0..1 scale. Implementations may call remote embedding services; errors are
// treated as a zero signal for the affected resume, never as a scan failure.
type SimilarityFunc func(ctx context.Context, requirement, resume string) (float64, error)

// ResumeInput is one resume to be scored.
type ResumeInput struct {
	ID       string
	Filename string
	Text     string
}

// Request carries everything needed to score a batch of resumes against a
// single job requirement.
type Request struct {
	RequirementText string
	// TitleOverride skips title extraction when non-empty.
	TitleOverride string
	Library       domain.SkillLibrary
	Weights       Weights
	Resumes       []ResumeInput
}

// Result is the per-resume outcome. Err is set when the resume could not be
// scored; the rest of the batch is unaffected.
type Result struct {
	ResumeID      string
	Filename      string
	Score         float64
	JDSimilarity  float64
	MatchedSkills []string
	TargetSkills  []string
	TotalMonths   int
	WordCount     int
	GPA           *float64
	Breakdown     domain.ScoreBreakdown
	Err           error
}

// Summary describes what was derived from the requirement side of a scan.
type Summary struct {
	JobTitle     string
	MatchedTitle string
	TargetSkills []string
}

// Scanner runs the scoring pipeline over resume batches. Safe for concurrent
// use; per-request state lives on the stack of Scan.
type Scanner struct {
	matcher     *SkillMatcher
	experience  *ExperienceExtractor
	similarity  SimilarityFunc
	concurrency int
	log         *slog.Logger
}

// New builds a Scanner. Concurrency values below one are raised to one.
func New(matcher *SkillMatcher, experience *ExperienceExtractor, similarity SimilarityFunc, concurrency int, log *slog.Logger) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		matcher:     matcher,
		experience:  experience,
		similarity:  similarity,
		concurrency: concurrency,
		log:         log,
	}
}

// Scan scores every resume in the request against the requirement text and
// returns results ordered by score descending. Per-resume failures are
// reported on the individual result; only an unusable requirement fails the
// whole call.
func (s *Scanner) Scan(ctx context.Context, req Request) (Summary, []Result, error) {
	requirement := Normalize(req.RequirementText)
	if requirement == "" {
		return Summary{}, nil, fmt.Errorf("op=scanner.Scan: empty requirement text: %w", domain.ErrInvalidArgument)
	}

	// An unresolvable title skips skill resolution; the batch still scores on
	// the remaining signals.
	title := Normalize(req.TitleOverride)
	if title == "" {
		if extracted, ok := ExtractJobTitle(req.RequirementText); ok {
			title = extracted
		} else {
			s.log.Warn("no job title found in requirement, skipping skill resolution")
		}
	}

	summary := Summary{JobTitle: title}
	if title != "" {
		if matched, skills, ok := s.matcher.MatchTitle(title, req.Library); ok {
			summary.MatchedTitle = matched
			summary.TargetSkills = skills
		} else {
			s.log.Warn("no skill library entry matched job title", slog.String("job_title", title))
		}
	}

	results := make([]Result, len(req.Resumes))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, resume := range req.Resumes {
		wg.Add(1)
		go func(i int, resume ResumeInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.scanOne(ctx, requirement, summary.TargetSkills, req.Weights, resume)
		}(i, resume)
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].ResumeID < results[b].ResumeID
	})
	return summary, results, nil
}

func (s *Scanner) scanOne(ctx context.Context, requirement string, targetSkills []string, weights Weights, resume ResumeInput) Result {
	res := Result{ResumeID: resume.ID, Filename: resume.Filename}

	normalized := Normalize(resume.Text)
	if normalized == "" {
		res.Err = fmt.Errorf("op=scanner.scanOne: resume %s has no extractable text: %w", resume.ID, domain.ErrInvalidArgument)
		return res
	}

	if s.similarity != nil {
		sim, err := s.similarity(ctx, requirement, normalized)
		if err != nil {
			// Degrade to zero relevance rather than failing the resume.
			s.log.Warn("similarity unavailable, scoring without it",
				slog.String("resume_id", resume.ID), slog.Any("error", err))
		} else {
			res.JDSimilarity = sim
		}
	}

	res.MatchedSkills = s.matcher.ExtractSkills(normalized, targetSkills)
	res.TargetSkills = targetSkills
	res.TotalMonths = s.experience.TotalMonths(resume.Text)
	res.WordCount = WordCount(normalized)
	if gpa, ok := ExtractGPA(resume.Text); ok {
		res.GPA = &gpa
	}

	res.Score, res.Breakdown = weights.Compose(res.JDSimilarity, len(res.MatchedSkills), res.TotalMonths, res.WordCount, res.GPA)
	return res
}
