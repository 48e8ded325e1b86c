package usecase

import (
	"fmt"
	"time"

	"github.com/capigiba/ADS/internal/domain"
	"github.com/capigiba/ADS/internal/scanner"
)

// SkillService manages the skill library: job titles mapped to the skills a
// scan scores against. Entries are stored normalized so matching never has to
// re-normalize on the hot path.
type SkillService struct {
	Repo domain.SkillRepository
}

// NewSkillService constructs a SkillService with the given repo.
func NewSkillService(r domain.SkillRepository) SkillService { return SkillService{Repo: r} }

// Upsert normalizes and stores a library entry, returning its id. An existing
// entry with the same job title is replaced.
func (s SkillService) Upsert(ctx domain.Context, jobTitle string, skills []string, active bool) (string, error) {
	title := scanner.Normalize(jobTitle)
	if title == "" {
		return "", fmt.Errorf("%w: job title required", domain.ErrInvalidArgument)
	}

	normalized := make([]string, 0, len(skills))
	seen := map[string]bool{}
	for _, sk := range skills {
		n := scanner.Normalize(sk)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		return "", fmt.Errorf("%w: at least one skill required", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	id, err := s.Repo.Upsert(ctx, domain.SkillEntry{
		JobTitle:  title,
		Skills:    normalized,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("op=skills.Upsert: %w", err)
	}
	return id, nil
}

// List returns all active library entries.
func (s SkillService) List(ctx domain.Context) ([]domain.SkillEntry, error) {
	return s.Repo.ListActive(ctx)
}
