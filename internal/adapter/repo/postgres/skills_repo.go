package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/capigiba/ADS/internal/domain"
)

// SkillRepo persists and loads the skill library from PostgreSQL.
type SkillRepo struct{ Pool PgxPool }

// NewSkillRepo constructs a SkillRepo with the given pool.
func NewSkillRepo(p PgxPool) *SkillRepo { return &SkillRepo{Pool: p} }

// Upsert inserts or updates the entry for its job title and returns the id.
// Job titles are unique; a second upsert for the same title replaces the
// skill list instead of duplicating the row.
func (r *SkillRepo) Upsert(ctx domain.Context, e domain.SkillEntry) (string, error) {
	tracer := otel.Tracer("repo.skills")
	ctx, span := tracer.Start(ctx, "skills.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "skills"),
	)
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO skills (id, job_title, skills, active, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (job_title)
	DO UPDATE SET skills=EXCLUDED.skills, active=EXCLUDED.active, updated_at=EXCLUDED.updated_at
	RETURNING id`
	row := r.Pool.QueryRow(ctx, q, id, e.JobTitle, e.Skills, e.Active, now, now)
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("op=skill.upsert: %w", err)
	}
	return id, nil
}

// ListActive returns all active skill entries ordered by job title.
func (r *SkillRepo) ListActive(ctx domain.Context) ([]domain.SkillEntry, error) {
	tracer := otel.Tracer("repo.skills")
	ctx, span := tracer.Start(ctx, "skills.ListActive")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "skills"),
	)
	q := `SELECT id, job_title, skills, active, created_at, updated_at FROM skills WHERE active ORDER BY job_title`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=skill.list_active: %w", err)
	}
	defer rows.Close()

	var out []domain.SkillEntry
	for rows.Next() {
		var e domain.SkillEntry
		if err := rows.Scan(&e.ID, &e.JobTitle, &e.Skills, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("op=skill.list_active: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=skill.list_active: %w", err)
	}
	return out, nil
}

// Library returns the active entries keyed by job title.
func (r *SkillRepo) Library(ctx domain.Context) (domain.SkillLibrary, error) {
	entries, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	lib := make(domain.SkillLibrary, len(entries))
	for _, e := range entries {
		lib[e.JobTitle] = e.Skills
	}
	return lib, nil
}
