package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/capigiba/ADS/internal/domain"
)

// ScanRepo persists and loads scans and their results from PostgreSQL.
type ScanRepo struct{ Pool PgxPool }

// NewScanRepo constructs a ScanRepo with the given pool.
func NewScanRepo(p PgxPool) *ScanRepo { return &ScanRepo{Pool: p} }

// Create inserts a new scan and returns its id.
func (r *ScanRepo) Create(ctx domain.Context, s domain.Scan) (string, error) {
	tracer := otel.Tracer("repo.scans")
	ctx, span := tracer.Start(ctx, "scans.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "scans"),
	)
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO scans (id, status, error, job_description, job_title, resume_ids, user_skill_weight, user_experience_weight, experience_coupled_jd, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.Pool.Exec(ctx, q, id, s.Status, s.Error, s.JobDescription, s.JobTitle, s.ResumeIDs,
		s.UserSkillWeight, s.UserExperienceWeight, s.ExperienceCoupledJD, now, now)
	if err != nil {
		return "", fmt.Errorf("op=scan.create: %w", err)
	}
	return id, nil
}

// Get loads a scan by id or returns domain.ErrNotFound.
func (r *ScanRepo) Get(ctx domain.Context, id string) (domain.Scan, error) {
	tracer := otel.Tracer("repo.scans")
	ctx, span := tracer.Start(ctx, "scans.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "scans"),
	)
	q := `SELECT id, status, COALESCE(error,''), job_description, job_title, resume_ids, user_skill_weight, user_experience_weight, experience_coupled_jd, created_at, updated_at FROM scans WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var s domain.Scan
	if err := row.Scan(&s.ID, &s.Status, &s.Error, &s.JobDescription, &s.JobTitle, &s.ResumeIDs,
		&s.UserSkillWeight, &s.UserExperienceWeight, &s.ExperienceCoupledJD, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Scan{}, fmt.Errorf("op=scan.get: %w", domain.ErrNotFound)
		}
		return domain.Scan{}, fmt.Errorf("op=scan.get: %w", err)
	}
	return s, nil
}

// UpdateStatus updates a scan's status and optional error message.
func (r *ScanRepo) UpdateStatus(ctx domain.Context, id string, status domain.ScanStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.scans")
	ctx, span := tracer.Start(ctx, "scans.UpdateStatus")
	defer span.End()
	q := `UPDATE scans SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	// Map nil errMsg to empty string to satisfy NOT NULL constraint on error column
	errVal := ""
	if errMsg != nil {
		errVal = *errMsg
	}
	_, err := r.Pool.Exec(ctx, q, id, status, errVal, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=scan.update_status: %w", err)
	}
	return nil
}

// SaveResults replaces the result set of a scan in one transaction. Reruns of
// a scan therefore never leave stale rows behind.
func (r *ScanRepo) SaveResults(ctx domain.Context, scanID string, results []domain.ScanResult) error {
	tracer := otel.Tracer("repo.scans")
	ctx, span := tracer.Start(ctx, "scans.SaveResults")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "scan_results"),
	)
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=scan.save_results: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM scan_results WHERE scan_id=$1`, scanID); err != nil {
		return fmt.Errorf("op=scan.save_results: %w", err)
	}
	q := `INSERT INTO scan_results (scan_id, resume_id, filename, score, jd_similarity, matched_skills, target_skills, total_months, word_count, gpa, breakdown, error, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	now := time.Now().UTC()
	for _, res := range results {
		breakdown, err := json.Marshal(res.Breakdown)
		if err != nil {
			return fmt.Errorf("op=scan.save_results: %w", err)
		}
		if _, err := tx.Exec(ctx, q, scanID, res.ResumeID, res.Filename, res.Score, res.JDSimilarity,
			res.MatchedSkills, res.TargetSkills, res.TotalMonths, res.WordCount, res.GPA, breakdown, res.Error, now); err != nil {
			return fmt.Errorf("op=scan.save_results: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=scan.save_results: %w", err)
	}
	return nil
}

// ResultsByScanID loads a scan's results ordered by score descending.
func (r *ScanRepo) ResultsByScanID(ctx domain.Context, scanID string) ([]domain.ScanResult, error) {
	tracer := otel.Tracer("repo.scans")
	ctx, span := tracer.Start(ctx, "scans.ResultsByScanID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "scan_results"),
	)
	q := `SELECT scan_id, resume_id, filename, score, jd_similarity, matched_skills, target_skills, total_months, word_count, gpa, breakdown, COALESCE(error,''), created_at
	FROM scan_results WHERE scan_id=$1 ORDER BY score DESC, resume_id ASC`
	rows, err := r.Pool.Query(ctx, q, scanID)
	if err != nil {
		return nil, fmt.Errorf("op=scan.results: %w", err)
	}
	defer rows.Close()

	var out []domain.ScanResult
	for rows.Next() {
		var res domain.ScanResult
		var breakdown []byte
		if err := rows.Scan(&res.ScanID, &res.ResumeID, &res.Filename, &res.Score, &res.JDSimilarity,
			&res.MatchedSkills, &res.TargetSkills, &res.TotalMonths, &res.WordCount, &res.GPA, &breakdown, &res.Error, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=scan.results: %w", err)
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &res.Breakdown); err != nil {
				return nil, fmt.Errorf("op=scan.results: %w", err)
			}
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=scan.results: %w", err)
	}
	return out, nil
}
