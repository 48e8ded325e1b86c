package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/capigiba/ADS/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ResumeRepo persists and loads resumes using a minimal pgx pool.
type ResumeRepo struct{ Pool PgxPool }

// NewResumeRepo constructs a ResumeRepo with the given pool.
func NewResumeRepo(p PgxPool) *ResumeRepo { return &ResumeRepo{Pool: p} }

// Create stores a new resume and returns its id (generates one if empty).
func (r *ResumeRepo) Create(ctx domain.Context, res domain.Resume) (string, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "resumes"),
	)
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO resumes (id, text, filename, mime, size, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, res.Text, res.Filename, res.MIME, res.Size, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=resume.create: %w", err)
	}
	return id, nil
}

// Get loads a resume by id or returns domain.ErrNotFound.
func (r *ResumeRepo) Get(ctx domain.Context, id string) (domain.Resume, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "resumes"),
	)
	q := `SELECT id, text, filename, mime, size, created_at FROM resumes WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var res domain.Resume
	if err := row.Scan(&res.ID, &res.Text, &res.Filename, &res.MIME, &res.Size, &res.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Resume{}, fmt.Errorf("op=resume.get: %w", domain.ErrNotFound)
		}
		return domain.Resume{}, fmt.Errorf("op=resume.get: %w", err)
	}
	return res, nil
}

// GetMany loads the given resumes in one round trip. Every requested id must
// exist; a missing id yields domain.ErrNotFound naming it.
func (r *ResumeRepo) GetMany(ctx domain.Context, ids []string) ([]domain.Resume, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.GetMany")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "resumes"),
	)
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT id, text, filename, mime, size, created_at FROM resumes WHERE id = ANY($1)`
	rows, err := r.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("op=resume.get_many: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Resume, len(ids))
	for rows.Next() {
		var res domain.Resume
		if err := rows.Scan(&res.ID, &res.Text, &res.Filename, &res.MIME, &res.Size, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=resume.get_many: %w", err)
		}
		byID[res.ID] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=resume.get_many: %w", err)
	}

	out := make([]domain.Resume, 0, len(ids))
	for _, id := range ids {
		res, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("op=resume.get_many: resume %s: %w", id, domain.ErrNotFound)
		}
		out = append(out, res)
	}
	return out, nil
}
