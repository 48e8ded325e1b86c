// Package domain defines the core entities and ports of the resume scanner.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")
)

// Resume is a stored, already-extracted resume text plus upload metadata.
// Invariants: Text sanitized and non-empty; Size <= configured max.
type Resume struct {
	ID        string
	Text      string
	Filename  string
	MIME      string
	Size      int64
	CreatedAt time.Time
}

// SkillEntry is one row of the skill library: a job title mapped to the skills
// required for it. Only Active entries participate in scanning. Titles and
// skills are stored normalized (trimmed, lowercased, single-spaced).
type SkillEntry struct {
	ID        string
	JobTitle  string
	Skills    []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SkillLibrary maps normalized job titles to their normalized skill sets.
// Loaders return it already filtered to active entries.
type SkillLibrary map[string][]string

// ScanStatus enumerates the lifecycle of a scan job.
type ScanStatus string

const (
	ScanQueued     ScanStatus = "queued"
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

// Scan is one batch scoring job: a job description evaluated against a set of
// resumes. Weight overrides apply to this scan only and never touch the
// process-wide defaults.
type Scan struct {
	ID             string
	Status         ScanStatus
	Error          string
	JobDescription string
	JobTitle       string // optional explicit title; empty means infer from text
	ResumeIDs      []string
	// Per-scan overrides; nil means use the configured default.
	UserSkillWeight      *float64
	UserExperienceWeight *float64
	ExperienceCoupledJD  *bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ScoreBreakdown carries the five sub-scores plus the raw sum and the
// normalization denominator actually used. Max excludes the GPA weight when no
// GPA was found.
type ScoreBreakdown struct {
	JD     float64 `json:"jd"`
	Skill  float64 `json:"skill"`
	Months float64 `json:"months"`
	Word   float64 `json:"word"`
	GPA    float64 `json:"gpa"`
	Raw    float64 `json:"raw"`
	Max    float64 `json:"max"`
}

// ScanResult is the per-resume outcome of a scan. Immutable once created; a
// non-empty Error means the resume scored 0 without aborting its siblings.
type ScanResult struct {
	ScanID        string
	ResumeID      string
	Filename      string
	Score         float64
	JDSimilarity  float64
	MatchedSkills []string
	TargetSkills  []string
	TotalMonths   int
	WordCount     int
	GPA           *float64
	Breakdown     ScoreBreakdown
	Error         string
	CreatedAt     time.Time
}

// Repositories (ports)

type ResumeRepository interface {
	Create(ctx Context, r Resume) (string, error)
	Get(ctx Context, id string) (Resume, error)
	GetMany(ctx Context, ids []string) ([]Resume, error)
}

type SkillRepository interface {
	Upsert(ctx Context, e SkillEntry) (string, error)
	ListActive(ctx Context) ([]SkillEntry, error)
	// Library returns the active entries as a SkillLibrary keyed by
	// normalized job title.
	Library(ctx Context) (SkillLibrary, error)
}

type ScanRepository interface {
	Create(ctx Context, s Scan) (string, error)
	Get(ctx Context, id string) (Scan, error)
	UpdateStatus(ctx Context, id string, status ScanStatus, errMsg *string) error
	SaveResults(ctx Context, scanID string, results []ScanResult) error
	// ResultsByScanID returns results ordered by score descending.
	ResultsByScanID(ctx Context, scanID string) ([]ScanResult, error)
}

// Queue (port)

type Queue interface {
	EnqueueScan(ctx Context, payload ScanTaskPayload) (string, error)
}

// ScanTaskPayload is the message carried on the scan-jobs topic.
type ScanTaskPayload struct {
	ScanID string `json:"scan_id"`
}

// EmbeddingClient (port). Implementations may front a single shared model
// instance; adapters serialize or batch access so callers can treat it as safe
// for concurrent use.
type EmbeddingClient interface {
	Embed(ctx Context, texts []string) ([][]float32, error)
}

// TextExtractor (port). ExtractPath extracts plain text from a file at path
// with the provided original filename; empty output means extraction failed.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// Context aliases context.Context so the domain package reads cleanly without
// importing it at every call site.
type Context = context.Context
