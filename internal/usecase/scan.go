package usecase

import (
	"fmt"
	"time"

	"github.com/capigiba/ADS/internal/domain"
)

// maxScanBatch caps how many resumes one scan may score.
const maxScanBatch = 100

// ScanService orchestrates scan creation and queueing.
type ScanService struct {
	Scans   domain.ScanRepository
	Resumes domain.ResumeRepository
	Queue   domain.Queue
}

// NewScanService constructs a ScanService with its dependencies.
func NewScanService(s domain.ScanRepository, r domain.ResumeRepository, q domain.Queue) ScanService {
	return ScanService{Scans: s, Resumes: r, Queue: q}
}

// ScanRequest is the input for creating a scan. The weight fields override the
// configured defaults for this scan only; nil keeps the default.
type ScanRequest struct {
	JobDescription       string
	JobTitle             string
	ResumeIDs            []string
	UserSkillWeight      *float64
	UserExperienceWeight *float64
	ExperienceCoupledJD  *bool
}

// Enqueue validates the request, verifies every referenced resume exists,
// creates the scan row, and publishes the task. The returned id can be polled
// for results.
func (s ScanService) Enqueue(ctx domain.Context, req ScanRequest) (string, error) {
	if req.JobDescription == "" {
		return "", fmt.Errorf("%w: job description required", domain.ErrInvalidArgument)
	}
	if len(req.ResumeIDs) == 0 {
		return "", fmt.Errorf("%w: at least one resume id required", domain.ErrInvalidArgument)
	}
	if len(req.ResumeIDs) > maxScanBatch {
		return "", fmt.Errorf("%w: at most %d resumes per scan", domain.ErrInvalidArgument, maxScanBatch)
	}
	for _, w := range []*float64{req.UserSkillWeight, req.UserExperienceWeight} {
		if w != nil && (*w < 0 || *w > 1) {
			return "", fmt.Errorf("%w: weight overrides must be within [0,1]", domain.ErrInvalidArgument)
		}
	}

	// Fail fast on dangling references instead of failing the scan in the
	// worker.
	if _, err := s.Resumes.GetMany(ctx, req.ResumeIDs); err != nil {
		return "", fmt.Errorf("op=scan.Enqueue: %w", err)
	}

	now := time.Now().UTC()
	scanID, err := s.Scans.Create(ctx, domain.Scan{
		Status:               domain.ScanQueued,
		JobDescription:       req.JobDescription,
		JobTitle:             req.JobTitle,
		ResumeIDs:            req.ResumeIDs,
		UserSkillWeight:      req.UserSkillWeight,
		UserExperienceWeight: req.UserExperienceWeight,
		ExperienceCoupledJD:  req.ExperienceCoupledJD,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return "", fmt.Errorf("op=scan.Enqueue: create scan: %w", err)
	}

	if _, err := s.Queue.EnqueueScan(ctx, domain.ScanTaskPayload{ScanID: scanID}); err != nil {
		msg := "enqueue failed"
		_ = s.Scans.UpdateStatus(ctx, scanID, domain.ScanFailed, &msg)
		return "", fmt.Errorf("op=scan.Enqueue: publish task: %w", err)
	}
	return scanID, nil
}
