package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/capigiba/ADS/internal/domain"
)

// staleScanTimeout is how long a scan may sit queued or processing before a
// read marks it failed. Long enough for a full batch against a slow embeddings
// provider.
const staleScanTimeout = 10 * time.Minute

// ResultService provides read access to scans and their per-resume results.
type ResultService struct {
	Scans domain.ScanRepository
}

// NewResultService constructs a ResultService with the given repository.
func NewResultService(s domain.ScanRepository) ResultService {
	return ResultService{Scans: s}
}

// Fetch returns the scan and, when completed, its results ordered by score
// descending. Reads double as a stale-job sweep: a scan stuck in a
// non-terminal state past the timeout is marked failed so clients never poll
// forever.
func (s ResultService) Fetch(ctx domain.Context, id string) (domain.Scan, []domain.ScanResult, error) {
	if id == "" {
		return domain.Scan{}, nil, fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	scan, err := s.Scans.Get(ctx, id)
	if err != nil {
		return domain.Scan{}, nil, fmt.Errorf("op=result.Fetch: %w", err)
	}

	if scan.Status == domain.ScanQueued || scan.Status == domain.ScanProcessing {
		now := time.Now().UTC()
		anchor := scan.CreatedAt
		if scan.Status == domain.ScanProcessing {
			anchor = scan.UpdatedAt
		}
		if now.Sub(anchor) > staleScanTimeout {
			slog.Warn("marking stale scan failed",
				slog.String("scan_id", id),
				slog.String("status", string(scan.Status)),
				slog.Duration("age", now.Sub(anchor)))
			msg := fmt.Sprintf("timeout: scan exceeded %s", staleScanTimeout)
			_ = s.Scans.UpdateStatus(ctx, id, domain.ScanFailed, &msg)
			scan.Status = domain.ScanFailed
			scan.Error = msg
		}
	}

	if scan.Status != domain.ScanCompleted {
		return scan, nil, nil
	}
	results, err := s.Scans.ResultsByScanID(ctx, id)
	if err != nil {
		return domain.Scan{}, nil, fmt.Errorf("op=result.Fetch: load results: %w", err)
	}
	return scan, results, nil
}
