package redpanda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/capigiba/ADS/internal/adapter/observability"
	"github.com/capigiba/ADS/internal/config"
	"github.com/capigiba/ADS/internal/domain"
	"github.com/capigiba/ADS/internal/scanner"
	"github.com/capigiba/ADS/pkg/textx"
)

// maxErrorLen caps error text persisted on scans and results.
const maxErrorLen = 500

// scanTimeout bounds a single scan job so a stuck upstream cannot wedge the
// consumer partition forever.
const scanTimeout = 5 * time.Minute

// ScanHandler processes one queued scan: it loads the scan and its resumes,
// runs the scoring pipeline, and persists results plus terminal status.
type ScanHandler struct {
	scans   domain.ScanRepository
	resumes domain.ResumeRepository
	skills  domain.SkillRepository
	engine  *scanner.Scanner
	cfg     config.Config
	log     *slog.Logger
}

// NewScanHandler wires the handler. A nil logger falls back to slog.Default.
func NewScanHandler(scans domain.ScanRepository, resumes domain.ResumeRepository, skills domain.SkillRepository, engine *scanner.Scanner, cfg config.Config, log *slog.Logger) *ScanHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ScanHandler{
		scans:   scans,
		resumes: resumes,
		skills:  skills,
		engine:  engine,
		cfg:     cfg,
		log:     log,
	}
}

// Handle runs the full scan lifecycle. Errors that occur after the scan was
// marked processing also mark the scan failed so callers never see a scan
// stuck in a non-terminal state.
func (h *ScanHandler) Handle(ctx context.Context, payload domain.ScanTaskPayload) error {
	tracer := otel.Tracer("queue.scan_handler")
	ctx, span := tracer.Start(ctx, "HandleScan")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	scan, err := h.scans.Get(ctx, payload.ScanID)
	if err != nil {
		return fmt.Errorf("op=scan_handler.Handle: load scan %s: %w", payload.ScanID, err)
	}
	if scan.Status == domain.ScanCompleted || scan.Status == domain.ScanFailed {
		h.log.Info("scan already in terminal state, skipping",
			slog.String("scan_id", scan.ID), slog.String("status", string(scan.Status)))
		return nil
	}

	if err := h.scans.UpdateStatus(ctx, scan.ID, domain.ScanProcessing, nil); err != nil {
		return fmt.Errorf("op=scan_handler.Handle: mark processing %s: %w", scan.ID, err)
	}
	observability.StartProcessingScan()

	if err := h.process(ctx, scan); err != nil {
		observability.FailScan()
		msg := textx.TruncateRunes(err.Error(), maxErrorLen)
		if uerr := h.scans.UpdateStatus(ctx, scan.ID, domain.ScanFailed, &msg); uerr != nil {
			h.log.Error("failed to mark scan failed",
				slog.String("scan_id", scan.ID), slog.Any("error", uerr))
		}
		return fmt.Errorf("op=scan_handler.Handle: scan %s: %w", scan.ID, err)
	}

	if err := h.scans.UpdateStatus(ctx, scan.ID, domain.ScanCompleted, nil); err != nil {
		observability.FailScan()
		return fmt.Errorf("op=scan_handler.Handle: mark completed %s: %w", scan.ID, err)
	}
	observability.CompleteScan()
	return nil
}

func (h *ScanHandler) process(ctx context.Context, scan domain.Scan) error {
	resumes, err := h.resumes.GetMany(ctx, scan.ResumeIDs)
	if err != nil {
		return fmt.Errorf("load resumes: %w", err)
	}
	library, err := h.skills.Library(ctx)
	if err != nil {
		return fmt.Errorf("load skill library: %w", err)
	}

	inputs := make([]scanner.ResumeInput, 0, len(resumes))
	for _, r := range resumes {
		inputs = append(inputs, scanner.ResumeInput{ID: r.ID, Filename: r.Filename, Text: r.Text})
	}
	observability.ObserveScanBatchSize(len(inputs))

	summary, results, err := h.engine.Scan(ctx, scanner.Request{
		RequirementText: scan.JobDescription,
		TitleOverride:   scan.JobTitle,
		Library:         library,
		Weights:         weightsFor(h.cfg.Scoring, scan),
		Resumes:         inputs,
	})
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}
	h.log.Info("scan scored",
		slog.String("scan_id", scan.ID),
		slog.String("job_title", summary.JobTitle),
		slog.String("matched_title", summary.MatchedTitle),
		slog.Int("resumes", len(results)))

	now := time.Now().UTC()
	out := make([]domain.ScanResult, 0, len(results))
	for _, res := range results {
		sr := domain.ScanResult{
			ScanID:        scan.ID,
			ResumeID:      res.ResumeID,
			Filename:      res.Filename,
			Score:         res.Score,
			JDSimilarity:  res.JDSimilarity,
			MatchedSkills: res.MatchedSkills,
			TargetSkills:  res.TargetSkills,
			TotalMonths:   res.TotalMonths,
			WordCount:     res.WordCount,
			GPA:           res.GPA,
			Breakdown:     res.Breakdown,
			CreatedAt:     now,
		}
		if res.Err != nil {
			sr.Error = textx.TruncateRunes(res.Err.Error(), maxErrorLen)
		} else {
			observability.ObserveScanResult(res.Score)
		}
		out = append(out, sr)
	}

	if err := h.scans.SaveResults(ctx, scan.ID, out); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// weightsFor merges the configured defaults with the per-scan overrides.
func weightsFor(s config.ScoringConfig, scan domain.Scan) scanner.Weights {
	w := scanner.Weights{
		UserSkill:      s.UserSkillWeight,
		UserExperience: s.UserExperienceWeight,

		TargetJDSimilarity: s.TargetJDSimilarity,
		TargetSkills:       s.TargetSkills,
		TargetMonthsBase:   s.TargetMonthsBase,
		TargetWordCount:    s.TargetWordCount,
		TargetGPA:          s.TargetGPA,

		JD:     s.WeightJD,
		Skill:  s.WeightSkill,
		Months: s.WeightMonths,
		Word:   s.WeightWord,
		GPA:    s.WeightGPA,

		ExperienceCoupledJD: s.ExperienceCoupledJD,
	}
	if scan.UserSkillWeight != nil {
		w.UserSkill = *scan.UserSkillWeight
	}
	if scan.UserExperienceWeight != nil {
		w.UserExperience = *scan.UserExperienceWeight
	}
	if scan.ExperienceCoupledJD != nil {
		w.ExperienceCoupledJD = *scan.ExperienceCoupledJD
	}
	return w
}
