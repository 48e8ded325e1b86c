package usecase_test

import (
	"fmt"

	"github.com/capigiba/ADS/internal/domain"
)

type stubResumeRepo struct {
	created []domain.Resume
	getErr  error
	manyErr error
	idSeq   int
}

func (r *stubResumeRepo) Create(_ domain.Context, res domain.Resume) (string, error) {
	if r.getErr != nil {
		return "", r.getErr
	}
	r.created = append(r.created, res)
	r.idSeq++
	return fmt.Sprintf("resume-%d", r.idSeq), nil
}

func (r *stubResumeRepo) Get(_ domain.Context, id string) (domain.Resume, error) {
	if r.getErr != nil {
		return domain.Resume{}, r.getErr
	}
	return domain.Resume{ID: id}, nil
}

func (r *stubResumeRepo) GetMany(_ domain.Context, ids []string) ([]domain.Resume, error) {
	if r.manyErr != nil {
		return nil, r.manyErr
	}
	out := make([]domain.Resume, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Resume{ID: id})
	}
	return out, nil
}

type stubSkillRepo struct {
	upserted []domain.SkillEntry
	entries  []domain.SkillEntry
	err      error
}

func (s *stubSkillRepo) Upsert(_ domain.Context, e domain.SkillEntry) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.upserted = append(s.upserted, e)
	return "skill-1", nil
}

func (s *stubSkillRepo) ListActive(_ domain.Context) ([]domain.SkillEntry, error) {
	return s.entries, s.err
}

func (s *stubSkillRepo) Library(_ domain.Context) (domain.SkillLibrary, error) {
	if s.err != nil {
		return nil, s.err
	}
	lib := domain.SkillLibrary{}
	for _, e := range s.entries {
		lib[e.JobTitle] = e.Skills
	}
	return lib, nil
}

type stubScanRepo struct {
	scan      domain.Scan
	results   []domain.ScanResult
	created   []domain.Scan
	statuses  []domain.ScanStatus
	errMsgs   []*string
	getErr    error
	createErr error
	resultErr error
}

func (s *stubScanRepo) Create(_ domain.Context, scan domain.Scan) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, scan)
	return "scan-1", nil
}

func (s *stubScanRepo) Get(_ domain.Context, _ string) (domain.Scan, error) {
	if s.getErr != nil {
		return domain.Scan{}, s.getErr
	}
	return s.scan, nil
}

func (s *stubScanRepo) UpdateStatus(_ domain.Context, _ string, status domain.ScanStatus, errMsg *string) error {
	s.statuses = append(s.statuses, status)
	s.errMsgs = append(s.errMsgs, errMsg)
	return nil
}

func (s *stubScanRepo) SaveResults(_ domain.Context, _ string, _ []domain.ScanResult) error {
	return nil
}

func (s *stubScanRepo) ResultsByScanID(_ domain.Context, _ string) ([]domain.ScanResult, error) {
	return s.results, s.resultErr
}

type stubQueue struct {
	payloads []domain.ScanTaskPayload
	err      error
}

func (q *stubQueue) EnqueueScan(_ domain.Context, p domain.ScanTaskPayload) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, p)
	return p.ScanID, nil
}

type stubExtractor struct {
	text string
	err  error
}

func (x stubExtractor) ExtractPath(_ domain.Context, _, _ string) (string, error) {
	return x.text, x.err
}
