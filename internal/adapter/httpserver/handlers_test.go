package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capigiba/ADS/internal/adapter/httpserver"
	"github.com/capigiba/ADS/internal/config"
	"github.com/capigiba/ADS/internal/domain"
	"github.com/capigiba/ADS/internal/usecase"
)

type resumeRepoStub struct {
	created []domain.Resume
	manyErr error
}

func (r *resumeRepoStub) Create(_ domain.Context, res domain.Resume) (string, error) {
	r.created = append(r.created, res)
	return fmt.Sprintf("resume-%d", len(r.created)), nil
}

func (r *resumeRepoStub) Get(_ domain.Context, id string) (domain.Resume, error) {
	return domain.Resume{ID: id}, nil
}

func (r *resumeRepoStub) GetMany(_ domain.Context, ids []string) ([]domain.Resume, error) {
	if r.manyErr != nil {
		return nil, r.manyErr
	}
	out := make([]domain.Resume, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Resume{ID: id})
	}
	return out, nil
}

type skillRepoStub struct {
	entries []domain.SkillEntry
}

func (s *skillRepoStub) Upsert(_ domain.Context, e domain.SkillEntry) (string, error) {
	s.entries = append(s.entries, e)
	return "skill-1", nil
}

func (s *skillRepoStub) ListActive(_ domain.Context) ([]domain.SkillEntry, error) {
	return s.entries, nil
}

func (s *skillRepoStub) Library(_ domain.Context) (domain.SkillLibrary, error) {
	return domain.SkillLibrary{}, nil
}

type scanRepoStub struct {
	scan    domain.Scan
	getErr  error
	results []domain.ScanResult
}

func (s *scanRepoStub) Create(_ domain.Context, scan domain.Scan) (string, error) {
	return "scan-1", nil
}

func (s *scanRepoStub) Get(_ domain.Context, _ string) (domain.Scan, error) {
	if s.getErr != nil {
		return domain.Scan{}, s.getErr
	}
	return s.scan, nil
}

func (s *scanRepoStub) UpdateStatus(_ domain.Context, _ string, _ domain.ScanStatus, _ *string) error {
	return nil
}

func (s *scanRepoStub) SaveResults(_ domain.Context, _ string, _ []domain.ScanResult) error {
	return nil
}

func (s *scanRepoStub) ResultsByScanID(_ domain.Context, _ string) ([]domain.ScanResult, error) {
	return s.results, nil
}

type queueStub struct{ err error }

func (q queueStub) EnqueueScan(_ domain.Context, p domain.ScanTaskPayload) (string, error) {
	return p.ScanID, q.err
}

type extractorStub struct{ text string }

func (x extractorStub) ExtractPath(_ domain.Context, _, _ string) (string, error) {
	return x.text, nil
}

func newTestServer(resumes *resumeRepoStub, skills *skillRepoStub, scans *scanRepoStub, queue domain.Queue) *httpserver.Server {
	cfg := config.Config{MaxUploadMB: 1}
	return httpserver.NewServer(cfg,
		usecase.NewUploadService(resumes, extractorStub{text: "Backend Engineer with Go experience."}, cfg.MaxUploadMB*1024*1024),
		usecase.NewSkillService(skills),
		usecase.NewScanService(scans, resumes, queue),
		usecase.NewResultService(scans),
		nil, nil, nil)
}

func newRouter(s *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/resumes", s.UploadResumeHandler())
	r.Post("/v1/skills", s.SkillsUpsertHandler())
	r.Get("/v1/skills", s.SkillsListHandler())
	r.Post("/v1/scans", s.ScanCreateHandler())
	r.Get("/v1/scans/{id}", s.ScanResultHandler())
	r.Get("/readyz", s.ReadyzHandler())
	return r
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadResume_Success(t *testing.T) {
	t.Parallel()
	resumes := &resumeRepoStub{}
	h := newRouter(newTestServer(resumes, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	body, ct := multipartBody(t, "file", "resume.txt", []byte("Backend Engineer with Go experience."))
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "resume-1", resp["id"])
	require.Len(t, resumes.created, 1)
}

func TestUploadResume_BadExtension(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	body, ct := multipartBody(t, "file", "resume.exe", []byte("binary"))
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadResume_NotMultipart(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkillsUpsert_Success(t *testing.T) {
	t.Parallel()
	skills := &skillRepoStub{}
	h := newRouter(newTestServer(&resumeRepoStub{}, skills, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/skills",
		strings.NewReader(`{"job_title":"Backend Engineer","skills":["Go","PostgreSQL"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, skills.entries, 1)
	assert.Equal(t, "backend engineer", skills.entries[0].JobTitle)
	assert.True(t, skills.entries[0].Active)
}

func TestSkillsUpsert_ValidationFailure(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/skills", strings.NewReader(`{"job_title":"x"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "skills")
}

func TestSkillsList(t *testing.T) {
	t.Parallel()
	skills := &skillRepoStub{entries: []domain.SkillEntry{{ID: "s1", JobTitle: "backend engineer", Skills: []string{"go"}}}}
	h := newRouter(newTestServer(&resumeRepoStub{}, skills, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/skills", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend engineer")
}

func TestScanCreate_Accepted(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scans",
		strings.NewReader(`{"job_description":"Job Title: Backend Engineer","resume_ids":["r1","r2"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scan-1", resp["id"])
	assert.Equal(t, "queued", resp["status"])
}

func TestScanCreate_ValidationFailure(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(`{"job_description":"jd"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanCreate_MissingResume(t *testing.T) {
	t.Parallel()
	resumes := &resumeRepoStub{manyErr: fmt.Errorf("resume r9: %w", domain.ErrNotFound)}
	h := newRouter(newTestServer(resumes, &skillRepoStub{}, &scanRepoStub{}, queueStub{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/scans",
		strings.NewReader(`{"job_description":"jd","resume_ids":["r9"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanResult_Completed(t *testing.T) {
	t.Parallel()
	gpa := 3.5
	scans := &scanRepoStub{
		scan: domain.Scan{ID: "scan-1", Status: domain.ScanCompleted},
		results: []domain.ScanResult{{
			ResumeID:      "r1",
			Filename:      "alice.pdf",
			Score:         91.2,
			MatchedSkills: []string{"go"},
			GPA:           &gpa,
		}},
	}
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, scans, queueStub{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/scans/scan-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status  string `json:"status"`
		Results []struct {
			ResumeID string   `json:"resume_id"`
			Score    float64  `json:"score"`
			GPA      *float64 `json:"gpa"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "r1", resp.Results[0].ResumeID)
	assert.InDelta(t, 91.2, resp.Results[0].Score, 1e-9)
	require.NotNil(t, resp.Results[0].GPA)
}

func TestScanResult_ETagNotModified(t *testing.T) {
	t.Parallel()
	scans := &scanRepoStub{
		scan:    domain.Scan{ID: "scan-1", Status: domain.ScanCompleted},
		results: []domain.ScanResult{{ResumeID: "r1", Score: 80}},
	}
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, scans, queueStub{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/scans/scan-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req = httptest.NewRequest(http.MethodGet, "/v1/scans/scan-1", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestScanResult_QueuedHasNoResults(t *testing.T) {
	t.Parallel()
	scans := &scanRepoStub{scan: domain.Scan{ID: "scan-1", Status: domain.ScanQueued, CreatedAt: time.Now().UTC()}}
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, scans, queueStub{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/scans/scan-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "results")
}

func TestScanResult_NotFound(t *testing.T) {
	t.Parallel()
	scans := &scanRepoStub{getErr: domain.ErrNotFound}
	h := newRouter(newTestServer(&resumeRepoStub{}, &skillRepoStub{}, scans, queueStub{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/scans/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyz_ChecksFail(t *testing.T) {
	t.Parallel()
	srv := newTestServer(&resumeRepoStub{}, &skillRepoStub{}, &scanRepoStub{}, queueStub{})
	srv.DBCheck = func(context.Context) error { return nil }
	srv.RedisCheck = func(context.Context) error { return fmt.Errorf("connection refused") }
	h := newRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
