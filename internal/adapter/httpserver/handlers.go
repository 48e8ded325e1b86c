package httpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/capigiba/ADS/internal/config"
	"github.com/capigiba/ADS/internal/domain"
	"github.com/capigiba/ADS/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Uploads    usecase.UploadService
	Skills     usecase.SkillService
	Scans      usecase.ScanService
	Results    usecase.ResultService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	TikaCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, uploads usecase.UploadService, skills usecase.SkillService, scans usecase.ScanService, results usecase.ResultService, dbCheck, redisCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Uploads: uploads, Skills: skills, Scans: scans, Results: results, DBCheck: dbCheck, RedisCheck: redisCheck, TikaCheck: tikaCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces an allowlist for uploads: .txt, .pdf, .docx.
func allowedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}

func acceptsJSON(r *http.Request) bool {
	a := r.Header.Get("Accept")
	return a == "" || a == "*/*" || strings.Contains(a, "application/json")
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// UploadResumeHandler accepts one resume file as multipart field "file",
// spools it to disk, and hands it to the upload service.
func (s *Server) UploadResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "only application/json responses supported"}})
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file required", domain.ErrInvalidArgument), map[string]string{"field": "file"})
			return
		}
		defer func() { _ = file.Close() }()

		if !allowedExt(header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "unsupported file extension",
				Details: map[string]any{"filename": header.Filename},
			}})
			return
		}

		tmp, err := os.CreateTemp("", "resume-*"+filepath.Ext(header.Filename))
		if err != nil {
			writeError(w, r, fmt.Errorf("spool upload: %w", err), nil)
			return
		}
		defer func() { _ = os.Remove(tmp.Name()); _ = tmp.Close() }()
		size, err := io.Copy(tmp, file)
		if err != nil {
			writeError(w, r, fmt.Errorf("spool upload: %w", err), nil)
			return
		}

		id, err := s.Uploads.Ingest(r.Context(), header.Filename, tmp.Name(), size)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	}
}

// SkillsUpsertHandler creates or replaces one skill library entry.
func (s *Server) SkillsUpsertHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			JobTitle string   `json:"job_title" validate:"required,max=200"`
			Skills   []string `json:"skills" validate:"required,min=1,max=100"`
			Active   *bool    `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}
		id, err := s.Skills.Upsert(r.Context(), req.JobTitle, req.Skills, active)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	}
}

// SkillsListHandler returns the active skill library entries.
func (s *Server) SkillsListHandler() http.HandlerFunc {
	type entry struct {
		ID       string   `json:"id"`
		JobTitle string   `json:"job_title"`
		Skills   []string `json:"skills"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.Skills.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]entry, 0, len(entries))
		for _, e := range entries {
			out = append(out, entry{ID: e.ID, JobTitle: e.JobTitle, Skills: e.Skills})
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": out})
	}
}

// ScanCreateHandler queues a new scan and returns 202 with its id.
func (s *Server) ScanCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "only application/json responses supported"}})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			JobDescription       string   `json:"job_description" validate:"required,max=20000"`
			JobTitle             string   `json:"job_title" validate:"max=200"`
			ResumeIDs            []string `json:"resume_ids" validate:"required,min=1,max=100,dive,required"`
			UserSkillWeight      *float64 `json:"user_skill_weight" validate:"omitempty,gte=0,lte=1"`
			UserExperienceWeight *float64 `json:"user_experience_weight" validate:"omitempty,gte=0,lte=1"`
			ExperienceCoupledJD  *bool    `json:"experience_coupled_jd"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		id, err := s.Scans.Enqueue(r.Context(), usecase.ScanRequest{
			JobDescription:       req.JobDescription,
			JobTitle:             req.JobTitle,
			ResumeIDs:            req.ResumeIDs,
			UserSkillWeight:      req.UserSkillWeight,
			UserExperienceWeight: req.UserExperienceWeight,
			ExperienceCoupledJD:  req.ExperienceCoupledJD,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.ScanQueued)})
	}
}

// ScanResultHandler returns scan status and, once completed, the ranked
// results.
func (s *Server) ScanResultHandler() http.HandlerFunc {
	type resultBody struct {
		ResumeID      string   `json:"resume_id"`
		Filename      string   `json:"filename"`
		Score         float64  `json:"score"`
		JDSimilarity  float64  `json:"jd_similarity"`
		MatchedSkills []string `json:"matched_skills"`
		TargetSkills  []string `json:"target_skills"`
		TotalMonths   int      `json:"total_months"`
		WordCount     int      `json:"word_count"`
		GPA           *float64 `json:"gpa,omitempty"`
		Error         string   `json:"error,omitempty"`

		Breakdown domain.ScoreBreakdown `json:"breakdown"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		scan, results, err := s.Results.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		body := map[string]any{"id": scan.ID, "status": string(scan.Status)}
		if scan.Status == domain.ScanFailed {
			body["error"] = map[string]any{"code": "INTERNAL", "message": scan.Error}
		}
		if scan.Status == domain.ScanCompleted {
			out := make([]resultBody, 0, len(results))
			for _, res := range results {
				out = append(out, resultBody{
					ResumeID:      res.ResumeID,
					Filename:      res.Filename,
					Score:         res.Score,
					JDSimilarity:  res.JDSimilarity,
					MatchedSkills: res.MatchedSkills,
					TargetSkills:  res.TargetSkills,
					TotalMonths:   res.TotalMonths,
					WordCount:     res.WordCount,
					GPA:           res.GPA,
					Error:         res.Error,
					Breakdown:     res.Breakdown,
				})
			}
			body["results"] = out
		}
		etag := makeETag(body)
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// makeETag derives a strong ETag from the canonical JSON of the response.
func makeETag(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ReadyzHandler probes the DB, Redis, and Tika dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
			{"tika", s.TikaCheck},
		}
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			c := check{Name: p.name, OK: true}
			if err := p.fn(ctx); err != nil {
				c.OK = false
				c.Details = err.Error()
				ok = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
