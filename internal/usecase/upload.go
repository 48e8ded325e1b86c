package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/capigiba/ADS/internal/domain"
)

// allowedMIME lists the upload content types the extractor can handle.
var allowedMIME = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// UploadService ingests resume files: it validates size and content type,
// extracts plain text, and persists the resume via the repository.
type UploadService struct {
	Repo      domain.ResumeRepository
	Extractor domain.TextExtractor
	MaxBytes  int64
}

// NewUploadService constructs an UploadService.
func NewUploadService(r domain.ResumeRepository, x domain.TextExtractor, maxBytes int64) UploadService {
	return UploadService{Repo: r, Extractor: x, MaxBytes: maxBytes}
}

// Ingest extracts text from the file at path and stores it as a resume,
// returning the generated id. The file must already be spooled to local disk.
func (s UploadService) Ingest(ctx domain.Context, fileName, path string, size int64) (string, error) {
	if s.MaxBytes > 0 && size > s.MaxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidArgument, s.MaxBytes)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("op=upload.Ingest: detect content type: %w", err)
	}
	// text/plain shows up with charset parameters; compare the bare type.
	base := strings.Split(mime.String(), ";")[0]
	if !allowedMIME[base] {
		return "", fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidArgument, base)
	}

	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil {
		return "", fmt.Errorf("op=upload.Ingest: extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty extracted text", domain.ErrInvalidArgument)
	}

	id, err := s.Repo.Create(ctx, domain.Resume{
		Text:      text,
		Filename:  fileName,
		MIME:      base,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("op=upload.Ingest: store resume: %w", err)
	}
	return id, nil
}

// Get returns a stored resume by id.
func (s UploadService) Get(ctx domain.Context, id string) (domain.Resume, error) {
	if id == "" {
		return domain.Resume{}, fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	return s.Repo.Get(ctx, id)
}
