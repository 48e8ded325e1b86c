// Package tika provides Apache Tika integration for text extraction.
//
// It extracts text content from resume uploads in various document formats
// including PDF, Word, and plain text. Line structure is preserved because
// downstream extraction treats lines as meaningful units.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/capigiba/ADS/pkg/textx"
)

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
	}
}

// ExtractPath uploads the file at path to the Tika server and returns plain
// text with line breaks preserved. Transient server errors are retried with
// exponential backoff; client errors are not.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	openPath, err := constrainPath(path)
	if err != nil {
		return "", err
	}
	// Read file contents to avoid gosec G304 concerns around os.Open with variable paths.
	bfile, err := os.ReadFile(openPath)
	if err != nil {
		return "", err
	}

	var result string
	op := func() error {
		u := c.baseURL
		if u == "" {
			u = "http://localhost:9998"
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u+"/tika", bytes.NewReader(bfile))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "text/plain")
		// Content-Type best-effort from extension
		ct := contentTypeFromExt(filepath.Ext(fileName))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("tika status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("tika status %d", resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		result = normalizeLines(string(b))
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	return result, nil
}

// constrainPath restricts reads to the temp dir or working directory.
// Uploaded files land in the system temp dir; anything else is a bug or an
// injection attempt. TIKA_ALLOW_ABSPATHS=1 lifts the restriction for tests.
func constrainPath(path string) (string, error) {
	if os.Getenv("TIKA_ALLOW_ABSPATHS") == "1" {
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.Clean(abs), nil
		}
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	wd, _ := os.Getwd()
	for _, base := range []string{filepath.Clean(os.TempDir()), filepath.Clean(wd)} {
		if abs == base || strings.HasPrefix(abs, base+string(os.PathSeparator)) {
			rel, err := filepath.Rel(base, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(base, rel), nil
		}
	}
	return "", fmt.Errorf("disallowed path: %s", abs)
}

// normalizeLines sanitizes control characters, collapses intra-line
// whitespace, and drops blank lines while keeping line boundaries.
func normalizeLines(s string) string {
	sanitized := textx.SanitizeText(s)
	var lines []string
	for _, line := range strings.Split(sanitized, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func contentTypeFromExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		if ext != "" {
			return mime.TypeByExtension(ext)
		}
	}
	return ""
}
