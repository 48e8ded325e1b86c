// Package embeddings provides the OpenAI-compatible embedding client, a Redis
// vector cache, and the cosine similarity bridge used for relevance scoring.
package embeddings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/capigiba/ADS/internal/adapter/observability"
	"github.com/capigiba/ADS/internal/config"
	"github.com/capigiba/ADS/internal/domain"
)

// Client calls an OpenAI-compatible embeddings endpoint. A mutex serializes
// outbound calls: concurrent scan workers share one client and one provider
// quota, so requests queue here instead of racing into 429s.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *Counter
	mu      sync.Mutex
}

// NewClient constructs an embeddings client from config.
func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		counter: NewCounter(),
	}
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = c.cfg.BackoffMaxElapsedTime
	expo.InitialInterval = c.cfg.BackoffInitialInterval
	expo.MaxInterval = c.cfg.BackoffMaxInterval
	expo.Multiplier = c.cfg.BackoffMultiplier
	return expo
}

// Embed calls the embeddings endpoint and returns one vector per input text.
// Inputs beyond the configured token cap are truncated first. 429 and 5xx
// responses are retried with exponential backoff; other 4xx are not.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.EmbeddingsAPIKey == "" || c.cfg.EmbeddingsModel == "" {
		// Do not log secrets; only indicate presence
		slog.Error("embeddings api key or model missing",
			slog.Bool("has_api_key", c.cfg.EmbeddingsAPIKey != ""),
			slog.String("model", c.cfg.EmbeddingsModel))
		return nil, fmt.Errorf("%w: EMBEDDINGS_API_KEY or EMBEDDINGS_MODEL missing", domain.ErrInvalidArgument)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		truncated, err := c.counter.Truncate(t, c.cfg.EmbeddingsModel, c.cfg.EmbedMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("op=embeddings.truncate: %w", err)
		}
		input[i] = truncated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	body := map[string]any{
		"model": c.cfg.EmbeddingsModel,
		"input": input,
	}
	b, _ := json.Marshal(body)
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EmbeddingsBaseURL+"/embeddings", bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.EmbeddingsAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			observability.EmbeddingRequestsTotal.WithLabelValues("transport_error").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode == http.StatusTooManyRequests {
			observability.EmbeddingRequestsTotal.WithLabelValues("rate_limited").Inc()
			slog.Warn("embeddings provider rate limited",
				slog.Int("status", resp.StatusCode),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("%w: 429", domain.ErrUpstreamRateLimit)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			observability.EmbeddingRequestsTotal.WithLabelValues("client_error").Inc()
			slog.Warn("embeddings provider 4xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.EmbeddingsModel),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return backoff.Permanent(fmt.Errorf("embed status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			observability.EmbeddingRequestsTotal.WithLabelValues("server_error").Inc()
			slog.Error("embeddings provider non-2xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.EmbeddingsModel),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("embed status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			observability.EmbeddingRequestsTotal.WithLabelValues("decode_error").Inc()
			return err
		}
		observability.EmbeddingRequestsTotal.WithLabelValues("ok").Inc()
		return nil
	}

	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("embeddings call failed after retries", slog.Any("error", err))
		return nil, fmt.Errorf("op=embeddings.embed: %w", err)
	}

	if len(out.Data) != len(input) {
		return nil, fmt.Errorf("op=embeddings.embed: got %d vectors for %d inputs: %w", len(out.Data), len(input), errors.New("provider returned wrong count"))
	}

	res := make([][]float32, len(out.Data))
	for i := range out.Data {
		v := make([]float32, len(out.Data[i].Embedding))
		for j := range out.Data[i].Embedding {
			v[j] = float32(out.Data[i].Embedding[j])
		}
		res[i] = v
	}
	return res, nil
}
