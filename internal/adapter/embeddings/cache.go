package embeddings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/capigiba/ADS/internal/adapter/observability"
	"github.com/capigiba/ADS/internal/domain"
)

// cacheClient wraps an EmbeddingClient and caches vectors in Redis keyed by
// model and text hash. Cache failures degrade to the base client; a broken
// Redis never fails a scan.
type cacheClient struct {
	base  domain.EmbeddingClient
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

// NewCache wraps base with a Redis embedding cache. A nil rdb or non-positive
// ttl returns base unmodified.
func NewCache(base domain.EmbeddingClient, rdb *redis.Client, model string, ttl time.Duration) domain.EmbeddingClient {
	if rdb == nil || ttl <= 0 || base == nil {
		return base
	}
	return &cacheClient{base: base, rdb: rdb, model: model, ttl: ttl}
}

func (c *cacheClient) keyFor(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%s", c.model, hex.EncodeToString(sum[:]))
}

func (c *cacheClient) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	missIdx := make([]int, 0)
	missTexts := make([]string, 0)
	for i, t := range texts {
		v, ok := c.lookup(ctx, t)
		if ok {
			observability.EmbeddingCacheHitsTotal.WithLabelValues("hit").Inc()
			res[i] = v
			continue
		}
		observability.EmbeddingCacheHitsTotal.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missIdx) > 0 {
		vecs, err := c.base.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range missIdx {
			res[idx] = vecs[j]
			c.store(ctx, missTexts[j], vecs[j])
		}
	}
	return res, nil
}

func (c *cacheClient) lookup(ctx domain.Context, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, c.keyFor(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("embedding cache get failed", slog.Any("error", err))
		}
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("embedding cache entry corrupt", slog.Any("error", err))
		return nil, false
	}
	return v, true
}

func (c *cacheClient) store(ctx domain.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.keyFor(text), raw, c.ttl).Err(); err != nil {
		slog.Warn("embedding cache set failed", slog.Any("error", err))
	}
}
