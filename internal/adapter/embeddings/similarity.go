package embeddings

import (
	"fmt"
	"math"

	"github.com/capigiba/ADS/internal/domain"
)

// CosineSimilarity returns the cosine of the angle between two vectors,
// clamped to [0,1] so it can feed the relevance ramp directly. Mismatched or
// zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}

// Similarity adapts an EmbeddingClient into a pairwise text similarity
// function. Both texts go out in a single embedding call.
func Similarity(client domain.EmbeddingClient) func(ctx domain.Context, a, b string) (float64, error) {
	return func(ctx domain.Context, a, b string) (float64, error) {
		vecs, err := client.Embed(ctx, []string{a, b})
		if err != nil {
			return 0, fmt.Errorf("op=embeddings.similarity: %w", err)
		}
		if len(vecs) != 2 {
			return 0, fmt.Errorf("op=embeddings.similarity: expected 2 vectors, got %d", len(vecs))
		}
		return CosineSimilarity(vecs[0], vecs[1]), nil
	}
}
