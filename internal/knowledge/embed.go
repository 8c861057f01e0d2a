package knowledge

import (
	"context"
	"hash/fnv"
	"math"

	chromem "github.com/philippgille/chromem-go"
)

// HashEmbedding returns a deterministic embedding function seeded from an
// FNV hash of the text. It carries no semantics beyond "same text, same
// vector" and exists so local runs and tests need no embedding model.
func HashEmbedding(dimensions int) chromem.EmbeddingFunc {
	if dimensions <= 0 {
		dimensions = 384
	}
	return func(_ context.Context, text string) ([]float32, error) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum64()

		embedding := make([]float32, dimensions)
		var norm float64
		for i := 0; i < dimensions; i++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			v := float64(int64(seed)) / float64(math.MaxInt64)
			embedding[i] = float32(v)
			norm += v * v
		}
		// chromem expects unit-normalized vectors for cosine similarity.
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := range embedding {
				embedding[i] = float32(float64(embedding[i]) / norm)
			}
		}
		return embedding, nil
	}
}
