package categorizer

import (
	"hash/fnv"
	"strings"
)

// DefaultEmbeddingDim is the vector length used by the local embedder.
const DefaultEmbeddingDim = 64

// LocalEmbedder is a deterministic bag-of-tokens embedder: each token is
// hashed into a bucket of a fixed-length vector, with the hash also deciding
// the sign of the contribution. It has none of the linguistic power of a
// sentence-transformer model, but it needs no model files and no network,
// and identical text always produces the identical vector.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder creates a local embedder with the given vector length.
// Non-positive dimensions fall back to DefaultEmbeddingDim.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &LocalEmbedder{dim: dim}
}

// Embed hashes every whitespace-separated token of text into the vector.
func (e *LocalEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, e.dim)
	for _, token := range strings.Fields(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dim))
		if (sum>>63)&1 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	return vec, nil
}
