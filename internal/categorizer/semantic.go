package categorizer

import (
	"math"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/sirupsen/logrus"
)

// Embedder maps a piece of text to a fixed-length vector. Implementations
// must be deterministic: identical input always yields an identical vector,
// with no network calls, so that categorization stays a pure function.
type Embedder interface {
	Embed(text string) ([]float64, error)
}

// SemanticStrategy categorizes by cosine similarity between the description
// embedding and per-rule exemplar embeddings. Each rule's exemplar vectors
// are averaged into a single centroid at construction, and a rule only
// matches when the description scores at or above the threshold against its
// centroid.
type SemanticStrategy struct {
	embedder  Embedder
	threshold float64
	labels    []string
	centroids map[string][]float64
	log       *logrus.Logger
}

// NewSemanticStrategy precomputes exemplar centroids for every rule that has
// exemplar phrases. Rules without exemplars never match semantically.
func NewSemanticStrategy(embedder Embedder, ruleList []models.CategoryRule, threshold float64, logger *logrus.Logger) *SemanticStrategy {
	s := &SemanticStrategy{
		embedder:  embedder,
		threshold: threshold,
		centroids: make(map[string][]float64),
		log:       logger,
	}

	if embedder == nil {
		return s
	}

	for _, rule := range ruleList {
		if len(rule.Exemplars) == 0 {
			continue
		}

		vectors := make([][]float64, 0, len(rule.Exemplars))
		for _, exemplar := range rule.Exemplars {
			vec, err := embedder.Embed(normalizeDescription(exemplar))
			if err != nil {
				logger.WithError(err).WithField("category", rule.Name).
					Warn("Failed to embed exemplar phrase")
				continue
			}
			vectors = append(vectors, vec)
		}
		if len(vectors) == 0 {
			continue
		}

		s.labels = append(s.labels, rule.Name)
		s.centroids[rule.Name] = averageVectors(vectors)
	}

	logger.WithField("count", len(s.centroids)).Debug("Semantic centroids computed")
	return s
}

// Name returns the name of this strategy.
func (s *SemanticStrategy) Name() string {
	return "Semantic"
}

// Categorize embeds the description and picks the label with the highest
// centroid similarity. Ties keep the higher-priority rule because labels are
// walked in rule order and only a strictly better score replaces the best.
func (s *SemanticStrategy) Categorize(description string) (models.Category, bool) {
	if s.embedder == nil || len(s.centroids) == 0 {
		return models.Category{}, false
	}

	normalized := normalizeDescription(description)
	if normalized == "" {
		return models.Category{}, false
	}

	descVec, err := s.embedder.Embed(normalized)
	if err != nil {
		s.log.WithError(err).Warn("Failed to embed description")
		return models.Category{}, false
	}

	var bestLabel string
	bestScore := math.Inf(-1)
	for _, label := range s.labels {
		score := cosineSimilarity(descVec, s.centroids[label])
		if score > bestScore {
			bestScore = score
			bestLabel = label
		}
	}

	if bestScore < s.threshold {
		return models.Category{}, false
	}

	s.log.WithFields(logrus.Fields{
		"strategy": s.Name(),
		"category": bestLabel,
		"score":    bestScore,
	}).Debug("Transaction categorized by semantic similarity")
	return models.Category{Name: bestLabel}, true
}

// averageVectors returns the element-wise mean of the given vectors.
// All vectors are assumed to share the embedder's dimension.
func averageVectors(vectors [][]float64) []float64 {
	avg := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i := range avg {
			avg[i] += vec[i]
		}
	}
	n := float64(len(vectors))
	for i := range avg {
		avg[i] /= n
	}
	return avg
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
