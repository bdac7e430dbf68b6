package categorizer

import (
	"testing"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/stretchr/testify/assert"
)

type mockEmbedder struct {
	fn func(text string) ([]float64, error)
}

func (m *mockEmbedder) Embed(text string) ([]float64, error) {
	return m.fn(text)
}

func TestSemanticStrategy_Name(t *testing.T) {
	strategy := &SemanticStrategy{}
	assert.Equal(t, "Semantic", strategy.Name())
}

func TestSemanticStrategy_Categorize(t *testing.T) {
	// Fixed embeddings keyed by normalized text.
	// Food centroid ends up at (1, 0, 0), Transport at (0, 1, 0).
	embeddings := map[string][]float64{
		"dinner at a restaurant": {1.0, 0.0, 0.0},
		"food delivery order":    {1.0, 0.0, 0.0},
		"train ticket":           {0.0, 1.0, 0.0},
		"mcdonalds burger":       {0.9, 0.1, 0.0},
		"sbb ticket":             {0.1, 0.9, 0.0},
		"unknown stuff":          {0.0, 0.0, 1.0},
	}
	embedder := &mockEmbedder{fn: func(text string) ([]float64, error) {
		if vec, ok := embeddings[text]; ok {
			return vec, nil
		}
		return []float64{0, 0, 0}, nil
	}}

	ruleList := []models.CategoryRule{
		{Name: "Food", Keywords: []string{"restaurant"}, Exemplars: []string{"dinner at a restaurant", "food delivery order"}},
		{Name: "Transport", Keywords: []string{"train"}, Exemplars: []string{"train ticket"}},
		{Name: "NoExemplars", Keywords: []string{"whatever"}},
	}

	strategy := NewSemanticStrategy(embedder, ruleList, 0.2, testLogger())
	assert.Len(t, strategy.centroids, 2, "rules without exemplars have no centroid")

	tests := []struct {
		name          string
		description   string
		expectedCat   string
		expectedFound bool
	}{
		{"close to food", "McDonalds Burger", "Food", true},
		{"close to transport", "SBB Ticket", "Transport", true},
		{"below threshold", "Unknown Stuff", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, found := strategy.Categorize(tt.description)
			assert.Equal(t, tt.expectedFound, found)
			if tt.expectedFound {
				assert.Equal(t, tt.expectedCat, cat.Name)
			}
		})
	}
}

func TestSemanticStrategy_NilEmbedder(t *testing.T) {
	strategy := NewSemanticStrategy(nil, expenseRules(), 0.2, testLogger())
	_, found := strategy.Categorize("anything at all")
	assert.False(t, found)
}

func TestSemanticStrategy_ThresholdIsConfigurable(t *testing.T) {
	embedder := &mockEmbedder{fn: func(text string) ([]float64, error) {
		if text == "exemplar" {
			return []float64{1, 0}, nil
		}
		return []float64{0.5, 0.866}, nil // cosine 0.5 against the exemplar
	}}
	ruleList := []models.CategoryRule{
		{Name: "Borderline", Exemplars: []string{"exemplar"}},
	}

	strict := NewSemanticStrategy(embedder, ruleList, 0.9, testLogger())
	_, found := strict.Categorize("candidate")
	assert.False(t, found)

	lenient := NewSemanticStrategy(embedder, ruleList, 0.4, testLogger())
	cat, found := lenient.Categorize("candidate")
	assert.True(t, found)
	assert.Equal(t, "Borderline", cat.Name)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0.0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, cosineSimilarity(tt.a, tt.b), 0.001)
		})
	}
}

func TestAverageVectors(t *testing.T) {
	avg := averageVectors([][]float64{{1, 0, 0}, {0.8, 0.2, 0}})
	assert.InDelta(t, 0.9, avg[0], 0.001)
	assert.InDelta(t, 0.1, avg[1], 0.001)
	assert.InDelta(t, 0.0, avg[2], 0.001)
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(32)

	a, err := e.Embed("uber eats london")
	assert.NoError(t, err)
	b, err := e.Embed("uber eats london")
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	// Shared tokens pull vectors together
	c, _ := e.Embed("uber eats paris")
	d, _ := e.Embed("totally different words")
	assert.Greater(t, cosineSimilarity(a, c), cosineSimilarity(a, d))
}
