package categorizer

import (
	"github.com/riwaht/notion-revolut-server/internal/models"
)

// Strategy defines one method of assigning a category to a transaction
// description. Strategies are tried in order; the first one that reports a
// match wins.
type Strategy interface {
	// Categorize attempts to categorize the normalized description.
	// The second return reports whether the strategy produced a match.
	Categorize(description string) (models.Category, bool)

	// Name returns the name of this strategy for logging and debugging.
	Name() string
}
