package categorizer

import (
	"strings"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/sirupsen/logrus"
)

// KeywordStrategy categorizes by case-insensitive substring matching against
// the keywords of each rule. Rules are evaluated in priority order and the
// first matching rule wins; later rules are not consulted.
type KeywordStrategy struct {
	rules []models.CategoryRule
	log   *logrus.Logger
}

// NewKeywordStrategy creates a keyword strategy over the given rules.
// Keywords are normalized once at construction time.
func NewKeywordStrategy(ruleList []models.CategoryRule, logger *logrus.Logger) *KeywordStrategy {
	normalized := make([]models.CategoryRule, len(ruleList))
	for i, rule := range ruleList {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			keywords = append(keywords, normalizeDescription(keyword))
		}
		normalized[i] = models.CategoryRule{
			Name:      rule.Name,
			Keywords:  keywords,
			Exemplars: rule.Exemplars,
		}
	}
	return &KeywordStrategy{rules: normalized, log: logger}
}

// Name returns the name of this strategy.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Categorize matches the normalized description against rule keywords.
func (s *KeywordStrategy) Categorize(description string) (models.Category, bool) {
	normalized := normalizeDescription(description)
	if normalized == "" {
		return models.Category{}, false
	}

	for _, rule := range s.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				s.log.WithFields(logrus.Fields{
					"strategy": s.Name(),
					"keyword":  keyword,
					"category": rule.Name,
				}).Debug("Transaction categorized by keyword match")
				return models.Category{Name: rule.Name}, true
			}
		}
	}

	return models.Category{}, false
}
