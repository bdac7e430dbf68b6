// Package rules provides loading of the category rule file.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store loads category rules from a YAML file. The file has two groups,
// expenses and income, each an ordered list of rules. Rules are loaded once
// per run and treated as read-only afterwards.
type Store struct {
	RulesFile string

	log *logrus.Logger
}

// NewStore creates a rule store reading from rulesFile.
func NewStore(rulesFile string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		RulesFile: rulesFile,
		log:       logger,
	}
}

// FindRulesFile looks for the rules file in standard locations: the given
// path as-is, a ./config directory, and the user config directory.
func (s *Store) FindRulesFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "revolut-notion", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// Load reads the rule set from disk. A missing file yields an empty rule set
// rather than an error, so a fresh install falls back to semantic-only
// categorization gracefully.
func (s *Store) Load() (models.RuleSet, error) {
	filename := s.RulesFile
	if filename == "" {
		filename = "categories.yaml"
	}

	filePath, err := s.FindRulesFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warnf("Rules file not found: %s", filename)
			return models.RuleSet{}, nil
		}
		return models.RuleSet{}, fmt.Errorf("error resolving rules file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.RuleSet{}, fmt.Errorf("error reading rules file: %w", err)
	}

	var set models.RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return models.RuleSet{}, fmt.Errorf("error parsing rules file: %w", err)
	}

	s.warnDuplicateKeywords(set.Expenses, "expenses")
	s.warnDuplicateKeywords(set.Income, "income")

	s.log.Debugf("Loaded %d expense and %d income rules from %s",
		len(set.Expenses), len(set.Income), filePath)
	return set, nil
}

// warnDuplicateKeywords flags keywords claimed by more than one rule.
// Priority order resolves the ambiguity at match time; the warning exists so
// the rule file can be cleaned up.
func (s *Store) warnDuplicateKeywords(group []models.CategoryRule, groupName string) {
	claimed := make(map[string]string)
	for _, rule := range group {
		for _, keyword := range rule.Keywords {
			k := strings.ToLower(keyword)
			if prev, ok := claimed[k]; ok && prev != rule.Name {
				s.log.Warnf("Keyword %q claimed by both %q and %q in %s rules; %q wins by priority",
					keyword, prev, rule.Name, groupName, prev)
				continue
			}
			claimed[k] = rule.Name
		}
	}
}
