package models

// CategoryUncategorized is the reserved label returned when no rule matches
// a transaction description with sufficient confidence.
const CategoryUncategorized = "Uncategorized"

// Category represents an assigned transaction category.
type Category struct {
	Name string
}

// CategoryRule maps a category label to the keywords that claim it and,
// optionally, exemplar phrases used by the semantic fallback. Rules are
// evaluated in slice order: when two rules claim the same keyword, the
// earlier rule wins.
type CategoryRule struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Exemplars []string `yaml:"exemplars,omitempty"`
}

// RuleSet holds the expense and income rule groups loaded from the rules
// file. The groups are read-only during a sync run.
type RuleSet struct {
	Expenses []CategoryRule `yaml:"expenses"`
	Income   []CategoryRule `yaml:"income"`
}
