// Package rules provides a YAML-based rules engine for transaction categorization.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against transaction descriptions
type MatchType string

const (
	// MatchTypeExact requires the pattern to match the entire description exactly
	MatchTypeExact MatchType = "exact"
	// MatchTypeContains requires the pattern to be a substring of the description
	MatchTypeContains MatchType = "contains"
	// MatchTypePrefix requires the description to start with the pattern
	MatchTypePrefix MatchType = "prefix"
)

// Direction restricts a rule to deposits or withdrawals
type Direction string

const (
	DirectionAny        Direction = "any"
	DirectionDeposit    Direction = "deposit"
	DirectionWithdrawal Direction = "withdrawal"
)

// Priority bounds
const (
	MinPriority = 0
	MaxPriority = 999
)

// Rule represents a single categorization rule.
//
// Rules should be created via:
//   - YAML loading: NewEngine, LoadEmbedded, LoadFromFile
//   - Programmatic construction: NewRule constructor
//
// Both validate that the priority is in [0, 999], the pattern is non-empty,
// the match type and direction are known, and the category is a valid domain.Category.
// An empty direction means DirectionAny.
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Direction Direction `yaml:"direction"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`
}

// NewRule creates a validated rule
func NewRule(name, pattern string, matchType MatchType, direction Direction, priority int, category string) (*Rule, error) {
	r := Rule{
		Name:      name,
		Pattern:   pattern,
		MatchType: matchType,
		Direction: direction,
		Priority:  priority,
		Category:  category,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.Direction == "" {
		r.Direction = DirectionAny
	}
	return &r, nil
}

func (r Rule) validate() error {
	if !domain.ValidateCategory(domain.Category(r.Category)) {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return fmt.Errorf("priority must be in [%d,%d], got %d", MinPriority, MaxPriority, r.Priority)
	}
	switch r.MatchType {
	case MatchTypeExact, MatchTypeContains, MatchTypePrefix:
	default:
		return fmt.Errorf("invalid match_type %q (must be 'exact', 'contains' or 'prefix')", r.MatchType)
	}
	switch r.Direction {
	case "", DirectionAny, DirectionDeposit, DirectionWithdrawal:
	default:
		return fmt.Errorf("invalid direction %q (must be 'any', 'deposit' or 'withdrawal')", r.Direction)
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	return nil
}

// Defaults are the categories assigned when no rule matches
type Defaults struct {
	Income  string `yaml:"income"`
	Expense string `yaml:"expense"`
}

// RuleSet represents the top-level YAML structure
type RuleSet struct {
	Defaults Defaults `yaml:"defaults"`
	Rules    []Rule   `yaml:"rules"`
}

// compiledRule caches the normalized pattern
type compiledRule struct {
	Rule
	pattern string
}

// Engine performs rule matching on transaction descriptions.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	rules    []compiledRule // Sorted by priority (highest first)
	defaults Defaults
}

// MatchResult contains the result of applying a rule
type MatchResult struct {
	Category domain.Category
	RuleName string // For debugging
}

// NewEngine creates a rules engine from YAML data
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	for i, rule := range ruleSet.Rules {
		if err := rule.validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}

	defaults := ruleSet.Defaults
	if defaults.Income == "" {
		defaults.Income = string(domain.CategoryOtherIncome)
	}
	if defaults.Expense == "" {
		defaults.Expense = string(domain.CategoryOtherExpense)
	}
	if !domain.ValidateCategory(domain.Category(defaults.Income)) {
		return nil, fmt.Errorf("defaults: invalid income category %q", defaults.Income)
	}
	if !domain.ValidateCategory(domain.Category(defaults.Expense)) {
		return nil, fmt.Errorf("defaults: invalid expense category %q", defaults.Expense)
	}

	// Use SliceStable to preserve YAML file order for rules with equal priority
	compiled := make([]compiledRule, len(ruleSet.Rules))
	for i, rule := range ruleSet.Rules {
		if rule.Direction == "" {
			rule.Direction = DirectionAny
		}
		compiled[i] = compiledRule{Rule: rule, pattern: normalize(rule.Pattern)}
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &Engine{rules: compiled, defaults: defaults}, nil
}

// LoadEmbedded loads the embedded rules.yaml file
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Load reads path when set and the embedded rules otherwise
func Load(path string) (*Engine, error) {
	if path == "" {
		return LoadEmbedded()
	}
	return LoadFromFile(path)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(s)), " "))
}

// Match applies rules to a transaction and returns the first match.
// Rules are evaluated in priority order (highest first), with equal priorities
// in YAML file order. Returns (nil, false) if no rules match.
func (e *Engine) Match(description string, deposit, withdrawal int64) (*MatchResult, bool) {
	desc := normalize(description)
	isDeposit := deposit > 0

	for _, rule := range e.rules {
		switch rule.Direction {
		case DirectionDeposit:
			if !isDeposit {
				continue
			}
		case DirectionWithdrawal:
			if isDeposit || withdrawal <= 0 {
				continue
			}
		}

		matched := false
		switch rule.MatchType {
		case MatchTypeExact:
			matched = desc == rule.pattern
		case MatchTypeContains:
			matched = strings.Contains(desc, rule.pattern)
		case MatchTypePrefix:
			matched = strings.HasPrefix(desc, rule.pattern)
		}

		if matched {
			return &MatchResult{
				Category: domain.Category(rule.Category),
				RuleName: rule.Name,
			}, true
		}
	}

	return nil, false
}

// Categorize returns the first matching rule's category, or the income
// default for deposits and the expense default otherwise.
func (e *Engine) Categorize(description string, deposit, withdrawal int64) string {
	if m, ok := e.Match(description, deposit, withdrawal); ok {
		return string(m.Category)
	}
	if deposit > 0 {
		return e.defaults.Income
	}
	return e.defaults.Expense
}

// Defaults returns the fallback categories
func (e *Engine) Defaults() Defaults { return e.defaults }

// GetRules returns a copy of the rules in evaluation order.
// Rule fields are all value types, so modifying returned rules does not affect the engine.
func (e *Engine) GetRules() []Rule {
	result := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		result[i] = r.Rule
	}
	return result
}
