package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// A KeywordRule maps descriptions containing certain keywords to a category.
// MatchAll requires every keyword to be present; the default is match-any.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Category string   `yaml:"category"`
	MatchAll bool     `yaml:"match_all"`
}

// ruleConfig is the parsed form of rules.yaml in the config directory:
//
//	auto_categorize: true
//	overlap_threshold: 0.8
//	rules:
//	  - category: FAST_FOOD
//	    keywords: [pizza, hut]
//	    match_all: true
//	  - category: RESTAURANTS
//	    keywords: [pizza]
type ruleConfig struct {
	AutoCategorize   bool          `yaml:"auto_categorize"`
	OverlapThreshold float64       `yaml:"overlap_threshold"`
	MinTokenLength   int           `yaml:"min_token_length"`
	StopWords        []string      `yaml:"stop_words"`
	Rules            []KeywordRule `yaml:"rules"`
}

func defaultRuleConfig() ruleConfig {
	return ruleConfig{
		AutoCategorize:   true,
		OverlapThreshold: defaultOverlapThreshold,
		MinTokenLength:   defaultMinTokenLen,
	}
}

// loadRuleConfig reads rules.yaml from fpath. A missing file is not an error;
// defaults apply.
func loadRuleConfig(fpath string) (ruleConfig, error) {
	c := defaultRuleConfig()
	data, err := os.ReadFile(fpath)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrapf(err, "unable to read rules config at %v", fpath)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "unable to parse rules config at %v", fpath)
	}
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = defaultOverlapThreshold
	}
	return c, nil
}

// ruleEngine evaluates keyword rules in their configured order. The rule list
// is immutable for the duration of an import run.
type ruleEngine struct {
	autoCategorize bool
	rules          []KeywordRule
}

func newRuleEngine(c ruleConfig) *ruleEngine {
	return &ruleEngine{autoCategorize: c.AutoCategorize, rules: c.Rules}
}

func ruleMatches(r KeywordRule, tokens map[string]bool) bool {
	if len(r.Keywords) == 0 || len(tokens) == 0 {
		return false
	}
	if r.MatchAll {
		for _, kw := range r.Keywords {
			if !tokens[strings.ToLower(kw)] {
				return false
			}
		}
		return true
	}
	for _, kw := range r.Keywords {
		if tokens[strings.ToLower(kw)] {
			return true
		}
	}
	return false
}

// findMatchingCategory tests the rules in list order and returns the category
// of the first one that matches. First match wins; later rules are not
// consulted even if they would match more keywords.
func (e *ruleEngine) findMatchingCategory(tokens map[string]bool) (string, bool) {
	for _, r := range e.rules {
		if ruleMatches(r, tokens) {
			return strings.ToUpper(r.Category), true
		}
	}
	return "", false
}

// rulesForCategory returns all rules feeding the named category,
// case-insensitively.
func (e *ruleEngine) rulesForCategory(name string) []KeywordRule {
	var out []KeywordRule
	for _, r := range e.rules {
		if strings.EqualFold(r.Category, name) {
			out = append(out, r)
		}
	}
	return out
}
