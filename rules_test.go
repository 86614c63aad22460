package main

import (
	"os"
	"path"
	"reflect"
	"testing"
)

func TestFindMatchingCategory(t *testing.T) {
	engine := newRuleEngine(ruleConfig{
		AutoCategorize: true,
		Rules: []KeywordRule{
			{Keywords: []string{"pizza", "hut"}, Category: "FAST_FOOD", MatchAll: true},
			{Keywords: []string{"pizza"}, Category: "RESTAURANTS"},
		},
	})

	cases := []struct {
		name   string
		tokens map[string]bool
		want   string
		wantOK bool
	}{
		{"matchAllHit", setOf("pizza", "hut"), "FAST_FOOD", true},
		{"matchAllMissFallsThrough", setOf("pizza", "downtown"), "RESTAURANTS", true},
		{"noMatch", setOf("grocery"), "", false},
		{"emptyTokens", setOf(), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := engine.findMatchingCategory(tc.tokens)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("findMatchingCategory(%v) = (%q, %v), want (%q, %v)",
					tc.tokens, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	// Both rules match; only the first one in list order may be returned.
	engine := newRuleEngine(ruleConfig{
		Rules: []KeywordRule{
			{Keywords: []string{"shell"}, Category: "gas"},
			{Keywords: []string{"shell"}, Category: "GROCERIES"},
		},
	})
	got, ok := engine.findMatchingCategory(setOf("shell", "station"))
	if !ok || got != "GAS" {
		t.Errorf("findMatchingCategory = (%q, %v), want (GAS, true)", got, ok)
	}
}

func TestRuleKeywordCaseInsensitive(t *testing.T) {
	engine := newRuleEngine(ruleConfig{
		Rules: []KeywordRule{{Keywords: []string{"NETFLIX"}, Category: "Entertainment"}},
	})
	got, ok := engine.findMatchingCategory(setOf("netflix"))
	if !ok || got != "ENTERTAINMENT" {
		t.Errorf("findMatchingCategory = (%q, %v), want (ENTERTAINMENT, true)", got, ok)
	}
}

func TestEmptyKeywordsNeverMatch(t *testing.T) {
	engine := newRuleEngine(ruleConfig{
		Rules: []KeywordRule{{Category: "BROKEN"}},
	})
	if _, ok := engine.findMatchingCategory(setOf("anything")); ok {
		t.Errorf("rule with no keywords should never match")
	}
}

func TestRulesForCategory(t *testing.T) {
	r1 := KeywordRule{Keywords: []string{"esso"}, Category: "Gas"}
	r2 := KeywordRule{Keywords: []string{"shell"}, Category: "GAS"}
	engine := newRuleEngine(ruleConfig{
		Rules: []KeywordRule{r1, {Keywords: []string{"loblaws"}, Category: "GROCERIES"}, r2},
	})
	got := engine.rulesForCategory("gas")
	want := []KeywordRule{r1, r2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rulesForCategory(gas) = %v, want %v", got, want)
	}
}

func TestLoadRuleConfig(t *testing.T) {
	t.Run("missingFileUsesDefaults", func(t *testing.T) {
		c, err := loadRuleConfig(path.Join(t.TempDir(), "rules.yaml"))
		if err != nil {
			t.Fatalf("loadRuleConfig: %v", err)
		}
		if !c.AutoCategorize || c.OverlapThreshold != defaultOverlapThreshold {
			t.Errorf("unexpected defaults: %+v", c)
		}
	})

	t.Run("parsesRules", func(t *testing.T) {
		fpath := path.Join(t.TempDir(), "rules.yaml")
		data := `auto_categorize: true
overlap_threshold: 1.0
rules:
  - category: FAST_FOOD
    keywords: [pizza, hut]
    match_all: true
  - category: RESTAURANTS
    keywords: [pizza]
`
		if err := os.WriteFile(fpath, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		c, err := loadRuleConfig(fpath)
		if err != nil {
			t.Fatalf("loadRuleConfig: %v", err)
		}
		if len(c.Rules) != 2 || !c.Rules[0].MatchAll || c.Rules[1].MatchAll {
			t.Errorf("unexpected rules: %+v", c.Rules)
		}
		if c.OverlapThreshold != 1.0 {
			t.Errorf("threshold = %v, want 1.0", c.OverlapThreshold)
		}
	})
}
