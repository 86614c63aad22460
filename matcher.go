package main

import (
	"log"
	"sort"
)

const defaultOverlapThreshold = 0.8

// categoryMatch is a candidate category with the best overlap ratio seen
// among the historical transactions backing it.
type categoryMatch struct {
	Category Category
	Ratio    float64
}

// tokenIndex is the slice of the store the overlap matcher needs. Any indexed
// store satisfying it is substitutable; tests use an in-memory fake.
type tokenIndex interface {
	FindTransactionsWithMatchingTokens(search map[string]bool, excludeCategoryID uint64) ([]tokenMatch, error)
	CategoryByID(id uint64) (Category, bool, error)
	CategoryByName(name string) (Category, bool, error)
}

// overlapMatcher ranks candidate categories for a description by comparing
// its token set against the token sets of previously categorized
// transactions.
type overlapMatcher struct {
	threshold float64
	tok       *tokenizer
}

func newOverlapMatcher(threshold float64, tok *tokenizer) *overlapMatcher {
	if threshold <= 0 {
		threshold = defaultOverlapThreshold
	}
	return &overlapMatcher{threshold: threshold, tok: tok}
}

// findMatchingCategoriesForDesc normalizes desc and ranks categories for it.
func (m *overlapMatcher) findMatchingCategoriesForDesc(idx tokenIndex, desc string) []categoryMatch {
	return m.findMatchingCategories(idx, m.tok.normalize(desc))
}

// findMatchingCategories returns categories whose historical transactions
// overlap the search tokens at or above the threshold, best ratio first.
// Matching is an optimization, not a correctness requirement: any index read
// failure is logged and treated as "no matches" so the caller falls through
// to interactive categorization.
func (m *overlapMatcher) findMatchingCategories(idx tokenIndex, search map[string]bool) []categoryMatch {
	if len(search) == 0 {
		return nil
	}
	unknown, ok, err := idx.CategoryByName(catUnknown)
	if err != nil || !ok {
		log.Printf("overlap matcher: unable to resolve %v category: %v", catUnknown, err)
		return nil
	}
	matches, err := idx.FindTransactionsWithMatchingTokens(search, unknown.ID)
	if err != nil {
		log.Printf("overlap matcher: token index read failed: %v", err)
		return nil
	}

	// Keep the single best ratio per category, resolving each category id
	// only once.
	best := make(map[uint64]float64)
	cats := make(map[uint64]Category)
	for _, tm := range matches {
		if tm.TotalCount == 0 {
			continue
		}
		smaller := len(search)
		if tm.TotalCount < smaller {
			smaller = tm.TotalCount
		}
		ratio := float64(tm.MatchingCount) / float64(smaller)
		if ratio < m.threshold {
			continue
		}
		if _, seen := cats[tm.CategoryID]; !seen {
			c, ok, err := idx.CategoryByID(tm.CategoryID)
			if err != nil {
				log.Printf("overlap matcher: unable to load category %d: %v", tm.CategoryID, err)
				return nil
			}
			if !ok {
				continue
			}
			cats[tm.CategoryID] = c
		}
		if ratio > best[tm.CategoryID] {
			best[tm.CategoryID] = ratio
		}
	}

	out := make([]categoryMatch, 0, len(best))
	for id, ratio := range best {
		out = append(out, categoryMatch{Category: cats[id], Ratio: ratio})
	}
	// Ties carry no defined secondary order.
	sort.Slice(out, func(i, j int) bool { return out[i].Ratio > out[j].Ratio })
	return out
}
