package main

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Bank descriptions frequently arrive with markup entities baked in by the
// statement generator. Only this small fixed set is decoded.
var markupEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// Single-letter initials joined by an ampersand collapse into one token, so
// that brands like "A & W" survive tokenization as "aw".
var initialsRx = regexp.MustCompile(`([a-z])\s*&\s*([a-z])`)

// Joining punctuation is stripped without inserting whitespace, keeping
// "wal-mart" and "mcdonald's" as single tokens.
var joiners = strings.NewReplacer("-", "", "'", "", "&", "")

var numericRx = regexp.MustCompile(`^[0-9]+$`)

var defaultStopWords = []string{
	"the", "and", "for", "with", "from", "into",
	"of", "at", "in", "on", "to", "by", "via",
}

const defaultMinTokenLen = 2

type tokenizer struct {
	minLen int
	stop   map[string]bool
}

func newTokenizer(minLen int, stopWords []string) *tokenizer {
	if minLen <= 0 {
		minLen = defaultMinTokenLen
	}
	if len(stopWords) == 0 {
		stopWords = defaultStopWords
	}
	stop := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = true
	}
	return &tokenizer{minLen: minLen, stop: stop}
}

// normalize converts a free-text transaction description into a canonical set
// of lowercase tokens. It is pure: the same description always yields the
// same set, and a blank description yields an empty one.
func (tk *tokenizer) normalize(desc string) map[string]bool {
	tokens := make(map[string]bool)
	if len(strings.TrimSpace(desc)) == 0 {
		return tokens
	}

	s := markupEntities.Replace(desc)
	s = strings.ToLower(s)
	s = initialsRx.ReplaceAllString(s, "$1$2")
	s = joiners.Replace(s)

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) < tk.minLen {
			continue
		}
		if numericRx.MatchString(f) {
			continue
		}
		if tk.stop[f] {
			continue
		}
		tokens[f] = true
	}
	return tokens
}

// tokenSlice returns the set as a sorted slice, the form tokens are persisted in.
func tokenSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
