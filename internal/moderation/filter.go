// Package moderation provides content filtering for relayed chat traffic.
// It screens messages and display names for prohibited content before they
// reach the partner.
package moderation

import (
	"strings"
	"unicode"
)

// FilterResult is the outcome of a content check.
type FilterResult struct {
	Blocked bool
	Reason  string // "blocked_keyword", "blocked_phrase", or "spam_pattern"
	Term    string // the term or check name that matched
}

// Filter screens text against a keyword/phrase blocklist and a set of spam
// pattern checks. It is safe for concurrent use after construction.
type Filter struct {
	words   map[string]struct{} // single-word terms
	phrases []string            // multi-word terms, matched on token boundaries
}

// NewFilter creates a Filter loaded with the default blocklist.
func NewFilter() *Filter {
	return NewFilterWithTerms(defaultBlocklist)
}

// NewFilterWithTerms creates a Filter from an explicit term list. Terms
// containing whitespace are treated as phrases; empty and whitespace-only
// entries are ignored.
func NewFilterWithTerms(terms []string) *Filter {
	f := &Filter{words: make(map[string]struct{})}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.ContainsAny(term, " \t") {
			f.phrases = append(f.phrases, term)
		} else {
			f.words[term] = struct{}{}
		}
	}
	return f
}

// Check screens a message. The first matching check wins: blocked keywords
// (plain and leetspeak-normalized), blocked phrases, then spam patterns.
func (f *Filter) Check(text string) FilterResult {
	lower := strings.ToLower(text)

	for _, tok := range tokenizePlain(lower) {
		if _, ok := f.words[tok]; ok {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: tok}
		}
	}

	// Leetspeak evasion: tokens split on whitespace only, so symbol
	// substitutions survive tokenization, then normalized back to letters.
	for _, tok := range tokenizeLeet(lower) {
		norm := normalizeLeet(tok)
		if _, ok := f.words[norm]; ok {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: norm}
		}
	}

	// Phrases match whole token sequences: "kill yourselves" must not match
	// the phrase "kill yourself".
	joined := " " + strings.Join(tokenizePlain(lower), " ") + " "
	for _, phrase := range f.phrases {
		if strings.Contains(joined, " "+phrase+" ") {
			return FilterResult{Blocked: true, Reason: "blocked_phrase", Term: phrase}
		}
	}

	return f.checkSpamPatterns(text)
}

// Screen adapts Check to the (blocked, reason, term) form the relay core
// expects from its message screener.
func (f *Filter) Screen(text string) (bool, string, string) {
	res := f.Check(text)
	return res.Blocked, res.Reason, res.Term
}

// ScreenName returns a display name safe to show to a chat partner. Names
// that trip the filter collapse to a neutral placeholder.
func (f *Filter) ScreenName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Stranger"
	}
	if f.Check(name).Blocked {
		return "Stranger"
	}
	return name
}

// tokenizePlain splits text into lowercase word tokens, treating any
// non-letter, non-digit rune as a delimiter.
func tokenizePlain(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenizeLeet splits text on whitespace only, keeping symbol characters
// inside tokens so leetspeak substitutions can be normalized afterwards.
func tokenizeLeet(text string) []string {
	return strings.Fields(text)
}

// leetRunes maps common character substitutions back to letters.
var leetRunes = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'@': 'a',
	'$': 's',
	'!': 'i',
}

// normalizeLeet reverses common leetspeak substitutions in a token.
func normalizeLeet(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if mapped, ok := leetRunes[r]; ok {
			b.WriteRune(mapped)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
