// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// HeuristicReason is attached to posts kept by LooksClaimy alone.
const HeuristicReason = "Heuristic: numeric/policy/claim-like language."

// MinClaimyChars is the shortest trimmed text LooksClaimy accepts.
const MinClaimyChars = 30

// Digits and word boundaries are Unicode-aware: \p{Nd} matches any decimal
// digit, and a claim verb must not touch a letter, digit, or underscore from
// any script. RE2's \d and \b would only see ASCII.
var (
	numericPattern = regexp.MustCompile(`(?i)(\p{Nd}{1,3}(,\p{Nd}{3})+|\p{Nd}+)(\.\p{Nd}+)?|%|\$|million|billion|thousand|per\s?cent|per\s?capita|\p{Nd}{4}`)
	claimVerbs     = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(said|says|claims?|stated|announced|mandates?|banned|requires?|raises?|cuts?|will|won't)(?:[^\p{L}\p{N}_]|$)`)
)

// Keywords are the politically salient substrings that mark a post as
// claim-like. Matching is case-insensitive and not word-bounded.
var Keywords = []string{
	"tax", "vote", "election", "redistrict", "crime", "unemployment", "inflation",
	"immigration", "vaccine", "border", "budget", "billion", "percent", "gun", "abortion",
}

// LooksClaimy reports whether text carries surface signals of a checkable
// claim: at least MinClaimyChars characters after trimming, and a number,
// currency or percentage, a claim verb, or one of Keywords.
func LooksClaimy(text string) bool {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) < MinClaimyChars {
		return false
	}
	if numericPattern.MatchString(t) || claimVerbs.MatchString(t) {
		return true
	}
	lower := strings.ToLower(t)
	for _, k := range Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
