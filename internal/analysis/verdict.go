package analysis

import (
	"strings"
	"unicode"
)

// VerdictClass is the closed classification of a free-form verdict.
type VerdictClass string

const (
	VerdictSupported VerdictClass = "supported"
	VerdictRefuted   VerdictClass = "refuted"
	VerdictMixed     VerdictClass = "mixed"
)

var (
	uncertainWords = map[string]bool{
		"unclear": true, "mixed": true, "uncertain": true, "unverified": true,
		"unverifiable": true, "insufficient": true, "inconclusive": true, "disputed": true,
	}
	refuteWords = map[string]bool{
		"false": true, "misleading": true, "inaccurate": true, "incorrect": true,
		"fake": true, "debunked": true, "refuted": true, "wrong": true,
	}
	supportWords = map[string]bool{
		"true": true, "accurate": true, "correct": true, "supported": true,
		"confirmed": true, "verified": true,
	}
	negations = map[string]bool{"not": true, "un": true, "never": true, "no": true}
)

// ClassifyVerdict maps an upstream verdict string to a VerdictClass.
//
// Precedence, applied to the lower-cased words of the verdict:
//  1. empty, or any uncertainty word (unclear, mixed, ...): mixed
//  2. refuting words (false, misleading, ...) and negated supporting words
//     ("not true") count as refuting; supporting words count as supporting
//  3. both refuting and supporting present ("partly true, partly false"): mixed
//  4. only refuting: refuted; only supporting: supported; neither: mixed
func ClassifyVerdict(verdict string) VerdictClass {
	words := strings.FieldsFunc(strings.ToLower(verdict), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return VerdictMixed
	}

	var refute, support bool
	for i, w := range words {
		if uncertainWords[w] {
			return VerdictMixed
		}
		switch {
		case refuteWords[w]:
			refute = true
		case supportWords[w]:
			if i > 0 && negations[words[i-1]] {
				refute = true
			} else {
				support = true
			}
		}
	}

	switch {
	case refute && support:
		return VerdictMixed
	case refute:
		return VerdictRefuted
	case support:
		return VerdictSupported
	default:
		return VerdictMixed
	}
}
