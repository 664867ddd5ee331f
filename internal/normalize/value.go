// Package normalize canonicalizes raw leak data before it is ever
// encrypted. The same functions run on both sides of the pipeline: every
// cell at ingestion time and every user query at search time. Search
// correctness depends entirely on both sides agreeing, so no caller may
// apply its own variation.
package normalize

import (
	"regexp"
	"strings"
)

var (
	phoneLikeRe = regexp.MustCompile(`^[0-9\s()+\-]+$`)
	nonDigitRe  = regexp.MustCompile(`\D`)
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// Value maps superficially different but semantically identical inputs to
// one canonical string:
//
//   - phone-like input (digits, spaces, parentheses, plus, hyphen only) is
//     stripped to bare digits, and a leading "8" is replaced with "7"
//     (Russian national dialing convention), so "+7 (911) 141-11-23" and
//     "89111411123" both become "79111411123";
//   - input containing "@" has HTML-tag-like substrings removed — sloppy
//     source dumps sometimes embed addresses as "<a@b.com>";
//   - anything else passes through unchanged.
//
// Value is idempotent: Value(Value(x)) == Value(x).
func Value(input string) string {
	if input == "" {
		return input
	}

	if phoneLikeRe.MatchString(input) {
		digits := nonDigitRe.ReplaceAllString(input, "")
		if strings.HasPrefix(digits, "8") {
			digits = "7" + digits[1:]
		}
		return digits
	}

	if strings.Contains(input, "@") {
		return htmlTagRe.ReplaceAllString(input, "")
	}

	return input
}
