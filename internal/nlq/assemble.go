package nlq

import (
	"regexp"
	"strings"
)

var orWord = regexp.MustCompile(`(?i)\bor\b`)

// assemble joins condition fragments in match order with a single connective.
// A standalone "or" anywhere in the residual switches the whole expression to
// ^OR; there is no mixed AND/OR grouping within one translation. The residual
// must be inspected before stop-word stripping, which would eat the
// connective words.
func assemble(matches []Match, residual string) string {
	if len(matches) == 0 {
		return ""
	}

	sep := "^"
	if orWord.MatchString(residual) {
		sep = "^OR"
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Condition
	}
	return strings.Join(parts, sep)
}
