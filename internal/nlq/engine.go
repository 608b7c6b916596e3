package nlq

import (
	"context"
	"log/slog"
	"strings"
)

// Match records one successful rule application.
type Match struct {
	Pattern   string `json:"pattern"`
	Span      string `json:"span"`
	Condition string `json:"condition"`
}

// runRules walks the registry in evaluation order, applying each rule at most
// once against the current residual text. A successful match emits a condition
// and consumes its span: the first occurrence is replaced with a single space
// so the residual only ever shrinks. Matches come out in rule order, not in
// the order the spans appeared in the input; the assembled query inherits
// that ordering.
func runRules(ctx context.Context, query, table string) ([]Match, string) {
	residual := query
	var matches []Match

	for _, rule := range registry {
		loc := rule.Pattern.FindStringSubmatchIndex(residual)
		if loc == nil {
			continue
		}

		span := residual[loc[0]:loc[1]]
		condition, err := rule.Build(submatches(residual, loc), table)
		if err != nil {
			// A broken builder skips its rule; it never aborts translation.
			slog.WarnContext(ctx, "rule builder failed, skipping",
				"pattern", rule.Pattern.String(),
				"span", span,
				"error", err)
			continue
		}

		matches = append(matches, Match{
			Pattern:   rule.Pattern.String(),
			Span:      span,
			Condition: condition,
		})
		residual = strings.TrimSpace(strings.Replace(residual, span, " ", 1))
	}

	return matches, residual
}

func submatches(s string, loc []int) []string {
	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, s[loc[i]:loc[i+1]])
	}
	return groups
}
