// Package nlq translates free-form English into ServiceNow encoded queries.
//
// Translation is a single deterministic pass over an ordered rule registry:
// each rule may fire at most once, consuming its matched span from the input.
// The surviving fragments are joined with one connective and whatever text no
// rule claimed comes back as residual, with suggestions when it looks like
// the user meant something we failed to recognize. Translate never returns an
// error; malformed input degrades to an empty result with suggestions.
package nlq

import (
	"context"
	"fmt"
	"strings"
)

// DefaultTable is used when the caller does not name a target table. Unknown
// tables fall back to the default state mapping with no error.
const DefaultTable = "default"

// Result is the complete outcome of one translation call.
type Result struct {
	// EncodedQuery is the sysparm_query value in ServiceNow's encoded-query
	// grammar, or "" when nothing was recognized.
	EncodedQuery string `json:"encoded_query"`
	// Matches lists applied rules in evaluation order.
	Matches []Match `json:"matches,omitempty"`
	// Unmatched is the input text left over after matching and stop-word
	// stripping.
	Unmatched string `json:"unmatched,omitempty"`
	// Suggestions carries human-readable hints when input was empty, partly
	// unrecognized, or recognized as already encoded.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Filler that carries no query meaning: articles, imperative verbs, record
// nouns and connectives. Stripped from the residual only after the connective
// has been chosen from it.
var fillerWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"show": {}, "list": {}, "find": {}, "get": {}, "give": {}, "all": {},
	"and": {}, "or": {}, "with": {}, "in": {}, "for": {}, "from": {},
	"that": {}, "are": {}, "is": {}, "me": {},
	"incidents": {}, "changes": {}, "problems": {}, "requests": {},
	"tasks": {}, "tickets": {}, "records": {}, "items": {},
}

var exampleSuggestions = []string{
	`Try "P1 incidents assigned to me"`,
	`Try "open changes from the last 7 days"`,
	`Try "unassigned incidents with high impact"`,
	`Try "incidents about email outage"`,
	`Or pass an encoded query directly, e.g. "priority=1^state=2"`,
}

// Translate converts a natural-language query into an encoded query for the
// given table. The contract is total: every input yields a Result, never an
// error.
func Translate(ctx context.Context, query, table string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{
			Suggestions: []string{`Provide a non-empty query, e.g. "high priority incidents assigned to me"`},
		}
	}
	if table == "" {
		table = DefaultTable
	}

	matches, residual := runRules(ctx, query, table)

	// Connective choice reads the raw residual; stripping happens after.
	encoded := assemble(matches, residual)
	unmatched := stripFiller(residual)

	if encoded != "" {
		var suggestions []string
		if len(unmatched) > 3 {
			suggestions = append(suggestions,
				fmt.Sprintf("Unrecognized: %q", unmatched),
				`Supported phrases include priorities ("P1", "high priority"), states ("open", "resolved"), assignment ("assigned to me", "unassigned") and dates ("last 7 days", "today")`,
			)
		}
		return Result{
			EncodedQuery: encoded,
			Matches:      matches,
			Unmatched:    unmatched,
			Suggestions:  suggestions,
		}
	}

	// Nothing matched. Input that already carries encoded-query syntax is
	// passed through verbatim so encoded queries round-trip unchanged.
	if strings.ContainsAny(query, "=^") {
		return Result{
			EncodedQuery: query,
			Unmatched:    unmatched,
			Suggestions:  []string{"Input looks like an encoded query already; passing it through unchanged"},
		}
	}

	return Result{
		Unmatched:   unmatched,
		Suggestions: exampleSuggestions,
	}
}

// stripFiller drops stop words and collapses whitespace. Word comparisons
// ignore case and trailing punctuation, but kept words keep their original
// form.
func stripFiller(s string) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		bare := strings.ToLower(strings.Trim(word, ".,!?;:"))
		if bare == "" {
			continue
		}
		if _, ok := fillerWords[bare]; ok {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}
