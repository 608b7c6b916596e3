package nlq

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// currentUserExpr is passed through verbatim; the instance resolves it
// server-side at query time.
const currentUserExpr = "javascript:gs.getUserID()"

// BuildFunc turns a successful pattern match into an encoded-query condition.
// match[0] is the full span, match[1:] the capture groups. The table name is
// only consulted by table-dependent builders (state).
type BuildFunc func(match []string, table string) (string, error)

// Rule pairs a recognition pattern with a priority and a condition builder.
// Rules are registered once at init and never mutated. Higher priority runs
// first; equal priorities keep registration order.
type Rule struct {
	Pattern  *regexp.Regexp
	Priority int
	Build    BuildFunc
}

// registry holds all rules sorted by priority descending. The sort is stable,
// so registration order breaks ties.
var registry = sortRules([]Rule{
	// Record numbers beat everything: "INC0010001" must never be picked apart
	// by lower rules.
	{
		Pattern:  regexp.MustCompile(`(?i)\b((?:INC|CHG|PRB|REQ|RITM|SCTASK|TASK|KB)\d{7,10})\b`),
		Priority: 100,
		Build: func(match []string, _ string) (string, error) {
			return "number=" + strings.ToUpper(match[1]), nil
		},
	},

	// Assignment. "assigned to me" and "my incidents" must consume their span
	// before the named-user rule gets a chance at the word "me".
	{
		Pattern:  regexp.MustCompile(`(?i)\bassigned to me\b`),
		Priority: 90,
		Build: func(_ []string, _ string) (string, error) {
			return "assigned_to=" + currentUserExpr, nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bmy (?:incidents?|changes?|problems?|requests?|tasks?|tickets?|records?)\b`),
		Priority: 90,
		Build: func(_ []string, _ string) (string, error) {
			return "assigned_to=" + currentUserExpr, nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:unassigned|not assigned|no assignee)\b`),
		Priority: 88,
		Build: func(_ []string, _ string) (string, error) {
			return "assigned_toISEMPTY", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bassigned to ([a-z][a-z'.-]*(?: [a-z][a-z'.-]*)?)\b`),
		Priority: 85,
		Build: func(match []string, _ string) (string, error) {
			return "assigned_to.nameLIKE" + match[1], nil
		},
	},

	// Dates. Relative expressions are emitted verbatim for server-side
	// evaluation; absolute dates become plain comparisons.
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:last|past) (\d+) days?\b`),
		Priority: 82,
		Build: func(match []string, _ string) (string, error) {
			n, err := strconv.Atoi(match[1])
			if err != nil {
				return "", fmt.Errorf("parsing day count %q: %w", match[1], err)
			}
			return fmt.Sprintf("sys_created_on>=javascript:gs.daysAgoStart(%d)", n), nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:since|after) (\d{4}-\d{2}-\d{2})\b`),
		Priority: 81,
		Build: func(match []string, _ string) (string, error) {
			return "sys_created_on>" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bbefore (\d{4}-\d{2}-\d{2})\b`),
		Priority: 81,
		Build: func(match []string, _ string) (string, error) {
			return "sys_created_on<" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\btoday\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.daysAgoStart(0)", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\byesterday\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.daysAgoStart(1)^sys_created_on<=javascript:gs.daysAgoEnd(1)", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bthis week\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.beginningOfThisWeek()", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\blast week\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.beginningOfLastWeek()^sys_created_on<=javascript:gs.endOfLastWeek()", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bthis month\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.beginningOfThisMonth()", nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\blast month\b`),
		Priority: 80,
		Build: func(_ []string, _ string) (string, error) {
			return "sys_created_on>=javascript:gs.beginningOfLastMonth()^sys_created_on<=javascript:gs.endOfLastMonth()", nil
		},
	},

	// Impact and urgency must outrank the priority rules so "high impact"
	// is not half-consumed into priority=2.
	{
		Pattern:  regexp.MustCompile(`(?i)\b(high|medium|low) impact\b`),
		Priority: 78,
		Build: func(match []string, _ string) (string, error) {
			v, ok := impactTerms[strings.ToLower(match[1])]
			if !ok {
				return "", fmt.Errorf("unknown impact term %q", match[1])
			}
			return "impact=" + v, nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(high|medium|low) urgency\b`),
		Priority: 77,
		Build: func(match []string, _ string) (string, error) {
			v, ok := urgencyTerms[strings.ToLower(match[1])]
			if !ok {
				return "", fmt.Errorf("unknown urgency term %q", match[1])
			}
			return "urgency=" + v, nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\burgent\b`),
		Priority: 77,
		Build: func(_ []string, _ string) (string, error) {
			return "urgency=1", nil
		},
	},

	// Priority levels: shorthand P1-P5, then spelled-out phrases, then a bare
	// "critical". Bare "high"/"low" stay unmatched on purpose: without the
	// word "priority" next to them they are too ambiguous.
	{
		Pattern:  regexp.MustCompile(`(?i)\bp([1-5])\b`),
		Priority: 75,
		Build: func(match []string, _ string) (string, error) {
			return "priority=" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(critical|high|moderate|medium|low|planning)[ -]priority\b`),
		Priority: 74,
		Build:    buildPriorityTerm,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bpriority (?:is )?(critical|high|moderate|medium|low|planning)\b`),
		Priority: 74,
		Build:    buildPriorityTerm,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bcritical\b`),
		Priority: 73,
		Build: func(_ []string, _ string) (string, error) {
			return "priority=1", nil
		},
	},

	// Lifecycle state, table-dependent.
	{
		Pattern:  regexp.MustCompile(`(?i)\b(open|closed|resolved|in progress|on hold|pending|cancelled|canceled|scheduled|new)\b`),
		Priority: 70,
		Build: func(match []string, table string) (string, error) {
			return stateCondition(table, strings.ToLower(match[1])), nil
		},
	},

	// Named-field searches.
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:caller(?: is)?|reported by|opened by) ([a-z][a-z'.-]*(?: [a-z][a-z'.-]*)?)\b`),
		Priority: 65,
		Build: func(match []string, _ string) (string, error) {
			return "caller_id.nameLIKE" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:assignment group|group) (?:is )?([a-z][\w-]*(?: [a-z][\w-]*)?)\b`),
		Priority: 64,
		Build: func(match []string, _ string) (string, error) {
			return "assignment_group.nameLIKE" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\bcategory (?:is )?([a-z][\w-]*)\b`),
		Priority: 63,
		Build: func(match []string, _ string) (string, error) {
			return "category=" + strings.ToLower(match[1]), nil
		},
	},

	// Content search catches what nothing else claimed. Quoted phrases search
	// the full description; "about X" searches the short description.
	{
		Pattern:  regexp.MustCompile(`"([^"]+)"`),
		Priority: 55,
		Build: func(match []string, _ string) (string, error) {
			return "descriptionCONTAINS" + match[1], nil
		},
	},
	{
		Pattern:  regexp.MustCompile(`(?i)\b(?:about|containing|mentioning|regarding|related to) (.+)$`),
		Priority: 50,
		Build: func(match []string, _ string) (string, error) {
			text := strings.TrimRight(strings.TrimSpace(match[1]), ".!?,")
			if text == "" {
				return "", fmt.Errorf("empty content search")
			}
			return "short_descriptionLIKE" + text, nil
		},
	},
})

func buildPriorityTerm(match []string, _ string) (string, error) {
	v, ok := priorityTerms[strings.ToLower(match[1])]
	if !ok {
		return "", fmt.Errorf("unknown priority term %q", match[1])
	}
	return "priority=" + v, nil
}

func sortRules(rules []Rule) []Rule {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules
}

// Rules returns the registry in evaluation order (priority descending,
// registration order on ties).
func Rules() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	return out
}
