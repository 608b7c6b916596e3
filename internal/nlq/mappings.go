package nlq

// State vocabularies are table-dependent: "open" on incident covers the three
// active states, while change_request encodes its pre-implementation states as
// negative numbers. Tables without an entry use the "default" mapping, and a
// term missing even there degrades to a literal state=<term> condition.
var stateMappings = map[string]map[string]string{
	"incident": {
		"open":        "state=1^ORstate=2^ORstate=3",
		"new":         "state=1",
		"in progress": "state=2",
		"on hold":     "state=3",
		"pending":     "state=3",
		"resolved":    "state=6",
		"closed":      "state=7",
		"cancelled":   "state=8",
		"canceled":    "state=8",
	},
	"change_request": {
		"open":        "state<0",
		"new":         "state=-5",
		"scheduled":   "state=-2",
		"in progress": "state=-1",
		"pending":     "state=-4",
		"closed":      "state=3",
		"cancelled":   "state=4",
		"canceled":    "state=4",
	},
	"problem": {
		"open":        "state=1^ORstate=2^ORstate=3^ORstate=4",
		"new":         "state=1",
		"in progress": "state=4",
		"resolved":    "state=6",
		"closed":      "state=7",
	},
	"sc_task": {
		"open":        "active=true",
		"pending":     "state=-5",
		"in progress": "state=2",
		"closed":      "state=3",
		"cancelled":   "state=7",
		"canceled":    "state=7",
	},
	"default": {
		"open":        "active=true",
		"closed":      "active=false",
		"new":         "state=1",
		"in progress": "state=2",
	},
}

// Priority, impact and urgency vocabularies are shared across all tables.
// ServiceNow priority runs 1 (critical) to 5 (planning); impact and urgency
// run 1 (high) to 3 (low).
var (
	priorityTerms = map[string]string{
		"critical": "1",
		"high":     "2",
		"moderate": "3",
		"medium":   "3",
		"low":      "4",
		"planning": "5",
	}

	impactTerms = map[string]string{
		"high":   "1",
		"medium": "2",
		"low":    "3",
	}

	urgencyTerms = map[string]string{
		"high":   "1",
		"medium": "2",
		"low":    "3",
	}
)

// stateCondition resolves a state vocabulary term for a table, falling back to
// the default mapping and finally to a literal assignment so translation never
// fails on an unmapped term.
func stateCondition(table, term string) string {
	if m, ok := stateMappings[table]; ok {
		if cond, ok := m[term]; ok {
			return cond
		}
	}
	if cond, ok := stateMappings["default"][term]; ok {
		return cond
	}
	return "state=" + term
}
