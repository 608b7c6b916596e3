package servicenow

import (
	"errors"
	"fmt"
)

// Record is one row from the Table API. Field values are strings for plain
// queries, or {value, display_value} objects when display values are
// requested; Field copes with both.
type Record map[string]any

// Field returns the string form of a field, unwrapping the display-value
// envelope if present. Missing fields return "".
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", v)
}

// SysID returns the record's sys_id.
func (r Record) SysID() string {
	return r.Field("sys_id")
}

// ListParams narrows a table listing. Query is an encoded query
// (sysparm_query); zero values are omitted from the request.
type ListParams struct {
	Query  string
	Fields []string
	Limit  int
	Offset int
}

// APIError is a non-2xx response from the instance, carrying whatever detail
// the error payload included.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("servicenow: status %d", e.Status)
	}
	return fmt.Sprintf("servicenow: status %d: %s", e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the instance.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
