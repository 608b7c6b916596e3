package servicenow

import (
	"context"
	"fmt"
)

// ActivitySpec is one step of a workflow, created in order.
type ActivitySpec struct {
	Name   string `json:"name"`
	Script string `json:"script,omitempty"`
}

// WorkflowSpec describes a workflow to compose: the parent record, a version
// and its ordered activities.
type WorkflowSpec struct {
	Name        string         `json:"name"`
	Table       string         `json:"table"`
	Description string         `json:"description,omitempty"`
	Activities  []ActivitySpec `json:"activities,omitempty"`
}

// Workflow is the composed result.
type Workflow struct {
	WorkflowID  string   `json:"workflow_id"`
	VersionID   string   `json:"version_id"`
	ActivityIDs []string `json:"activity_ids,omitempty"`
}

// CreateWorkflow composes a workflow out of its parts: a wf_workflow record,
// a published wf_workflow_version pointing at it, and one wf_activity per
// spec entry linked to the version. Creation is not transactional; a failure
// partway leaves earlier records behind for the caller to clean up.
func (c *Client) CreateWorkflow(ctx context.Context, spec WorkflowSpec) (*Workflow, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("workflow name is required")
	}

	wf, err := c.CreateRecord(ctx, "wf_workflow", map[string]any{
		"name":        spec.Name,
		"table":       spec.Table,
		"description": spec.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("creating workflow: %w", err)
	}

	version, err := c.CreateRecord(ctx, "wf_workflow_version", map[string]any{
		"name":      spec.Name,
		"workflow":  wf.SysID(),
		"table":     spec.Table,
		"published": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("creating workflow version: %w", err)
	}

	result := &Workflow{
		WorkflowID: wf.SysID(),
		VersionID:  version.SysID(),
	}

	for i, activity := range spec.Activities {
		rec, err := c.CreateRecord(ctx, "wf_activity", map[string]any{
			"name":             activity.Name,
			"workflow_version": version.SysID(),
			"script":           activity.Script,
			"order":            (i + 1) * 100,
		})
		if err != nil {
			return nil, fmt.Errorf("creating activity %q: %w", activity.Name, err)
		}
		result.ActivityIDs = append(result.ActivityIDs, rec.SysID())
	}

	return result, nil
}
