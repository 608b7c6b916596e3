package tools

import (
	"context"

	"snowbridge.app/bridge/internal/servicenow"
)

// RecordAPI is the slice of the ServiceNow client the tools consume. Kept as
// an interface so tests can stand in for a live instance.
type RecordAPI interface {
	GetRecord(ctx context.Context, table, sysID string) (servicenow.Record, error)
	ListRecords(ctx context.Context, table string, params servicenow.ListParams) ([]servicenow.Record, error)
	CreateRecord(ctx context.Context, table string, fields map[string]any) (servicenow.Record, error)
	UpdateRecord(ctx context.Context, table, sysID string, fields map[string]any) (servicenow.Record, error)
	DeleteRecord(ctx context.Context, table, sysID string) error
	CreateWorkflow(ctx context.Context, spec servicenow.WorkflowSpec) (*servicenow.Workflow, error)
	CloneUpdateSet(ctx context.Context, sysID, newName string) (*servicenow.UpdateSetClone, error)
}

// Clients resolves a named instance to its client. An empty name selects the
// default instance; unknown names are an error surfaced in the tool result.
type Clients interface {
	Instance(name string) (RecordAPI, error)
}
