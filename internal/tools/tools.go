package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"snowbridge.app/bridge/internal/nlq"
	"snowbridge.app/bridge/internal/servicenow"
)

type translateArgs struct {
	Query string `json:"query" jsonschema_description:"Natural-language query, e.g. 'P1 incidents assigned to me'"`
	Table string `json:"table,omitempty" jsonschema_description:"Target table, e.g. incident or change_request; defaults to the generic task mapping"`
}

type queryRecordsArgs struct {
	Query    string   `json:"query" jsonschema_description:"Natural-language or already encoded query"`
	Table    string   `json:"table" jsonschema_description:"Table to query, e.g. incident"`
	Fields   []string `json:"fields,omitempty" jsonschema_description:"Fields to return; all fields when omitted"`
	Limit    int      `json:"limit,omitempty" jsonschema_description:"Max records to return (default 20)"`
	Offset   int      `json:"offset,omitempty" jsonschema_description:"Pagination offset"`
	Instance string   `json:"instance,omitempty" jsonschema_description:"Named instance; default instance when omitted"`
}

type getRecordArgs struct {
	Table    string `json:"table" jsonschema_description:"Table the record lives in"`
	SysID    string `json:"sys_id" jsonschema_description:"sys_id of the record"`
	Instance string `json:"instance,omitempty"`
}

type createRecordArgs struct {
	Table    string         `json:"table" jsonschema_description:"Table to insert into"`
	Fields   map[string]any `json:"fields" jsonschema_description:"Field values for the new record"`
	Instance string         `json:"instance,omitempty"`
}

type updateRecordArgs struct {
	Table    string         `json:"table"`
	SysID    string         `json:"sys_id"`
	Fields   map[string]any `json:"fields" jsonschema_description:"Fields to change"`
	Instance string         `json:"instance,omitempty"`
}

type deleteRecordArgs struct {
	Table    string `json:"table"`
	SysID    string `json:"sys_id"`
	Instance string `json:"instance,omitempty"`
}

type createWorkflowArgs struct {
	Name        string `json:"name" jsonschema_description:"Workflow name"`
	Table       string `json:"table,omitempty" jsonschema_description:"Table the workflow runs against"`
	Description string `json:"description,omitempty"`
	Activities  []struct {
		Name   string `json:"name"`
		Script string `json:"script,omitempty"`
	} `json:"activities,omitempty" jsonschema_description:"Ordered workflow activities"`
	Instance string `json:"instance,omitempty"`
}

type cloneUpdateSetArgs struct {
	SysID    string `json:"sys_id" jsonschema_description:"sys_id of the update set to clone"`
	Name     string `json:"name,omitempty" jsonschema_description:"Name for the clone; '<source> (copy)' when omitted"`
	Instance string `json:"instance,omitempty"`
}

// queryRecordsResult carries the records together with the translation
// diagnostics, so callers can see how their sentence was interpreted.
type queryRecordsResult struct {
	EncodedQuery string              `json:"encoded_query"`
	Records      []servicenow.Record `json:"records"`
	Translation  *nlq.Result         `json:"translation,omitempty"`
}

const defaultQueryLimit = 20

func buildTools(clients Clients) []Tool {
	return []Tool{
		{
			Name:        "translate_query",
			Description: "Translate a natural-language sentence into a ServiceNow encoded query without executing it. Returns the encoded query, the matched phrases and suggestions for anything unrecognized.",
			InputSchema: generateSchema[translateArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[translateArgs](raw)
				if err != nil {
					return nil, err
				}
				return nlq.Translate(ctx, args.Query, args.Table), nil
			},
		},
		{
			Name:        "query_records",
			Description: "Query records in a table. Accepts natural language ('open P1 incidents assigned to me') or an encoded query; returns matching records plus the translation used.",
			InputSchema: generateSchema[queryRecordsArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[queryRecordsArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.Table == "" {
					return nil, fmt.Errorf("table is required")
				}

				translation := nlq.Translate(ctx, args.Query, args.Table)
				if translation.EncodedQuery == "" {
					return nil, fmt.Errorf("could not translate %q: %s",
						args.Query, strings.Join(translation.Suggestions, "; "))
				}

				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}

				limit := args.Limit
				if limit <= 0 {
					limit = defaultQueryLimit
				}
				records, err := client.ListRecords(ctx, args.Table, servicenow.ListParams{
					Query:  translation.EncodedQuery,
					Fields: args.Fields,
					Limit:  limit,
					Offset: args.Offset,
				})
				if err != nil {
					return nil, err
				}

				slog.DebugContext(ctx, "query executed",
					"table", args.Table,
					"encoded_query", translation.EncodedQuery,
					"count", len(records))

				return queryRecordsResult{
					EncodedQuery: translation.EncodedQuery,
					Records:      records,
					Translation:  &translation,
				}, nil
			},
		},
		{
			Name:        "get_record",
			Description: "Fetch a single record by sys_id.",
			InputSchema: generateSchema[getRecordArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[getRecordArgs](raw)
				if err != nil {
					return nil, err
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				rec, err := client.GetRecord(ctx, args.Table, args.SysID)
				if err != nil {
					if servicenow.IsNotFound(err) {
						return nil, fmt.Errorf("no %s record with sys_id %s", args.Table, args.SysID)
					}
					return nil, err
				}
				return rec, nil
			},
		},
		{
			Name:        "create_record",
			Description: "Create a record in a table.",
			InputSchema: generateSchema[createRecordArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[createRecordArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.Table == "" || len(args.Fields) == 0 {
					return nil, fmt.Errorf("table and fields are required")
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				return client.CreateRecord(ctx, args.Table, args.Fields)
			},
		},
		{
			Name:        "update_record",
			Description: "Update fields on an existing record.",
			InputSchema: generateSchema[updateRecordArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[updateRecordArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.SysID == "" || len(args.Fields) == 0 {
					return nil, fmt.Errorf("sys_id and fields are required")
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				return client.UpdateRecord(ctx, args.Table, args.SysID, args.Fields)
			},
		},
		{
			Name:        "delete_record",
			Description: "Delete a record by sys_id.",
			InputSchema: generateSchema[deleteRecordArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[deleteRecordArgs](raw)
				if err != nil {
					return nil, err
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				if err := client.DeleteRecord(ctx, args.Table, args.SysID); err != nil {
					return nil, err
				}
				return map[string]any{"deleted": true, "sys_id": args.SysID}, nil
			},
		},
		{
			Name:        "create_workflow",
			Description: "Compose a workflow: parent record, published version and ordered activities.",
			InputSchema: generateSchema[createWorkflowArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[createWorkflowArgs](raw)
				if err != nil {
					return nil, err
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				spec := servicenow.WorkflowSpec{
					Name:        args.Name,
					Table:       args.Table,
					Description: args.Description,
				}
				for _, a := range args.Activities {
					spec.Activities = append(spec.Activities, servicenow.ActivitySpec(a))
				}
				return client.CreateWorkflow(ctx, spec)
			},
		},
		{
			Name:        "clone_update_set",
			Description: "Clone an update set and all of its member updates into a fresh in-progress set.",
			InputSchema: generateSchema[cloneUpdateSetArgs](),
			Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
				args, err := decodeArgs[cloneUpdateSetArgs](raw)
				if err != nil {
					return nil, err
				}
				if args.SysID == "" {
					return nil, fmt.Errorf("sys_id is required")
				}
				client, err := clients.Instance(args.Instance)
				if err != nil {
					return nil, err
				}
				return client.CloneUpdateSet(ctx, args.SysID, args.Name)
			},
		},
	}
}
