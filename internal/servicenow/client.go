// Package servicenow is a thin client for the ServiceNow Table API. It maps
// CRUD calls, paged listing loops and the two composite operations (workflow
// creation, update-set cloning) onto REST requests; all query semantics live
// in the caller.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const tableAPIPath = "/api/now/table/"

// Config holds per-instance connection settings. Credentials are basic auth;
// the instance enforces its own ACLs on top.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("instance base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpc:    &http.Client{Timeout: timeout},
	}, nil
}

// GetRecord fetches a single record by sys_id.
func (c *Client) GetRecord(ctx context.Context, table, sysID string) (Record, error) {
	var rec Record
	path := tableAPIPath + url.PathEscape(table) + "/" + url.PathEscape(sysID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rec); err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", table, sysID, err)
	}
	return rec, nil
}

// ListRecords fetches one page of records matching params.
func (c *Client) ListRecords(ctx context.Context, table string, params ListParams) ([]Record, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("sysparm_query", params.Query)
	}
	if len(params.Fields) > 0 {
		q.Set("sysparm_fields", strings.Join(params.Fields, ","))
	}
	if params.Limit > 0 {
		q.Set("sysparm_limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("sysparm_offset", strconv.Itoa(params.Offset))
	}

	var recs []Record
	if err := c.do(ctx, http.MethodGet, tableAPIPath+url.PathEscape(table), q, nil, &recs); err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	return recs, nil
}

// ListAllRecords pages through every record matching query, pageSize at a
// time, until the instance returns a short page. Large result sets make many
// round trips; callers should scope the query.
func (c *Client) ListAllRecords(ctx context.Context, table, query string, pageSize int) ([]Record, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var all []Record
	for offset := 0; ; offset += pageSize {
		page, err := c.ListRecords(ctx, table, ListParams{
			Query:  query,
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// CreateRecord inserts a record and returns it as stored.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPost, tableAPIPath+url.PathEscape(table), nil, fields, &rec); err != nil {
		return nil, fmt.Errorf("creating %s record: %w", table, err)
	}
	return rec, nil
}

// UpdateRecord patches the given fields and returns the updated record.
func (c *Client) UpdateRecord(ctx context.Context, table, sysID string, fields map[string]any) (Record, error) {
	var rec Record
	path := tableAPIPath + url.PathEscape(table) + "/" + url.PathEscape(sysID)
	if err := c.do(ctx, http.MethodPatch, path, nil, fields, &rec); err != nil {
		return nil, fmt.Errorf("updating %s/%s: %w", table, sysID, err)
	}
	return rec, nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, table, sysID string) error {
	path := tableAPIPath + url.PathEscape(table) + "/" + url.PathEscape(sysID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", table, sysID, err)
	}
	return nil
}

// envelope is the Table API response wrapper: {"result": ...}.
type envelope struct {
	Result json.RawMessage `json:"result"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling instance: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var ee errorEnvelope
		if json.Unmarshal(raw, &ee) == nil {
			apiErr.Detail = ee.Error.Message
			if ee.Error.Detail != "" {
				apiErr.Detail = ee.Error.Message + ": " + ee.Error.Detail
			}
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
