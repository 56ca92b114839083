package client

import (
	"context"
	"net/http"
)

const noDataMessage = "No data returned"

// ValidateSchema asks the backend to compare the live database against the
// expected schema. Missing fields in the answer are normalized.
func (c *Client) ValidateSchema(ctx context.Context) (*SchemaValidation, error) {
	var resp envelope[*SchemaValidation]
	if err := c.Do(ctx, Request{Endpoint: "/api/admin/schema/validate"}, &resp); err != nil {
		return nil, err
	}
	v := resp.Data
	if v == nil {
		v = &SchemaValidation{}
	}
	if v.Issues == nil {
		v.Issues = []SchemaIssue{}
	}
	return v, nil
}

// FixSchema asks the backend to repair issues. With nil issues the schema is
// validated first and only the fixable issues are submitted.
func (c *Client) FixSchema(ctx context.Context, issues []SchemaIssue) (*SchemaFixResult, error) {
	if issues == nil {
		v, err := c.ValidateSchema(ctx)
		if err != nil {
			return nil, err
		}
		issues = fixable(v.Issues)
	}

	var resp envelope[*SchemaFixResult]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/admin/schema/fix",
		Body:     map[string][]SchemaIssue{"issues": issues},
	}, &resp)
	if err != nil {
		return nil, err
	}
	r := resp.Data
	if r == nil {
		return &SchemaFixResult{Failed: []string{}, Message: noDataMessage}, nil
	}
	if r.Failed == nil {
		r.Failed = []string{}
	}
	return r, nil
}

func fixable(issues []SchemaIssue) []SchemaIssue {
	out := make([]SchemaIssue, 0, len(issues))
	for _, is := range issues {
		if is.Fixable {
			out = append(out, is)
		}
	}
	return out
}

// DatabaseInfo lists tables, indexes and row counts. Missing lists come back
// empty.
func (c *Client) DatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	var resp envelope[*DatabaseInfo]
	if err := c.Do(ctx, Request{Endpoint: "/api/admin/database/info"}, &resp); err != nil {
		return nil, err
	}
	info := resp.Data
	if info == nil {
		info = &DatabaseInfo{}
	}
	if info.Tables == nil {
		info.Tables = []TableRef{}
	}
	if info.Indexes == nil {
		info.Indexes = []IndexInfo{}
	}
	if info.TableStats == nil {
		info.TableStats = []TableStat{}
	}
	return info, nil
}
