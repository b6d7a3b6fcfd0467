package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
)

const restPath = "/rest/v1/"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Filters are equality conditions joined with AND.
type Filters map[string]any

// Select returns the rows of table matching filters. A limit <= 0 means no limit.
func (c *Client) Select(ctx context.Context, table string, filters Filters, limit int) ([]map[string]any, error) {
	q, err := filterQuery(filters)
	if err != nil {
		return nil, err
	}
	q.Set("select", "*")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.rows(ctx, http.MethodGet, table, q, nil)
}

func (c *Client) Insert(ctx context.Context, table string, data any) ([]map[string]any, error) {
	if data == nil {
		return nil, fmt.Errorf("insert into %s: data is required", table)
	}
	return c.rows(ctx, http.MethodPost, table, url.Values{}, data)
}

func (c *Client) Update(ctx context.Context, table string, data any, filters Filters) ([]map[string]any, error) {
	if data == nil {
		return nil, fmt.Errorf("update %s: data is required", table)
	}
	q, err := filterQuery(filters)
	if err != nil {
		return nil, err
	}
	return c.rows(ctx, http.MethodPatch, table, q, data)
}

func (c *Client) Delete(ctx context.Context, table string, filters Filters) ([]map[string]any, error) {
	q, err := filterQuery(filters)
	if err != nil {
		return nil, err
	}
	return c.rows(ctx, http.MethodDelete, table, q, nil)
}

func (c *Client) rows(ctx context.Context, method, table string, q url.Values, body any) ([]map[string]any, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	req := request{
		method: method,
		path:   restPath + table,
		query:  q,
		body:   body,
	}
	if method != http.MethodGet {
		req.headers = map[string]string{"Prefer": "return=representation"}
	}

	var out []map[string]any
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// filterQuery turns filters into PostgREST eq conditions, in column order so
// requests are reproducible.
func filterQuery(filters Filters) (url.Values, error) {
	q := url.Values{}
	cols := make([]string, 0, len(filters))
	for col := range filters {
		if !identPattern.MatchString(col) {
			return nil, fmt.Errorf("invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if filters[col] == nil {
			q.Set(col, "is.null")
			continue
		}
		q.Set(col, "eq."+formatValue(filters[col]))
	}
	return q, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
