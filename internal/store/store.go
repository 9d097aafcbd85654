// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the adapter for the remote tabular store. Collections
// are row-oriented tables addressed by name; each row has a store-assigned
// identifier and a field map. Reads accept an optional filter formula and
// are paged by the store with an opaque continuation token.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	// maxRecordsPerFetch bounds single-shot reads. The store can return
	// more via pagination; callers that outgrow this limit must page
	// explicitly.
	maxRecordsPerFetch = 50

	// listPageSize is the page size used when paging exhaustively.
	listPageSize = 100

	// deleteBatchSize is the store's hard limit on identifiers per
	// delete call.
	deleteBatchSize = 10

	dateLayout = "2006-01-02"
)

// Row is one record in a collection: a store-assigned identifier plus the
// field map.
type Row struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Error is a non-success response from the store. It carries the HTTP
// status so callers can distinguish auth, rate-limit, and formula errors.
type Error struct {
	Status int
	Op     string
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s returned HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to one workspace base of the tabular store.
type Client struct {
	baseURL    string
	baseID     string
	apiKey     string
	userAgent  string
	maxRetries int
	httpClient *http.Client
}

// NewClient builds a store client from configuration.
func NewClient(cfg types.StoreConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.airtable.com/v0"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		baseID:     cfg.BaseID,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// OrEquals builds a filter formula matching rows whose field equals any of
// the given values, e.g. OR({line}="A",{line}="B"). Empty values yield an
// empty formula (no filter).
func OrEquals(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	clauses := make([]string, len(values))
	for i, v := range values {
		clauses[i] = fmt.Sprintf("{%s}=\"%s\"", field, escapeFormulaValue(v))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "OR(" + strings.Join(clauses, ",") + ")"
}

// IsBefore builds a filter formula matching rows whose date field is
// strictly before the given day.
func IsBefore(field string, day time.Time) string {
	return fmt.Sprintf("IS_BEFORE({%s}, '%s')", field, day.Format(dateLayout))
}

func escapeFormulaValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// Fetch reads up to 50 rows from a collection, optionally filtered by a
// formula. An empty filter reads unconditionally.
func (c *Client) Fetch(ctx context.Context, collection, filter string) ([]Row, error) {
	params := url.Values{}
	params.Set("maxRecords", fmt.Sprintf("%d", maxRecordsPerFetch))
	if filter != "" {
		params.Set("filterByFormula", filter)
	}

	page, err := c.list(ctx, collection, params)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// Insert writes one row to a collection and returns it with the assigned
// identifier.
func (c *Client) Insert(ctx context.Context, collection string, fields map[string]any) (Row, error) {
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return Row{}, fmt.Errorf("marshaling row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.collectionURL(collection), bytes.NewReader(body))
	if err != nil {
		return Row{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return Row{}, fmt.Errorf("inserting into %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Row{}, newError("insert "+collection, resp)
	}

	var row Row
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return Row{}, fmt.Errorf("decoding inserted row: %w", err)
	}
	return row, nil
}

// DeleteOlderThan removes every row whose date field is strictly before the
// threshold day and returns the count deleted. Matching rows are collected
// through exhaustive pagination, then deleted in batches of at most ten
// identifiers per call.
func (c *Client) DeleteOlderThan(ctx context.Context, collection, dateField string, threshold time.Time) (int, error) {
	ids, err := c.listAllIDs(ctx, collection, IsBefore(dateField, threshold))
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		if err := c.deleteBatch(ctx, collection, ids[start:end]); err != nil {
			return deleted, err
		}
		deleted += end - start
	}
	return deleted, nil
}

// listPage is one page of a collection listing. Offset is the opaque
// continuation token; empty means the listing is complete.
type listPage struct {
	Records []Row  `json:"records"`
	Offset  string `json:"offset"`
}

func (c *Client) list(ctx context.Context, collection string, params url.Values) (listPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.collectionURL(collection)+"?"+params.Encode(), nil)
	if err != nil {
		return listPage{}, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return listPage{}, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return listPage{}, newError("list "+collection, resp)
	}

	var page listPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return listPage{}, fmt.Errorf("decoding %s page: %w", collection, err)
	}
	return page, nil
}

func (c *Client) listAllIDs(ctx context.Context, collection, filter string) ([]string, error) {
	var ids []string
	offset := ""
	for {
		params := url.Values{}
		params.Set("pageSize", fmt.Sprintf("%d", listPageSize))
		if filter != "" {
			params.Set("filterByFormula", filter)
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		page, err := c.list(ctx, collection, params)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			ids = append(ids, r.ID)
		}
		if page.Offset == "" {
			return ids, nil
		}
		offset = page.Offset
	}
}

func (c *Client) deleteBatch(ctx context.Context, collection string, ids []string) error {
	params := url.Values{}
	for _, id := range ids {
		params.Add("records[]", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.collectionURL(collection)+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newError("delete "+collection, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) collectionURL(collection string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(collection))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func newError(op string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &Error{
		Status: resp.StatusCode,
		Op:     op,
		Body:   strings.TrimSpace(string(body)),
	}
}
