// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testClient(ts *httptest.Server) *Client {
	c := NewClient(types.StoreConfig{
		BaseURL: ts.URL,
		BaseID:  "appTestBase",
		APIKey:  "pat_test",
	})
	c.httpClient = ts.Client()
	return c
}

func writePage(w http.ResponseWriter, rows []Row, offset string) {
	page := listPage{Records: rows, Offset: offset}
	json.NewEncoder(w).Encode(page)
}

// --- formulas ---

func TestOrEquals(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		values []string
		want   string
	}{
		{"empty", "line", nil, ""},
		{"single", "line", []string{"Wood Care"}, `{line}="Wood Care"`},
		{"multiple", "line", []string{"A", "B"}, `OR({line}="A",{line}="B")`},
		{"escapes quotes", "line", []string{`5" brush`}, `{line}="5\" brush"`},
		{"escapes backslashes", "line", []string{`wood\metal`}, `{line}="wood\\metal"`},
		{"quote and backslash", "line", []string{`5" wood\metal`}, `{line}="5\" wood\\metal"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrEquals(tt.field, tt.values); got != tt.want {
				t.Errorf("OrEquals() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsBefore(t *testing.T) {
	day := time.Date(2026, 8, 22, 14, 30, 0, 0, time.UTC)
	want := "IS_BEFORE({date}, '2026-08-22')"
	if got := IsBefore("date", day); got != want {
		t.Errorf("IsBefore() = %q, want %q", got, want)
	}
}

// --- Fetch ---

func TestFetchSendsBoundAndFilter(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"maxRecords":      r.URL.Query().Get("maxRecords"),
			"filterByFormula": r.URL.Query().Get("filterByFormula"),
		}
		if r.URL.Path != "/appTestBase/products" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pat_test" {
			t.Errorf("Authorization = %q", got)
		}
		writePage(w, []Row{
			{ID: "rec1", Fields: map[string]any{"line": "Wood Care"}},
			{ID: "rec2", Fields: map[string]any{"line": "Wall Paint"}},
		}, "")
	}))
	defer ts.Close()

	rows, err := testClient(ts).Fetch(context.Background(), "products", `{line}="Wood Care"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if gotQuery["maxRecords"] != "50" {
		t.Errorf("maxRecords = %q, want 50", gotQuery["maxRecords"])
	}
	if gotQuery["filterByFormula"] != `{line}="Wood Care"` {
		t.Errorf("filterByFormula = %q", gotQuery["filterByFormula"])
	}
	if rows[0].ID != "rec1" || rows[0].Fields["line"] != "Wood Care" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
}

func TestFetchSurfacesStoreError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"INVALID_FILTER_BY_FORMULA"}`, http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	_, err := testClient(ts).Fetch(context.Background(), "products", "BOGUS(")
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want *store.Error", err)
	}
	if storeErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", storeErr.Status)
	}
	if !strings.Contains(storeErr.Error(), "INVALID_FILTER_BY_FORMULA") {
		t.Errorf("Error() = %q, should carry response body", storeErr.Error())
	}
}

func TestFetchRetriesRateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writePage(w, []Row{{ID: "rec1", Fields: map[string]any{}}}, "")
	}))
	defer ts.Close()

	rows, err := testClient(ts).Fetch(context.Background(), "trends", "")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

// --- Insert ---

func TestInsertReturnsAssignedID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Fields["title"] != "Spring Renovation Checklist" {
			t.Errorf("fields = %+v", body.Fields)
		}
		json.NewEncoder(w).Encode(Row{ID: "recNew", Fields: body.Fields})
	}))
	defer ts.Close()

	row, err := testClient(ts).Insert(context.Background(), "content_backlog", map[string]any{
		"title":  "Spring Renovation Checklist",
		"status": "draft",
	})
	if err != nil {
		t.Fatal(err)
	}
	if row.ID != "recNew" {
		t.Errorf("ID = %q, want recNew", row.ID)
	}
}

func TestInsertSurfacesStoreError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := testClient(ts).Insert(context.Background(), "content_backlog", map[string]any{"title": "x"})
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want *store.Error", err)
	}
	if storeErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", storeErr.Status)
	}
}

// --- DeleteOlderThan ---

// fakeSignalTable emulates the trend_signals collection: list requests
// return rows matching the date filter, delete requests drop them.
type fakeSignalTable struct {
	rows        map[string]time.Time
	deleteCalls [][]string
}

func (f *fakeSignalTable) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// Parse the date out of IS_BEFORE({date}, 'YYYY-MM-DD').
			formula := r.URL.Query().Get("filterByFormula")
			start := strings.Index(formula, "'")
			end := strings.LastIndex(formula, "'")
			if start < 0 || end <= start {
				t.Fatalf("unexpected formula %q", formula)
			}
			threshold, err := time.Parse("2006-01-02", formula[start+1:end])
			if err != nil {
				t.Fatalf("unexpected formula %q: %v", formula, err)
			}

			var matched []Row
			for id, date := range f.rows {
				if date.Before(threshold) {
					matched = append(matched, Row{ID: id, Fields: map[string]any{}})
				}
			}
			writePage(w, matched, "")
		case http.MethodDelete:
			ids := r.URL.Query()["records[]"]
			if len(ids) > 10 {
				t.Errorf("delete batch of %d exceeds limit", len(ids))
			}
			f.deleteCalls = append(f.deleteCalls, ids)
			for _, id := range ids {
				delete(f.rows, id)
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}
}

func TestDeleteOlderThan(t *testing.T) {
	// 15 rows aged 1..15 days; a 10-day threshold matches exactly the
	// 5 rows older than 10 days, deleted in a single batch.
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	table := &fakeSignalTable{rows: map[string]time.Time{}}
	for i := 1; i <= 15; i++ {
		table.rows[fmt.Sprintf("rec%02d", i)] = now.AddDate(0, 0, -i)
	}

	ts := httptest.NewServer(table.handler(t))
	defer ts.Close()

	threshold := now.AddDate(0, 0, -10)
	deleted, err := testClient(ts).DeleteOlderThan(context.Background(), "trend_signals", "date", threshold)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}
	if len(table.deleteCalls) != 1 {
		t.Errorf("delete calls = %d, want 1", len(table.deleteCalls))
	}
	if len(table.rows) != 10 {
		t.Errorf("remaining rows = %d, want 10", len(table.rows))
	}
}

func TestDeleteOlderThanBatches(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	table := &fakeSignalTable{rows: map[string]time.Time{}}
	for i := 0; i < 23; i++ {
		table.rows[fmt.Sprintf("rec%02d", i)] = now.AddDate(0, 0, -30)
	}

	ts := httptest.NewServer(table.handler(t))
	defer ts.Close()

	deleted, err := testClient(ts).DeleteOlderThan(context.Background(), "trend_signals", "date", now.AddDate(0, 0, -10))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 23 {
		t.Errorf("deleted = %d, want 23", deleted)
	}
	// ceil(23/10) = 3 batch calls.
	if len(table.deleteCalls) != 3 {
		t.Errorf("delete calls = %d, want 3", len(table.deleteCalls))
	}
	if len(table.rows) != 0 {
		t.Errorf("remaining rows = %d, want 0", len(table.rows))
	}
}

func TestDeleteOlderThanNothingMatches(t *testing.T) {
	table := &fakeSignalTable{rows: map[string]time.Time{}}
	ts := httptest.NewServer(table.handler(t))
	defer ts.Close()

	deleted, err := testClient(ts).DeleteOlderThan(context.Background(), "trend_signals", "date", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if len(table.deleteCalls) != 0 {
		t.Errorf("delete calls = %d, want 0", len(table.deleteCalls))
	}
}
