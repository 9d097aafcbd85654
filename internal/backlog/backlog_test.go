// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backlog

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

func TestSummariesFromRows(t *testing.T) {
	rows := []store.Row{
		{ID: "rec1", Fields: map[string]any{
			"title":           "Interior Wall Paint Trends 2024",
			"target_audience": "homeowners",
			"linked_products": "Wall Paint",
			"status":          "published",
		}},
		{ID: "rec2", Fields: map[string]any{"status": "draft"}}, // no title
		{ID: "rec3", Fields: map[string]any{
			"title": "Protecting Garden Furniture Through Winter",
		}},
	}

	got := SummariesFromRows(rows)
	want := []types.BacklogSummary{
		{Title: "Interior Wall Paint Trends 2024", TargetAudience: "homeowners", LinkedSegments: "Wall Paint"},
		{Title: "Protecting Garden Furniture Through Winter"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SummariesFromRows() = %v, want %v", got, want)
	}
}

type fakeInserter struct {
	collection string
	fields     map[string]any
	err        error
}

func (f *fakeInserter) Insert(_ context.Context, collection string, fields map[string]any) (store.Row, error) {
	f.collection = collection
	f.fields = fields
	if f.err != nil {
		return store.Row{}, f.err
	}
	return store.Row{ID: "recNEW", Fields: fields}, nil
}

func testDraft() types.ArticleDraft {
	return types.ArticleDraft{
		Title:          "Preparing Walls for a Fresh Coat",
		TargetAudience: "first-time renovators",
		LinkedSegments: "Wall Paint",
		Content:        "Start by washing the walls...",
	}
}

func TestPublish(t *testing.T) {
	ins := &fakeInserter{}
	now := time.Date(2026, 3, 14, 16, 42, 0, 0, time.UTC)

	item, err := Publish(context.Background(), ins, testDraft(), now)
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "recNEW" {
		t.Errorf("id = %q", item.ID)
	}
	if item.Status != types.StatusDraft {
		t.Errorf("status = %q, want draft", item.Status)
	}
	if item.Created.Format("2006-01-02") != "2026-03-14" {
		t.Errorf("created = %v", item.Created)
	}

	if ins.collection != Collection {
		t.Errorf("collection = %q", ins.collection)
	}
	wantFields := map[string]any{
		"title":           "Preparing Walls for a Fresh Coat",
		"status":          "draft",
		"target_audience": "first-time renovators",
		"linked_products": "Wall Paint",
		"created":         "2026-03-14",
		"content":         "Start by washing the walls...",
	}
	if !reflect.DeepEqual(ins.fields, wantFields) {
		t.Errorf("fields = %v, want %v", ins.fields, wantFields)
	}
}

func TestPublishUsesLocalDateNearMidnight(t *testing.T) {
	ins := &fakeInserter{}
	// 00:30 in UTC+2 is still the previous day in UTC; the persisted date
	// must follow the local calendar.
	now := time.Date(2026, 9, 1, 0, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

	item, err := Publish(context.Background(), ins, testDraft(), now)
	if err != nil {
		t.Fatal(err)
	}
	if ins.fields["created"] != "2026-09-01" {
		t.Errorf("created = %v, want 2026-09-01", ins.fields["created"])
	}
	if item.Created.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("item created = %v", item.Created)
	}
}

func TestPublishKeepsDraftOnStoreFailure(t *testing.T) {
	ins := &fakeInserter{err: &store.Error{Status: 503, Op: "insert content_backlog"}}

	_, err := Publish(context.Background(), ins, testDraft(), time.Now())
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("err = %v, want *backlog.PublishError", err)
	}
	if pubErr.Draft.Title != "Preparing Walls for a Fresh Coat" {
		t.Error("error does not carry the finished draft")
	}
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Error("store error not wrapped")
	}
}
