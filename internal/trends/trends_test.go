// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trends

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

func TestSignalsFromRows(t *testing.T) {
	rows := []store.Row{
		{ID: "rec1", Fields: map[string]any{
			"keyword":  "bathroom paint mold",
			"score":    87.5,
			"platform": "Google Trends",
			"date":     "2026-02-20",
		}},
		{ID: "rec2", Fields: map[string]any{"score": 12.0}}, // no keyword
		{ID: "rec3", Fields: map[string]any{
			"keyword": "chalk paint furniture",
			"score":   "not-a-number",
			"date":    "yesterday",
		}},
	}

	signals := SignalsFromRows(rows)
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(signals))
	}

	first := signals[0]
	if first.Keyword != "bathroom paint mold" || first.Score != 87.5 || first.Platform != "Google Trends" {
		t.Errorf("first signal = %+v", first)
	}
	if first.Date.Format("2006-01-02") != "2026-02-20" {
		t.Errorf("date = %v", first.Date)
	}

	// Malformed score and date decode to zero values.
	second := signals[1]
	if second.Keyword != "chalk paint furniture" || second.Score != 0 || !second.Date.IsZero() {
		t.Errorf("second signal = %+v", second)
	}
}

type fakeDeleter struct {
	collection string
	dateField  string
	threshold  time.Time
	deleted    int
}

func (f *fakeDeleter) DeleteOlderThan(_ context.Context, collection, dateField string, threshold time.Time) (int, error) {
	f.collection = collection
	f.dateField = dateField
	f.threshold = threshold
	return f.deleted, nil
}

func TestPruneDefaults(t *testing.T) {
	del := &fakeDeleter{deleted: 7}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	n, err := Prune(context.Background(), del, types.TrendsConfig{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("deleted = %d, want 7", n)
	}
	if del.collection != DefaultCollection {
		t.Errorf("collection = %q", del.collection)
	}
	if del.dateField != "date" {
		t.Errorf("date field = %q", del.dateField)
	}
	if want := now.Add(-DefaultRetention); !del.threshold.Equal(want) {
		t.Errorf("threshold = %v, want %v", del.threshold, want)
	}
}

func TestPruneHonorsConfig(t *testing.T) {
	del := &fakeDeleter{}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cfg := types.TrendsConfig{Collection: "signals_eu", Retention: 48 * time.Hour}

	if _, err := Prune(context.Background(), del, cfg, now); err != nil {
		t.Fatal(err)
	}
	if del.collection != "signals_eu" {
		t.Errorf("collection = %q", del.collection)
	}
	if want := now.Add(-48 * time.Hour); !del.threshold.Equal(want) {
		t.Errorf("threshold = %v, want %v", del.threshold, want)
	}
}
