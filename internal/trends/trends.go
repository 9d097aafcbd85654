// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trends reads search-trend signals from the tabular store and
// prunes stale ones. Signals are produced by an external collector; this
// module only consumes and ages them out.
package trends

import (
	"context"
	"time"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

// DefaultCollection is the trend signal collection name in the store.
const DefaultCollection = "trend_signals"

// DefaultRetention is how long signals stay useful. Search interest moves
// fast; anything older says nothing about what readers want this week.
const DefaultRetention = 10 * 24 * time.Hour

const dateLayout = "2006-01-02"

// Deleter is the slice of the store client Prune needs.
type Deleter interface {
	DeleteOlderThan(ctx context.Context, collection, dateField string, threshold time.Time) (int, error)
}

// SignalsFromRows decodes trend signal rows. Rows without a keyword are
// skipped; malformed scores and dates decode to their zero values rather
// than failing the read.
func SignalsFromRows(rows []store.Row) []types.TrendSignal {
	signals := make([]types.TrendSignal, 0, len(rows))
	for _, row := range rows {
		keyword, _ := row.Fields["keyword"].(string)
		if keyword == "" {
			continue
		}
		signal := types.TrendSignal{Keyword: keyword}
		if score, ok := row.Fields["score"].(float64); ok {
			signal.Score = score
		}
		if platform, ok := row.Fields["platform"].(string); ok {
			signal.Platform = platform
		}
		if raw, ok := row.Fields["date"].(string); ok {
			if day, err := time.Parse(dateLayout, raw); err == nil {
				signal.Date = day
			}
		}
		signals = append(signals, signal)
	}
	return signals
}

// Prune deletes every signal older than the retention window and returns
// the count removed.
func Prune(ctx context.Context, del Deleter, cfg types.TrendsConfig, now time.Time) (int, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	threshold := now.Add(-retention)
	return del.DeleteOlderThan(ctx, collection, "date", threshold)
}
