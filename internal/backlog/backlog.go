// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backlog reads and writes the article backlog collection: the
// durable record of every draft the pipeline has produced. Summaries feed
// the novelty checks; Publish is the final persistence step of a run.
package backlog

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Collection is the backlog's collection name in the tabular store.
const Collection = "content_backlog"

const dateLayout = "2006-01-02"

// Inserter is the slice of the store client Publish needs.
type Inserter interface {
	Insert(ctx context.Context, collection string, fields map[string]any) (store.Row, error)
}

// PublishError is a synthesis-succeeded-but-persistence-failed outcome. It
// keeps the finished draft so callers can surface it instead of losing the
// run's work.
type PublishError struct {
	Draft types.ArticleDraft
	Cause error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %q: %v", e.Draft.Title, e.Cause)
}

func (e *PublishError) Unwrap() error { return e.Cause }

// SummariesFromRows projects backlog rows down to the fields the novelty
// checks use. Rows without a title are skipped; they cannot anchor an
// overlap check.
func SummariesFromRows(rows []store.Row) []types.BacklogSummary {
	summaries := make([]types.BacklogSummary, 0, len(rows))
	for _, row := range rows {
		title, _ := row.Fields["title"].(string)
		if title == "" {
			continue
		}
		audience, _ := row.Fields["target_audience"].(string)
		linked, _ := row.Fields["linked_products"].(string)
		summaries = append(summaries, types.BacklogSummary{
			Title:          title,
			TargetAudience: audience,
			LinkedSegments: linked,
		})
	}
	return summaries
}

// Publish writes the draft to the backlog with status "draft" and today's
// date, returning the stored item. A store failure is a *PublishError
// carrying the draft.
func Publish(ctx context.Context, ins Inserter, draft types.ArticleDraft, now time.Time) (types.BacklogItem, error) {
	// Midnight in now's own location; truncating against the UTC epoch
	// would shift the date for runs near local midnight.
	created := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	fields := map[string]any{
		"title":           draft.Title,
		"status":          string(types.StatusDraft),
		"target_audience": draft.TargetAudience,
		"linked_products": draft.LinkedSegments,
		"created":         now.Format(dateLayout),
		"content":         draft.Content,
	}

	row, err := ins.Insert(ctx, Collection, fields)
	if err != nil {
		return types.BacklogItem{}, &PublishError{Draft: draft, Cause: err}
	}

	return types.BacklogItem{
		ID:           row.ID,
		ArticleDraft: draft,
		Status:       types.StatusDraft,
		Created:      created,
	}, nil
}
