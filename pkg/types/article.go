// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BacklogStatus tracks the lifecycle of a backlog entry.
type BacklogStatus string

const (
	StatusDraft     BacklogStatus = "draft"
	StatusReview    BacklogStatus = "review"
	StatusPublished BacklogStatus = "published"
)

// Brief is the fixed natural-language content request driving one pipeline
// run. It is created once per run and never mutated.
type Brief struct {
	// Text is the free-form instruction describing what to write.
	Text string `json:"text" yaml:"text"`

	// Locale is the target market locale (e.g. "pl-PL").
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`

	// Audience describes the intended readership, if the caller knows it.
	Audience string `json:"audience,omitempty" yaml:"audience,omitempty"`
}

// CatalogRecord is a full product row from the catalog store. Attributes
// beyond the segment name are opaque and defined by the store's schema.
type CatalogRecord struct {
	// Segment is the product line the record belongs to.
	Segment string `json:"segment" yaml:"segment"`

	// Fields holds the remaining store-defined attributes
	// (description, colorways, update date, ...).
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// TrendSignal is one observed search-trend data point. Read-only input to
// synthesis; this module never produces trend signals.
type TrendSignal struct {
	// Keyword is the trending search phrase.
	Keyword string `json:"keyword" yaml:"keyword"`

	// Score is the normalized trend strength.
	Score float64 `json:"score" yaml:"score"`

	// Platform identifies the signal source (e.g. "Google Trends").
	Platform string `json:"platform" yaml:"platform"`

	// Date is the day the signal was collected.
	Date time.Time `json:"date" yaml:"date"`
}

// BacklogSummary is the projection of a previously synthesized article used
// for novelty checking. Full article bodies are never re-read.
type BacklogSummary struct {
	Title          string `json:"title" yaml:"title"`
	TargetAudience string `json:"target_audience" yaml:"target_audience"`
	LinkedSegments string `json:"linked_segments" yaml:"linked_segments"`
}

// ReferenceRecord is a stored question/answer pair with a precomputed
// embedding, retrieved by semantic similarity during the retrieval stage.
type ReferenceRecord struct {
	// Question is the user-facing question text.
	Question string `json:"question" yaml:"question"`

	// Answer is the approved answer text.
	Answer string `json:"answer" yaml:"answer"`

	// Embedding is the precomputed vector for the pair. Records whose
	// dimensionality differs from the query embedding are skipped.
	Embedding []float64 `json:"-" yaml:"-"`
}

// ArticleDraft is the structured output of one pipeline run, prior to any
// human review.
type ArticleDraft struct {
	// Title is the article headline, at most ten words.
	Title string `json:"title" yaml:"title"`

	// TargetAudience describes who the article is written for.
	TargetAudience string `json:"target_audience" yaml:"target_audience"`

	// LinkedSegments is the comma-joined list of product lines the
	// article references.
	LinkedSegments string `json:"linked_segments" yaml:"linked_segments"`

	// Content is the full article body.
	Content string `json:"content" yaml:"content"`
}

// BacklogItem is a persisted ArticleDraft as stored in the backlog.
type BacklogItem struct {
	// ID is the store-assigned row identifier.
	ID string `json:"id" yaml:"id"`

	ArticleDraft `yaml:",inline"`

	// Status is the lifecycle state; new items are always drafts.
	Status BacklogStatus `json:"status" yaml:"status"`

	// Created is the day the draft was persisted.
	Created time.Time `json:"created" yaml:"created"`
}
