// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one article generation run: plan the data
// needs, gather catalog and trend inputs, select segments and keywords,
// retrieve reference Q&A by embedding similarity, synthesize the draft, and
// persist it to the backlog. Stages run strictly in sequence; each stage's
// input depends on the previous stage's output.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/backlog"
	"github.com/pdiddy/content-engine/internal/compose"
	"github.com/pdiddy/content-engine/internal/genai"
	"github.com/pdiddy/content-engine/internal/plan"
	"github.com/pdiddy/content-engine/internal/rank"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/internal/topic"
	"github.com/pdiddy/content-engine/internal/trends"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	catalogCollection   = "products"
	referenceCollection = "faq_queries"

	// segmentField is the catalog column naming a row's product line.
	segmentField = "line"

	defaultTopK = 5
)

// Store is the slice of the store client the pipeline reads and writes
// through.
type Store interface {
	Fetch(ctx context.Context, collection, filter string) ([]store.Row, error)
	Insert(ctx context.Context, collection string, fields map[string]any) (store.Row, error)
}

// Journal receives run lifecycle events. A nil Journal disables journaling.
type Journal interface {
	Begin(ctx context.Context, brief types.Brief) (int64, error)
	Advance(ctx context.Context, runID int64, stage types.RunStage) error
	Fail(ctx context.Context, runID int64, cause error) error
	SetTitle(ctx context.Context, runID int64, title string) error
}

// timeNow is swapped in tests that assert on the persisted date.
var timeNow = time.Now

// Pipeline wires the collaborators for article generation runs.
type Pipeline struct {
	store    Store
	backend  genai.Backend
	embedder rank.Embedder
	journal  Journal
	style    compose.StyleSpec

	trendsCfg  types.TrendsConfig
	topK       int
	maxRetries int
}

// Options tunes a Pipeline beyond its required collaborators.
type Options struct {
	// Journal records run stage transitions; nil disables it.
	Journal Journal

	// Style overrides the default editorial specification.
	Style *compose.StyleSpec

	// Trends names the trend signal collection.
	Trends types.TrendsConfig

	// TopK is the number of reference records to retrieve (default 5).
	TopK int

	// MaxRetries bounds generation-call retries per stage (default 3).
	MaxRetries int
}

// New builds a pipeline from its three external collaborators.
func New(st Store, backend genai.Backend, embedder rank.Embedder, opts Options) *Pipeline {
	style := compose.DefaultStyle
	if opts.Style != nil {
		style = *opts.Style
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Pipeline{
		store:      st,
		backend:    backend,
		embedder:   embedder,
		journal:    opts.Journal,
		style:      style,
		trendsCfg:  opts.Trends,
		topK:       topK,
		maxRetries: opts.MaxRetries,
	}
}

// Run executes one full generation run for the brief and returns the
// persisted backlog item. Progress lines are written to w as stages
// complete. If persistence fails after a successful synthesis, the
// returned error is a *backlog.PublishError carrying the finished draft.
func (p *Pipeline) Run(ctx context.Context, brief types.Brief, w io.Writer) (types.BacklogItem, error) {
	runID, err := p.beginJournal(ctx, brief)
	if err != nil {
		return types.BacklogItem{}, err
	}

	item, err := p.run(ctx, runID, brief, w)
	if err != nil {
		p.failJournal(ctx, runID, err)
		return types.BacklogItem{}, err
	}
	return item, nil
}

func (p *Pipeline) run(ctx context.Context, runID int64, brief types.Brief, w io.Writer) (types.BacklogItem, error) {
	// Planning.
	decision, err := plan.Decide(ctx, p.backend, brief, p.maxRetries)
	if err != nil {
		return types.BacklogItem{}, err
	}
	fmt.Fprintf(w, "plan: catalog=%v trends=%v\n", decision.NeedsCatalog, decision.NeedsTrends)

	// Data gathering. The backlog summary and segment names are always
	// needed; trend signals only when the planner asked for them.
	p.advanceJournal(ctx, runID, types.StageDataGathering)

	var signals []types.TrendSignal
	if decision.NeedsTrends {
		collection := p.trendsCfg.Collection
		if collection == "" {
			collection = trends.DefaultCollection
		}
		rows, err := p.store.Fetch(ctx, collection, "")
		if err != nil {
			return types.BacklogItem{}, fmt.Errorf("fetching trend signals: %w", err)
		}
		signals = trends.SignalsFromRows(rows)
		fmt.Fprintf(w, "gathered %d trend signals\n", len(signals))
	}

	backlogRows, err := p.store.Fetch(ctx, backlog.Collection, "")
	if err != nil {
		return types.BacklogItem{}, fmt.Errorf("fetching backlog: %w", err)
	}
	summaries := backlog.SummariesFromRows(backlogRows)

	segments, err := p.fetchSegmentNames(ctx)
	if err != nil {
		return types.BacklogItem{}, err
	}
	fmt.Fprintf(w, "gathered %d backlog items, %d catalog segments\n", len(summaries), len(segments))

	// Selection.
	p.advanceJournal(ctx, runID, types.StageSelection)
	selection, err := topic.Select(ctx, p.backend, brief, segments, summaries, signals, p.maxRetries)
	if err != nil {
		return types.BacklogItem{}, err
	}
	fmt.Fprintf(w, "selected segments %v, keywords %v\n", selection.Segments, selection.Keywords)

	var catalog []types.CatalogRecord
	if decision.NeedsCatalog {
		catalog, err = p.fetchCatalogRows(ctx, selection.Segments)
		if err != nil {
			return types.BacklogItem{}, err
		}
		fmt.Fprintf(w, "fetched %d catalog rows\n", len(catalog))
	}

	// Retrieval.
	p.advanceJournal(ctx, runID, types.StageRetrieval)
	references, err := p.retrieve(ctx, selection.Keywords, w)
	if err != nil {
		return types.BacklogItem{}, err
	}

	// Synthesis.
	p.advanceJournal(ctx, runID, types.StageSynthesis)
	draft, err := compose.Synthesize(ctx, p.backend, compose.Inputs{
		Brief:      brief,
		Catalog:    catalog,
		Trends:     signals,
		References: references,
		Backlog:    summaries,
	}, p.style, p.maxRetries)
	if err != nil {
		return types.BacklogItem{}, err
	}
	fmt.Fprintf(w, "synthesized draft %q\n", draft.Title)
	p.setTitleJournal(ctx, runID, draft.Title)

	// Persistence.
	item, err := backlog.Publish(ctx, p.store, draft, timeNow())
	if err != nil {
		return types.BacklogItem{}, err
	}
	p.advanceJournal(ctx, runID, types.StagePersisted)
	fmt.Fprintf(w, "persisted backlog item %s\n", item.ID)
	return item, nil
}

// fetchSegmentNames lists the distinct product lines present in the
// catalog, preserving first-seen order.
func (p *Pipeline) fetchSegmentNames(ctx context.Context) ([]string, error) {
	rows, err := p.store.Fetch(ctx, catalogCollection, "")
	if err != nil {
		return nil, fmt.Errorf("fetching catalog segments: %w", err)
	}

	seen := map[string]bool{}
	var segments []string
	for _, row := range rows {
		line, _ := row.Fields[segmentField].(string)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		segments = append(segments, line)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("catalog has no named segments")
	}
	return segments, nil
}

func (p *Pipeline) fetchCatalogRows(ctx context.Context, segments []string) ([]types.CatalogRecord, error) {
	rows, err := p.store.Fetch(ctx, catalogCollection, store.OrEquals(segmentField, segments))
	if err != nil {
		return nil, fmt.Errorf("fetching catalog rows: %w", err)
	}

	records := make([]types.CatalogRecord, 0, len(rows))
	for _, row := range rows {
		line, _ := row.Fields[segmentField].(string)
		records = append(records, types.CatalogRecord{Segment: line, Fields: row.Fields})
	}
	return records, nil
}

// retrieve embeds the joined keywords and ranks the reference corpus by
// cosine similarity. An embedding failure or a corpus with no usable
// embeddings degrades silently to an empty reference set; a failed store
// read is a hard error and aborts the run.
func (p *Pipeline) retrieve(ctx context.Context, keywords []string, w io.Writer) ([]types.ReferenceRecord, error) {
	query, err := p.embedder.Embed(ctx, strings.Join(keywords, " "))
	if err != nil {
		fmt.Fprintf(w, "retrieval degraded: %v\n", err)
		return nil, nil
	}

	rows, err := p.store.Fetch(ctx, referenceCollection, "")
	if err != nil {
		return nil, fmt.Errorf("fetching reference records: %w", err)
	}

	var candidates []types.ReferenceRecord
	for _, row := range rows {
		if rec, ok := rank.DecodeReference(row.Fields); ok {
			candidates = append(candidates, rec)
		}
	}

	references := rank.TopK(query, candidates, p.topK)
	fmt.Fprintf(w, "retrieved %d of %d reference records\n", len(references), len(candidates))
	return references, nil
}

func (p *Pipeline) beginJournal(ctx context.Context, brief types.Brief) (int64, error) {
	if p.journal == nil {
		return 0, nil
	}
	id, err := p.journal.Begin(ctx, brief)
	if err != nil {
		return 0, fmt.Errorf("starting run journal: %w", err)
	}
	return id, nil
}

func (p *Pipeline) advanceJournal(ctx context.Context, runID int64, stage types.RunStage) {
	if p.journal != nil {
		p.journal.Advance(ctx, runID, stage)
	}
}

func (p *Pipeline) failJournal(ctx context.Context, runID int64, cause error) {
	if p.journal != nil {
		p.journal.Fail(ctx, runID, cause)
	}
}

func (p *Pipeline) setTitleJournal(ctx context.Context, runID int64, title string) {
	if p.journal != nil {
		p.journal.SetTitle(ctx, runID, title)
	}
}
