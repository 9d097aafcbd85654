// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose synthesizes the article draft from everything the
// earlier stages gathered: catalog rows, trend signals, retrieved
// reference Q&A, and the backlog summaries the draft must not repeat.
package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/internal/genai"
	"github.com/pdiddy/content-engine/pkg/types"
)

// maxTitleWords bounds the draft headline length.
const maxTitleWords = 10

// Error is a fatal synthesis failure: the generation service returned
// output that does not parse into the four-field draft shape.
type Error struct {
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("synthesis: %v", e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

// Inputs collects everything the synthesis prompt embeds.
type Inputs struct {
	Brief      types.Brief
	Catalog    []types.CatalogRecord
	Trends     []types.TrendSignal
	References []types.ReferenceRecord
	Backlog    []types.BacklogSummary
}

var draftPromptTmpl = template.Must(template.New("draft").Parse(`You are writing a new article.

Request: "{{.Brief}}"

Use this data:
Products: {{.Catalog}}
Trends: {{.Trends}}
Customer questions and approved answers: {{.References}}

Follow these style rules:
{{.Style}}

UNDER NO CIRCUMSTANCES may the article repeat any topic already present in
the published backlog:
{{.Backlog}}

Respond with a JSON object only:
{
  "title": "Short clear title (max 10 words)",
  "target_audience": "Who it is for",
  "linked_products": "Comma-separated product line names",
  "content": "Full article text"
}
`))

// Synthesize makes one generation call and validates the resulting draft.
// Malformed output, missing fields, or an over-long title are a
// *compose.Error.
func Synthesize(ctx context.Context, backend genai.Backend, in Inputs, style StyleSpec, maxRetries int) (types.ArticleDraft, error) {
	var buf bytes.Buffer
	err := draftPromptTmpl.Execute(&buf, struct {
		Brief, Catalog, Trends, References, Style, Backlog string
	}{
		Brief:      in.Brief.Text,
		Catalog:    mustJSON(in.Catalog),
		Trends:     mustJSON(in.Trends),
		References: mustJSON(referenceView(in.References)),
		Style:      style.Rules,
		Backlog:    mustJSON(in.Backlog),
	})
	if err != nil {
		return types.ArticleDraft{}, fmt.Errorf("rendering draft prompt: %w", err)
	}

	raw, err := genai.CallWithRetry(ctx, backend, buf.String(), maxRetries)
	if err != nil {
		return types.ArticleDraft{}, &Error{Cause: err}
	}

	var resp struct {
		Title          string `json:"title"`
		TargetAudience string `json:"target_audience"`
		LinkedProducts string `json:"linked_products"`
		Content        string `json:"content"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.ArticleDraft{}, &Error{Cause: fmt.Errorf("parsing draft: %w", err)}
	}

	draft := types.ArticleDraft{
		Title:          strings.TrimSpace(resp.Title),
		TargetAudience: strings.TrimSpace(resp.TargetAudience),
		LinkedSegments: strings.TrimSpace(resp.LinkedProducts),
		Content:        strings.TrimSpace(resp.Content),
	}
	if err := validate(draft); err != nil {
		return types.ArticleDraft{}, &Error{Cause: err}
	}
	return draft, nil
}

func validate(draft types.ArticleDraft) error {
	switch {
	case draft.Title == "":
		return fmt.Errorf("draft missing title")
	case draft.TargetAudience == "":
		return fmt.Errorf("draft missing target audience")
	case draft.LinkedSegments == "":
		return fmt.Errorf("draft missing linked product lines")
	case draft.Content == "":
		return fmt.Errorf("draft missing content")
	}
	if n := len(strings.Fields(draft.Title)); n > maxTitleWords {
		return fmt.Errorf("title has %d words, limit is %d", n, maxTitleWords)
	}
	return nil
}

// referenceView strips embeddings before the records enter the prompt;
// the model needs the Q&A text, not the vectors.
func referenceView(refs []types.ReferenceRecord) []map[string]string {
	out := make([]map[string]string, len(refs))
	for i, r := range refs {
		out[i] = map[string]string{"question": r.Question, "answer": r.Answer}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
