// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topic chooses which catalog segments an article should cover and
// which keywords drive reference retrieval. Novelty against the published
// backlog is both instructed to the model and enforced afterwards with a
// deterministic overlap check.
package topic

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

const (
	minSegments = 1
	maxSegments = 3
	minKeywords = 3
	maxKeywords = 5
)

// Error is a fatal selection failure: malformed structured output, an
// out-of-bounds selection, or a selection that cannot satisfy the novelty
// constraint.
type Error struct {
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("selection: %v", e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

// Selection is the validated selector output.
type Selection struct {
	// Segments are 1–3 catalog segment names, each drawn from the
	// available set.
	Segments []string

	// Keywords are 3–5 search phrases driving reference retrieval, none
	// overlapping a published backlog topic.
	Keywords []string
}

// selectionPromptTmpl instructs the model to pick segments and keywords
// under the hard novelty constraint. Violations from a rejected previous
// attempt are named explicitly on retry.
var selectionPromptTmpl = template.Must(template.New("selection").Parse(`A content writer received this request: "{{.Brief}}"

Available product lines:
{{.Segments}}

Recently published backlog items (title, audience, linked lines):
{{.Backlog}}

UNDER NO CIRCUMSTANCES may the chosen topic or keywords repeat any topic
already present in the backlog above.

Current trend signals for the target market:
{{.Trends}}
{{if .Violations}}
Your previous attempt repeated published topics through these keywords:
{{.Violations}}
Choose different keywords that avoid those topics entirely.
{{end}}
1) Select 1-3 product lines that fit this request
2) List 3-5 search keywords for finding related customer questions

Respond with a JSON object only:
{"selected_product_lines": ["line1","line2"], "faq_keywords": ["keyword1","keyword2","keyword3"]}
`))

type promptData struct {
	Brief      string
	Segments   string
	Backlog    string
	Trends     string
	Violations string
}

// Select asks the generation service for a segment/keyword selection and
// validates it. If the deterministic novelty check rejects keywords, one
// corrective attempt names the violations; keywords still violating after
// that are dropped. A selection left with fewer than three keywords fails.
func Select(ctx context.Context, backend genai.Backend, brief types.Brief, available []string, backlog []types.BacklogSummary, trends []types.TrendSignal, maxRetries int) (Selection, error) {
	data := promptData{
		Brief:    brief.Text,
		Segments: mustJSON(available),
		Backlog:  mustJSON(backlog),
		Trends:   mustJSON(trends),
	}

	sel, err := selectOnce(ctx, backend, data, available, maxRetries)
	if err != nil {
		return Selection{}, err
	}

	violations := noveltyViolations(sel.Keywords, backlog)
	if len(violations) == 0 {
		return sel, nil
	}

	// One corrective attempt with the violations named.
	data.Violations = strings.Join(violations, ", ")
	retried, err := selectOnce(ctx, backend, data, available, maxRetries)
	if err != nil {
		return Selection{}, err
	}

	kept := retried.Keywords[:0]
	violating := map[string]bool{}
	for _, v := range noveltyViolations(retried.Keywords, backlog) {
		violating[v] = true
	}
	for _, kw := range retried.Keywords {
		if !violating[kw] {
			kept = append(kept, kw)
		}
	}
	if len(kept) < minKeywords {
		return Selection{}, &Error{Cause: fmt.Errorf("only %d keywords survive the novelty check, need %d", len(kept), minKeywords)}
	}
	retried.Keywords = kept
	return retried, nil
}

func selectOnce(ctx context.Context, backend genai.Backend, data promptData, available []string, maxRetries int) (Selection, error) {
	var buf bytes.Buffer
	if err := selectionPromptTmpl.Execute(&buf, data); err != nil {
		return Selection{}, fmt.Errorf("rendering selection prompt: %w", err)
	}

	raw, err := genai.CallWithRetry(ctx, backend, buf.String(), maxRetries)
	if err != nil {
		return Selection{}, &Error{Cause: err}
	}

	var resp struct {
		SelectedProductLines []string `json:"selected_product_lines"`
		FAQKeywords          []string `json:"faq_keywords"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Selection{}, &Error{Cause: fmt.Errorf("parsing selection: %w", err)}
	}

	sel := Selection{Segments: resp.SelectedProductLines, Keywords: resp.FAQKeywords}
	if err := validate(sel, available); err != nil {
		return Selection{}, &Error{Cause: err}
	}
	return sel, nil
}

func validate(sel Selection, available []string) error {
	if n := len(sel.Segments); n < minSegments || n > maxSegments {
		return fmt.Errorf("%d segments selected, want %d-%d", n, minSegments, maxSegments)
	}
	known := make(map[string]bool, len(available))
	for _, s := range available {
		known[s] = true
	}
	for _, s := range sel.Segments {
		if !known[s] {
			return fmt.Errorf("selected segment %q is not in the catalog", s)
		}
	}

	if n := len(sel.Keywords); n < minKeywords || n > maxKeywords {
		return fmt.Errorf("%d keywords selected, want %d-%d", n, minKeywords, maxKeywords)
	}
	for _, kw := range sel.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("empty keyword in selection")
		}
	}
	return nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
