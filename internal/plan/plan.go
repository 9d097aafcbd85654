// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan decides, from the brief alone, which optional data sources
// the rest of the pipeline needs to gather.
package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/content-engine/internal/genai"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Error is a fatal planning failure: the generation service returned
// output that does not parse into the expected two-field decision. The run
// aborts rather than guessing at data needs.
type Error struct {
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("planning: %v", e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

// Plan records which optional data sources the brief requires.
type Plan struct {
	NeedsCatalog bool
	NeedsTrends  bool
}

// planPromptTmpl asks the model for a two-field boolean decision. The field
// names match the JSON keys the response must carry.
var planPromptTmpl = template.Must(template.New("plan").Parse(`A content writer received this request: "{{.Brief}}"

Two optional data sources are available before writing:
- products: the product catalog (lines, descriptions, variants)
- trends: current search-trend signals for the target market

Decide which sources the request needs. Respond with a JSON object only:
{"products_needed": true/false, "trends_needed": true/false}
`))

// Decide makes one generation call and parses the decision. A response
// missing either field is a *plan.Error.
func Decide(ctx context.Context, backend genai.Backend, brief types.Brief, maxRetries int) (Plan, error) {
	var buf bytes.Buffer
	if err := planPromptTmpl.Execute(&buf, struct{ Brief string }{Brief: brief.Text}); err != nil {
		return Plan{}, fmt.Errorf("rendering plan prompt: %w", err)
	}

	raw, err := genai.CallWithRetry(ctx, backend, buf.String(), maxRetries)
	if err != nil {
		return Plan{}, &Error{Cause: err}
	}

	// Pointer fields distinguish "false" from "absent".
	var resp struct {
		ProductsNeeded *bool `json:"products_needed"`
		TrendsNeeded   *bool `json:"trends_needed"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Plan{}, &Error{Cause: fmt.Errorf("parsing decision: %w", err)}
	}
	if resp.ProductsNeeded == nil || resp.TrendsNeeded == nil {
		return Plan{}, &Error{Cause: fmt.Errorf("decision missing required fields: %s", raw)}
	}

	return Plan{
		NeedsCatalog: *resp.ProductsNeeded,
		NeedsTrends:  *resp.TrendsNeeded,
	}, nil
}
