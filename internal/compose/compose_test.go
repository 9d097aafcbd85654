// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/content-engine/pkg/types"
)

type stubBackend struct {
	response    string
	instruction string
}

func (s *stubBackend) Complete(_ context.Context, instruction string) ([]byte, error) {
	s.instruction = instruction
	return []byte(s.response), nil
}

func testInputs() Inputs {
	return Inputs{
		Brief: types.Brief{Text: "write a renovation article featuring wall paint"},
		Catalog: []types.CatalogRecord{
			{Segment: "Wall Paint", Fields: map[string]any{"description": "matte interior paint"}},
		},
		References: []types.ReferenceRecord{
			{Question: "Do I need primer?", Answer: "Yes, on fresh plaster.", Embedding: []float64{0.1}},
		},
		Backlog: []types.BacklogSummary{
			{Title: "Interior Wall Paint Trends 2024"},
		},
	}
}

const validResponse = `{
	"title": "Preparing Walls for a Fresh Coat",
	"target_audience": "first-time renovators",
	"linked_products": "Wall Paint",
	"content": "Start by washing the walls..."
}`

func TestSynthesize(t *testing.T) {
	b := &stubBackend{response: validResponse}
	draft, err := Synthesize(context.Background(), b, testInputs(), DefaultStyle, 1)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Title != "Preparing Walls for a Fresh Coat" {
		t.Errorf("title = %q", draft.Title)
	}
	if draft.TargetAudience != "first-time renovators" {
		t.Errorf("audience = %q", draft.TargetAudience)
	}
	if draft.LinkedSegments != "Wall Paint" {
		t.Errorf("linked = %q", draft.LinkedSegments)
	}
}

func TestSynthesizePromptEmbedsAllInputs(t *testing.T) {
	b := &stubBackend{response: validResponse}
	if _, err := Synthesize(context.Background(), b, testInputs(), DefaultStyle, 1); err != nil {
		t.Fatal(err)
	}

	for _, fragment := range []string{
		"matte interior paint",              // catalog
		"Do I need primer?",                 // reference question
		"Interior Wall Paint Trends 2024",   // backlog summary
		"UNDER NO CIRCUMSTANCES",            // novelty instruction
		"Lead with the reader's problem",    // style rules
	} {
		if !strings.Contains(b.instruction, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
	if strings.Contains(b.instruction, "0.1") && strings.Contains(b.instruction, "Embedding") {
		t.Error("prompt leaks embedding vectors")
	}
}

func TestSynthesizeRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "here is your article"},
		{"missing title", `{"target_audience":"a","linked_products":"b","content":"c"}`},
		{"missing audience", `{"title":"T","linked_products":"b","content":"c"}`},
		{"missing linked products", `{"title":"T","target_audience":"a","content":"c"}`},
		{"missing content", `{"title":"T","target_audience":"a","linked_products":"b"}`},
		{"title too long", `{"title":"one two three four five six seven eight nine ten eleven","target_audience":"a","linked_products":"b","content":"c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{response: tt.response}
			_, err := Synthesize(context.Background(), b, testInputs(), DefaultStyle, 1)
			var synthErr *Error
			if !errors.As(err, &synthErr) {
				t.Fatalf("err = %v, want *compose.Error", err)
			}
		})
	}
}

func TestSynthesizeAcceptsTenWordTitle(t *testing.T) {
	b := &stubBackend{response: `{
		"title": "one two three four five six seven eight nine ten",
		"target_audience": "a", "linked_products": "b", "content": "c"
	}`}
	if _, err := Synthesize(context.Background(), b, testInputs(), DefaultStyle, 1); err != nil {
		t.Fatal(err)
	}
}
