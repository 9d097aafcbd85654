// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank retrieves reference Q&A records by semantic similarity. The
// query text is embedded once; stored records carry precomputed embeddings
// and are ranked by cosine similarity without further network calls.
package rank

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Cosine returns the cosine similarity of two vectors, in [-1, 1]. The
// second return is false when the vectors differ in dimensionality or
// either has zero norm; such pairs have no defined similarity and must be
// excluded from ranking.
func Cosine(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// TopK returns at most k records ordered by descending cosine similarity
// to the query embedding. Records whose embedding dimensionality differs
// from the query's, or whose embedding has zero norm, are skipped. Ties
// keep the original record order.
func TopK(query []float64, records []types.ReferenceRecord, k int) []types.ReferenceRecord {
	if k <= 0 {
		return nil
	}

	type scored struct {
		sim float64
		rec types.ReferenceRecord
	}
	var candidates []scored
	for _, rec := range records {
		sim, ok := Cosine(query, rec.Embedding)
		if !ok {
			continue
		}
		candidates = append(candidates, scored{sim: sim, rec: rec})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]types.ReferenceRecord, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}

// DecodeReference converts a reference-collection field map into a
// ReferenceRecord. The stored embedding is a JSON-encoded float array. The
// second return is false when the row carries no usable embedding.
func DecodeReference(fields map[string]any) (types.ReferenceRecord, bool) {
	raw, ok := fields["Embedding"].(string)
	if !ok || raw == "" {
		return types.ReferenceRecord{}, false
	}

	var embedding []float64
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil || len(embedding) == 0 {
		return types.ReferenceRecord{}, false
	}

	return types.ReferenceRecord{
		Question:  stringField(fields, "question", "Question"),
		Answer:    stringField(fields, "answer", "Answer"),
		Embedding: embedding,
	}, true
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
