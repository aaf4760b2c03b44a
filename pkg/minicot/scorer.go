package minicot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Scorer rescores a batch of candidates using the external Mini-COT
// service, blended with cosine similarity, falling back to
// similarity-only scoring on any failure.
type Scorer struct {
	client       Client
	vectorWeight float64
	log          *slog.Logger
}

// NewScorer constructs a Scorer. A non-positive vectorWeight uses
// DefaultVectorWeight.
func NewScorer(client Client, vectorWeight float64) *Scorer {
	if vectorWeight <= 0 {
		vectorWeight = DefaultVectorWeight
	}
	return &Scorer{client: client, vectorWeight: vectorWeight, log: slog.With("component", "minicot_scorer")}
}

// Score rescores candidates against query, returning a hybrid result or,
// on any failure or unavailability, a similarity-only fallback.
func (s *Scorer) Score(ctx context.Context, query string, candidates []Candidate) Result {
	if s.client == nil || !s.client.IsAvailable(ctx) {
		return s.fallback(candidates)
	}

	items := make([]GalleryItem, len(candidates))
	for i, c := range candidates {
		items[i] = GalleryItem{
			ID:       candidateKey(c, i),
			Keywords: keywordsFor(c),
			Snippet:  snippetFor(c),
			Role:     c.MemoryRole,
		}
	}

	gallery, err := s.client.Score(ctx, query, items)
	if err != nil {
		s.log.Warn("minicot scoring failed, falling back to similarity", "error", err)
		return s.fallback(candidates)
	}

	byID := make(map[string]GalleryResult, len(gallery))
	for _, g := range gallery {
		byID[g.ID] = g
	}

	scored := make([]Scored, len(candidates))
	attributionCounts := make(map[Attribution]int)
	var relevanceSum float64

	for i, c := range candidates {
		attribution := Attribute(c)
		attributionCounts[attribution]++

		g, ok := byID[candidateKey(c, i)]
		cotRelevance := 0.0
		cotReasoning := ""
		if ok {
			cotRelevance = g.Relevance
			cotReasoning = g.CotReasoning
		}

		combined := s.vectorWeight*c.Similarity + (1-s.vectorWeight)*cotRelevance
		relevanceSum += cotRelevance

		scored[i] = Scored{
			Candidate:     c,
			CombinedScore: combined,
			CotRelevance:  cotRelevance,
			CotReasoning:  cotReasoning,
			Attribution:   attribution,
			DrillHint:     drillHintFor(c),
			Method:        ScoringHybrid,
		}
	}

	avg := 0.0
	if len(candidates) > 0 {
		avg = relevanceSum / float64(len(candidates))
	}

	return Result{
		Scored:            scored,
		AverageRelevance:  avg,
		AttributionCounts: attributionCounts,
		Method:            ScoringHybrid,
	}
}

// fallback scores by similarity alone, preserving attribution.
func (s *Scorer) fallback(candidates []Candidate) Result {
	scored := make([]Scored, len(candidates))
	attributionCounts := make(map[Attribution]int)
	var simSum float64

	for i, c := range candidates {
		attribution := Attribute(c)
		attributionCounts[attribution]++
		simSum += c.Similarity

		scored[i] = Scored{
			Candidate:     c,
			CombinedScore: c.Similarity,
			Attribution:   attribution,
			DrillHint:     drillHintFor(c),
			Method:        ScoringFallback,
		}
	}

	avg := 0.0
	if len(candidates) > 0 {
		avg = simSum / float64(len(candidates))
	}

	return Result{
		Scored:            scored,
		AverageRelevance:  avg,
		AttributionCounts: attributionCounts,
		Method:            ScoringFallback,
	}
}

// candidateKey derives a stable identifier for correlating a candidate
// with its Mini-COT gallery response.
func candidateKey(c Candidate, index int) string {
	if c.MemoryID != "" {
		return c.MemoryID
	}
	if c.FilePath != "" {
		return fmt.Sprintf("%s:%s", c.FilePath, c.Name)
	}
	return fmt.Sprintf("candidate-%d", index)
}

// keywordsFor builds a compact keyword line: file, definition type+name,
// line range.
func keywordsFor(c Candidate) string {
	var parts []string
	if c.FilePath != "" {
		parts = append(parts, c.FilePath)
	}
	if c.DefinitionType != "" && c.Name != "" {
		parts = append(parts, fmt.Sprintf("%s %s", c.DefinitionType, c.Name))
	}
	if c.HasLineRange() {
		parts = append(parts, fmt.Sprintf("lines %d-%d", c.LineStart, c.LineEnd))
	}
	return strings.Join(parts, " | ")
}

// snippetFor builds the stable-shaped snippet text submitted to the
// Mini-COT service: preview up to ~200 chars plus a short memory context
// up to ~100 chars.
func snippetFor(c Candidate) string {
	preview := truncateRunes(c.ContentPreview, previewChars)
	if c.MemoryContent == "" {
		return preview
	}
	memCtx := truncateRunes(c.MemoryContent, memoryContextChars)
	return preview + "\n---\n" + memCtx
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// drillHintFor points at get_memory when a memory id exists, else a
// direct file open.
func drillHintFor(c Candidate) string {
	if c.MemoryID != "" {
		return fmt.Sprintf("get_memory(%s)", c.MemoryID)
	}
	return fmt.Sprintf("open(%s)", c.FilePath)
}
