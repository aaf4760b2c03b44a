// Package minicot rescores search candidates with an external reasoning
// model and attributes each one to the role that produced it.
package minicot

import "context"

// DefaultVectorWeight is the default blend between cosine similarity and
// the Mini-COT service's relevance score.
const DefaultVectorWeight = 0.4

// previewChars and memoryContextChars bound the snippet text submitted
// to the Mini-COT service per candidate.
const previewChars = 200
const memoryContextChars = 100

// Candidate is one item eligible for Mini-COT rescoring: a code
// definition, a bare file, or a memory, carrying whatever fields apply.
type Candidate struct {
	ID             string
	FilePath       string
	Name           string
	DefinitionType string
	ContentPreview string
	LineStart      int
	LineEnd        int
	Similarity     float64
	MemoryID       string
	MemoryContent  string
	MemoryRole     string
	MemoryTags     []string
}

// HasLineRange reports whether LineStart/LineEnd are meaningful.
func (c Candidate) HasLineRange() bool {
	return c.LineStart > 0 || c.LineEnd > 0
}

// Attribution classifies who produced a candidate.
type Attribution string

// Recognized attributions, in the priority order used to derive them.
const (
	AttributionUser      Attribution = "user"
	AttributionAssistant Attribution = "assistant"
	AttributionUserCode  Attribution = "user-code"
	AttributionGenerated Attribution = "generated"
	AttributionUnknown   Attribution = "unknown"
)

// ScoringMethod records whether a Scored result came from the full
// hybrid pipeline or the similarity-only fallback.
type ScoringMethod string

// Recognized scoring methods.
const (
	ScoringHybrid   ScoringMethod = "hybrid"
	ScoringFallback ScoringMethod = "fallback"
)

// Scored is one rescored candidate ready for display.
type Scored struct {
	Candidate     Candidate
	CombinedScore float64
	CotRelevance  float64
	CotReasoning  string
	Attribution   Attribution
	DrillHint     string
	Method        ScoringMethod
}

// Result is the full output of a scoring pass.
type Result struct {
	Scored            []Scored
	AverageRelevance  float64
	AttributionCounts map[Attribution]int
	Method            ScoringMethod
}

// GalleryItem is one entry of the batch request sent to the Mini-COT
// service.
type GalleryItem struct {
	ID       string
	Keywords string
	Snippet  string
	Role     string
}

// GalleryResult is one per-id response from the Mini-COT service.
type GalleryResult struct {
	ID           string
	Relevance    float64
	CotReasoning string
}

// Client is the external Mini-COT collaborator: a batch scoring endpoint
// plus an availability check, consumed over a socket (out of scope for
// this module; see pkg/minicot/client.go for the transport).
type Client interface {
	IsAvailable(ctx context.Context) bool
	Score(ctx context.Context, query string, items []GalleryItem) ([]GalleryResult, error)
}
