package cameraroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/specmem/specmem/pkg/drilldown"
	"github.com/specmem/specmem/pkg/minicot"
	"github.com/specmem/specmem/pkg/models"
	"github.com/specmem/specmem/pkg/searchconfig"
)

// Searcher performs the underlying vector similarity search against the
// active project's memories table.
type Searcher interface {
	// SearchMemories returns up to limit hits at or above threshold, most
	// similar first, plus the total corpus size it searched over.
	SearchMemories(ctx context.Context, queryVector []float32, threshold float64, limit int) ([]models.SearchHit, int, error)
}

// ContentCompressor is the external token compression collaborator
// (out of scope for this module; consumed only through this interface).
// A nil Codec in CameraZoomSearchOpts leaves content uncompressed.
type ContentCompressor interface {
	Compress(ctx context.Context, text string, level models.CompressionLevel) (string, error)
}

// noopCodec stands in when no ContentCompressor is wired; content passes
// through unchanged.
type noopCodec struct{}

func (noopCodec) Compress(_ context.Context, text string, _ models.CompressionLevel) (string, error) {
	return text, nil
}

// Rescorer blends cosine similarity with an external reasoning model's
// relevance judgment, returning one Scored per candidate in candidate
// order. *minicot.Scorer satisfies it.
type Rescorer interface {
	Score(ctx context.Context, query string, candidates []minicot.Candidate) minicot.Result
}

// CameraZoomSearch runs similarity search at a given zoom level and
// formats the result as a Camera Roll, minting drilldown handles for
// every item it returns. The corpus-density tuner supplies the search
// threshold and limit once the corpus is dense enough to trust; hits
// are rescored through the reasoning model before rendering.
type CameraZoomSearch struct {
	searcher Searcher
	registry *drilldown.Registry
	codec    ContentCompressor
	tuner    *searchconfig.AdaptiveSearchConfig
	tunerKey string
	scorer   Rescorer
	log      *slog.Logger
}

// CameraZoomSearchOpts carries the collaborators a search can run
// without: the compression codec, the corpus-density tuner, and the
// reasoning-model rescorer. A nil Codec passes content through
// uncompressed; a nil Tuner always uses the zoom preset; a nil Scorer
// scores by similarity alone.
type CameraZoomSearchOpts struct {
	Codec    ContentCompressor
	Tuner    *searchconfig.AdaptiveSearchConfig
	TunerKey string
	Scorer   Rescorer
}

// NewCameraZoomSearch constructs a CameraZoomSearch.
func NewCameraZoomSearch(searcher Searcher, registry *drilldown.Registry, opts CameraZoomSearchOpts) *CameraZoomSearch {
	if opts.Codec == nil {
		opts.Codec = noopCodec{}
	}
	if opts.Scorer == nil {
		// A scorer with no client always takes its similarity-only
		// fallback path, which keeps attribution intact.
		opts.Scorer = minicot.NewScorer(nil, 0)
	}
	return &CameraZoomSearch{
		searcher: searcher,
		registry: registry,
		codec:    opts.Codec,
		tuner:    opts.Tuner,
		tunerKey: opts.TunerKey,
		scorer:   opts.Scorer,
		log:      slog.With("component", "camera_roll"),
	}
}

// Search runs a query vector at the named zoom level (falling back to
// "normal" for an unrecognized level) and renders a Roll. The threshold
// and limit come from the corpus-density tuner when it has enough data;
// otherwise the zoom preset's values apply.
func (c *CameraZoomSearch) Search(ctx context.Context, query string, queryVector []float32, level models.ZoomLevel) (Roll, error) {
	preset := PresetFor(level)

	threshold, limit := preset.Threshold, preset.Limit
	if c.tuner != nil {
		tuned, err := c.tuner.Get(ctx, c.tunerKey)
		switch {
		case err != nil:
			c.log.Warn("adaptive search config unavailable, using zoom preset", "error", err)
		case tuned.HasEnoughData:
			threshold, limit = tuned.Threshold, tuned.Limit
		}
	}

	hits, total, err := c.searcher.SearchMemories(ctx, queryVector, threshold, limit)
	if err != nil {
		return Roll{}, fmt.Errorf("camera roll search: %w", err)
	}

	scored := c.rescore(ctx, query, hits, preset)

	items := make([]RollItem, 0, len(hits))
	for i, hit := range hits {
		item, err := c.buildItem(ctx, hit, scored[i], preset)
		if err != nil {
			c.log.Warn("failed to build camera roll item", "error", err)
			continue
		}
		items = append(items, item)
	}

	return Roll{
		Query: query,
		Zoom:  preset.Level,
		Found: len(items),
		Total: total,
		Items: items,
	}, nil
}

// rescore runs the hits through the reasoning model, blending cosine
// similarity with its relevance judgment and attributing each hit to
// the role that produced it. The scorer degrades to similarity-only
// scoring internally when the model is unreachable.
func (c *CameraZoomSearch) rescore(ctx context.Context, query string, hits []models.SearchHit, preset models.ZoomConfig) []minicot.Scored {
	candidates := make([]minicot.Candidate, len(hits))
	for i, hit := range hits {
		candidates[i] = minicot.Candidate{
			MemoryID:       hit.Memory.ID.String(),
			ContentPreview: truncate(hit.Memory.Content, preset.ContentPreview),
			Similarity:     hit.Similarity,
			MemoryRole:     string(hit.Memory.Role()),
			MemoryTags:     hit.Memory.Tags,
		}
	}
	return c.scorer.Score(ctx, query, candidates).Scored
}

// buildItem registers hit for drilldown and renders its displayed form:
// truncated, optionally compressed content, the rounded hybrid score,
// its attribution, and a date-only timestamp.
func (c *CameraZoomSearch) buildItem(ctx context.Context, hit models.SearchHit, scored minicot.Scored, preset models.ZoomConfig) (RollItem, error) {
	id := c.registry.Register(hit.Memory.ID.String(), models.DrilldownTypeMemory, drilldown.RegisterOpts{
		ZoomLevel: string(preset.Level),
	})

	content := truncate(hit.Memory.Content, preset.ContentPreview)
	compressed, err := c.codec.Compress(ctx, content, preset.Compression)
	if err != nil {
		// Compression is a best-effort enrichment; degrade to uncompressed.
		compressed = content
	}

	return RollItem{
		DrilldownID: id,
		Similarity:  roundTo2(scored.CombinedScore),
		Role:        hit.Memory.Role(),
		Attribution: scored.Attribution,
		Content:     compressed,
		Date:        dateOnly(hit.Memory.OrderingTime().Format(time.RFC3339)),
	}, nil
}
