package cameraroll

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/specmem/specmem/pkg/drilldown"
	"github.com/specmem/specmem/pkg/models"
)

// MemoryFetcher is the storage dependency for memory-flavored drilldowns.
type MemoryFetcher interface {
	// GetMemory fetches the mandatory pivot memory; failure propagates.
	GetMemory(ctx context.Context, id uuid.UUID) (*models.Memory, error)
	// SessionMemories fetches up to limit other memories sharing
	// sessionID, excluding id, ordered by created_at ascending.
	SessionMemories(ctx context.Context, sessionID string, exclude uuid.UUID, limit int) ([]models.Memory, error)
	// NearestNeighbors fetches up to limit memories nearest to vector,
	// excluding exclude, most similar first.
	NearestNeighbors(ctx context.Context, vector []float32, exclude uuid.UUID, limit int) ([]models.SearchHit, error)
}

// CodeRefHit is one codebase_pointers row joined to codebase_files.
type CodeRefHit struct {
	FilePath     string
	FileName     string
	LineStart    int
	LineEnd      int
	FunctionName string
}

// CodeRefFetcher fetches code references attached to a memory. An absent
// codebase_pointers table is tolerated silently (returns nil, nil).
type CodeRefFetcher interface {
	CodeRefsForMemory(ctx context.Context, memoryID uuid.UUID, limit int) ([]CodeRefHit, error)
}

// DefaultSessionContextLimit is how many other session memories are
// fetched before partitioning into before/after.
const DefaultSessionContextLimit = 10

// sessionContextBefore/After cap how many of the fetched session
// memories are kept on each side of the pivot.
const sessionContextBefore = 3
const sessionContextAfter = 3

// DefaultRelatedLimit and DefaultCodeRefLimit are the drilldown's default
// enrichment fan-out sizes.
const DefaultRelatedLimit = 5
const DefaultCodeRefLimit = 5

// toolCallMarkers are content heuristics excluding a memory from paired
// message consideration.
var toolCallMarkers = []string{"tool_call", "function_call", "[tool]"}

// MemoryDrilldownOpts controls optional enrichment fetches.
type MemoryDrilldownOpts struct {
	IncludeConversationContext bool
	RelatedLimit               int
	CodeRefLimit               int
}

// PairedMessage is the paired conversational turn found for a pivot
// memory. The role reported here is the pivot's own, not the paired
// message's, so callers can tell which direction the pairing ran.
type PairedMessage struct {
	Memory    models.Memory
	PivotRole models.Role
}

// MemoryDrilldownResult is the full expansion of a single memory handle.
type MemoryDrilldownResult struct {
	Memory            models.Memory
	Paired            *PairedMessage
	ContextBefore     []models.Memory
	ContextAfter      []models.Memory
	Related           []models.SearchHit
	CodeRefs          []CodeRefHit
	ChildDrilldownIDs []int
}

// MemoryDrilldown expands a registered memory handle into its full
// neighborhood: paired message, session context, related memories, and
// code references. All enrichments are best-effort.
type MemoryDrilldown struct {
	fetcher  MemoryFetcher
	codeRefs CodeRefFetcher
	registry *drilldown.Registry
	log      *slog.Logger
}

// NewMemoryDrilldown constructs a MemoryDrilldown. codeRefs may be nil if
// the codebase_pointers table does not exist for this project.
func NewMemoryDrilldown(fetcher MemoryFetcher, codeRefs CodeRefFetcher, registry *drilldown.Registry) *MemoryDrilldown {
	return &MemoryDrilldown{
		fetcher:  fetcher,
		codeRefs: codeRefs,
		registry: registry,
		log:      slog.With("component", "memory_drilldown"),
	}
}

// Expand performs the full drilldown on memoryID, whose own drilldown
// handle is pivotDrilldownID (used as every child entry's ParentID). The
// mandatory fetch error propagates; every other step degrades
// gracefully.
func (d *MemoryDrilldown) Expand(ctx context.Context, memoryID uuid.UUID, pivotDrilldownID int, opts MemoryDrilldownOpts) (*MemoryDrilldownResult, error) {
	pivot, err := d.fetcher.GetMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if pivot == nil {
		return nil, nil
	}

	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = DefaultRelatedLimit
	}
	if opts.CodeRefLimit <= 0 {
		opts.CodeRefLimit = DefaultCodeRefLimit
	}

	result := &MemoryDrilldownResult{Memory: *pivot}
	var childIDs []int

	sessionID := pivot.SessionID()
	if sessionID != "" {
		others, err := d.fetcher.SessionMemories(ctx, sessionID, memoryID, DefaultSessionContextLimit)
		if err != nil {
			d.log.Warn("session memories fetch failed", "error", err)
		} else {
			result.Paired = findPairedMessage(*pivot, others)
			if result.Paired != nil {
				id := d.registry.Register(result.Paired.Memory.ID.String(), models.DrilldownTypeMemory, drilldown.RegisterOpts{ParentID: intPtr(pivotDrilldownID)})
				childIDs = append(childIDs, id)
			}

			if opts.IncludeConversationContext {
				before, after := partitionSessionContext(*pivot, others)
				result.ContextBefore = before
				result.ContextAfter = after
				for _, m := range append(append([]models.Memory{}, before...), after...) {
					id := d.registry.Register(m.ID.String(), models.DrilldownTypeContext, drilldown.RegisterOpts{ParentID: intPtr(pivotDrilldownID)})
					childIDs = append(childIDs, id)
				}
			}
		}
	}

	if len(pivot.Embedding) > 0 {
		related, err := d.fetcher.NearestNeighbors(ctx, pivot.Embedding, memoryID, opts.RelatedLimit)
		if err != nil {
			d.log.Warn("related memories fetch failed", "error", err)
		} else {
			result.Related = related
			for _, hit := range related {
				id := d.registry.Register(hit.Memory.ID.String(), models.DrilldownTypeMemory, drilldown.RegisterOpts{ParentID: intPtr(pivotDrilldownID)})
				childIDs = append(childIDs, id)
			}
		}
	}

	if d.codeRefs != nil {
		refs, err := d.codeRefs.CodeRefsForMemory(ctx, memoryID, opts.CodeRefLimit)
		if err != nil {
			d.log.Warn("code refs fetch failed (table may be absent)", "error", err)
		} else {
			result.CodeRefs = refs
			for _, ref := range refs {
				key := ref.FilePath
				if ref.FunctionName != "" {
					key = ref.FilePath + ":" + ref.FunctionName
				}
				id := d.registry.Register(key, models.DrilldownTypeCode, drilldown.RegisterOpts{ParentID: intPtr(pivotDrilldownID)})
				childIDs = append(childIDs, id)
			}
		}
	}

	result.ChildDrilldownIDs = childIDs
	return result, nil
}

// findPairedMessage locates the opposite-role memory among others sharing
// pivot's session that lies adjacent in time on the correct side:
// a user pivot pairs with the next-following assistant turn; an
// assistant pivot pairs with the most-recent-preceding user turn.
// Candidates matching a tool-call content heuristic are excluded.
func findPairedMessage(pivot models.Memory, others []models.Memory) *PairedMessage {
	pivotRole := pivot.Role()
	var opposite models.Role
	switch pivotRole {
	case models.RoleUser:
		opposite = models.RoleAssistant
	case models.RoleAssistant:
		opposite = models.RoleUser
	default:
		return nil
	}

	pivotTime := pivot.OrderingTime()
	var best *models.Memory

	for i := range others {
		cand := others[i]
		if cand.Role() != opposite || isToolCall(cand.Content) {
			continue
		}
		candTime := cand.OrderingTime()

		if pivotRole == models.RoleUser {
			// Paired assistant turn must follow the user pivot; keep the
			// earliest such candidate (the immediate reply).
			if !candTime.After(pivotTime) {
				continue
			}
			if best == nil || candTime.Before(best.OrderingTime()) {
				c := cand
				best = &c
			}
		} else {
			// Paired user turn must precede the assistant pivot; keep the
			// most recent such candidate.
			if !candTime.Before(pivotTime) {
				continue
			}
			if best == nil || candTime.After(best.OrderingTime()) {
				c := cand
				best = &c
			}
		}
	}

	if best == nil {
		return nil
	}
	return &PairedMessage{Memory: *best, PivotRole: pivotRole}
}

// isToolCall excludes tool-invocation records from paired-message
// candidacy by a coarse content heuristic.
func isToolCall(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range toolCallMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// partitionSessionContext splits others around pivot's created_at,
// keeping the last sessionContextBefore entries before it and the first
// sessionContextAfter entries after it.
func partitionSessionContext(pivot models.Memory, others []models.Memory) (before, after []models.Memory) {
	pivotTime := pivot.CreatedAt

	var earlier, later []models.Memory
	for _, m := range others {
		if m.CreatedAt.Before(pivotTime) {
			earlier = append(earlier, m)
		} else if m.CreatedAt.After(pivotTime) {
			later = append(later, m)
		}
	}

	if len(earlier) > sessionContextBefore {
		earlier = earlier[len(earlier)-sessionContextBefore:]
	}
	if len(later) > sessionContextAfter {
		later = later[:sessionContextAfter]
	}
	return earlier, later
}

func intPtr(n int) *int { return &n }
