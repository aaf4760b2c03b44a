// Package healthserver exposes a minimal gin-based /healthz and /readyz
// surface for operators, the only HTTP surface this module carries. The
// full request-path API (MCP tools, search handlers) lives elsewhere.
package healthserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/specmem/specmem/pkg/app"
	"github.com/specmem/specmem/pkg/project"
)

// Server wraps a gin engine reporting on a project.Manager's live
// instances. It never touches request-path memory/search operations,
// only diagnostics.
type Server struct {
	manager  *project.Manager[*app.Instances]
	resolver *project.Resolver
	engine   *gin.Engine
}

// New constructs a Server bound to manager. resolver determines which
// project path /readyz reports on when none is given explicitly via the
// ?project query parameter.
func New(manager *project.Manager[*app.Instances], resolver *project.Resolver) *Server {
	s := &Server{manager: manager, resolver: resolver, engine: gin.Default()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/readyz", s.handleReadyz)
	s.engine.GET("/dimensions", s.handleDimensions)
}

// Run starts the server on addr, blocking until it exits or errors.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// handleHealthz reports liveness only: the process is up and serving.
// It never touches the database, so it stays fast and cheap for
// container liveness probes.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// handleReadyz reports readiness for one project: the pool is reachable
// and its per-project singletons are constructed, plus their current
// diagnostic stats.
func (s *Server) handleReadyz(c *gin.Context) {
	path := c.Query("project")
	if path == "" {
		path = s.resolver.ActivePath()
	}

	inst, err := s.manager.Get(path)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := inst.Pool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"schema":  inst.Schema,
			"error":   err.Error(),
			"project": path,
		})
		return
	}

	stats := inst.Drilldown.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"project": path,
		"schema":  inst.Schema,
		"drilldown": gin.H{
			"size":        stats.Size,
			"max_entries": stats.MaxEntries,
		},
		"embed_queue": gin.H{
			"pending": inst.Queue.PendingCount(),
		},
		"live_projects": s.manager.Count(),
	})
}

// handleDimensions scans one project's vector columns and reports any
// whose dimension deviates from the canonical memories.embedding
// dimension. Deviations are reported, never auto-fixed.
func (s *Server) handleDimensions(c *gin.Context) {
	path := c.Query("project")
	if path == "" {
		path = s.resolver.ActivePath()
	}

	inst, err := s.manager.Get(path)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results, err := inst.Dimension.SyncTableDimensions(ctx, inst.DimensionColumns)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"schema": inst.Schema,
			"error":  err.Error(),
		})
		return
	}

	columns := make([]gin.H, 0, len(results))
	inconsistencies := 0
	for _, r := range results {
		if r.Inconsistent {
			inconsistencies++
		}
		columns = append(columns, gin.H{
			"table":        r.Table,
			"column":       r.Column,
			"dimension":    r.Dimension,
			"canonical":    r.CanonicalDim,
			"has_index":    r.HasIndex,
			"index_type":   string(r.IndexType),
			"inconsistent": r.Inconsistent,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"project":         path,
		"schema":          inst.Schema,
		"columns":         columns,
		"inconsistencies": inconsistencies,
	})
}
