// Package app wires SpecMem's per-project singletons together: one Pool,
// one set of stores, and one instance of every service/registry, built
// once per project path and handed out by pkg/project.Manager. This is
// the composition root every cmd/ binary and pkg/healthserver depends on
// instead of constructing components by hand.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specmem/specmem/pkg/cameraroll"
	"github.com/specmem/specmem/pkg/config"
	"github.com/specmem/specmem/pkg/dimension"
	"github.com/specmem/specmem/pkg/drilldown"
	"github.com/specmem/specmem/pkg/embedding"
	"github.com/specmem/specmem/pkg/embedqueue"
	"github.com/specmem/specmem/pkg/minicot"
	"github.com/specmem/specmem/pkg/project"
	"github.com/specmem/specmem/pkg/searchconfig"
	"github.com/specmem/specmem/pkg/storage"
)

// Instances is the complete set of per-project singletons SpecMem needs
// to serve one project path: a connection pool bound to that project's
// schema, the stores layered on it, and every service/registry that
// depends on those stores.
type Instances struct {
	Pool   *storage.Pool
	Schema string

	Memories         *storage.MemoriesStore
	Codebase         *storage.CodebaseStore
	Projects         *storage.ProjectsStore
	EmbeddingQueue   *storage.EmbeddingQueueStore
	DimensionColumns *storage.DimensionColumnsStore

	Registry       *project.Registry
	ColumnDetector *project.ColumnDetector

	Embedder  *embedding.Service
	Dimension *dimension.Service
	Adapter   *dimension.Adapter

	SearchConfig *searchconfig.AdaptiveSearchConfig
	Queue        *embedqueue.Queue
	Drilldown    *drilldown.Registry

	CameraRoll      *cameraroll.CameraZoomSearch
	MemoryDrilldown *cameraroll.MemoryDrilldown
	CodeDrilldown   *cameraroll.CodeDrilldown

	MiniCOT *minicot.Scorer

	log *slog.Logger
}

// NewManager builds a project.Manager[*Instances] whose factory assembles
// a complete Instances for whatever project path it is asked for,
// against cfg. EnsureSchema is run before the pool connects so a
// first-touch project gets its schema and migrations created on demand.
func NewManager(ctx context.Context, cfg config.Config) *project.Manager[*Instances] {
	return project.NewManager(func(path string) (*Instances, error) {
		return build(ctx, cfg, path)
	})
}

func build(ctx context.Context, cfg config.Config, path string) (*Instances, error) {
	schema := project.GetSchemaName(path)
	log := slog.With("component", "app_instances", "schema", schema)

	if err := storage.EnsureSchema(ctx, cfg.Database, schema); err != nil {
		return nil, fmt.Errorf("ensuring schema %s: %w", schema, err)
	}

	pool, err := storage.NewPool(ctx, cfg.Database, schema)
	if err != nil {
		return nil, fmt.Errorf("opening pool for schema %s: %w", schema, err)
	}

	memories := storage.NewMemoriesStore(pool)
	codebase := storage.NewCodebaseStore(pool)
	projects := storage.NewProjectsStore(pool)
	queueStore := storage.NewEmbeddingQueueStore(pool)
	dimCols := storage.NewDimensionColumnsStore(pool)

	registry := project.NewRegistry(projects)
	columnDetector := project.NewColumnDetector(projects)

	projectID, err := registry.RegisterProject(ctx, path)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("registering project %s: %w", path, err)
	}

	embedQueue := embedqueue.New(queueStore, projectID.String(), embedqueue.Config{
		MaxQueueSize: cfg.EmbedQueue.MaxSize,
		MaxQueueAge:  cfg.EmbedQueue.MaxAge,
	})
	embedQueue.StartSweeper(cfg.EmbedQueue.CleanupInterval)

	embeddingClientCfg := embedding.DefaultSocketClientConfig(cfg.Embedding.Addr)
	if cfg.Embedding.Timeout > 0 {
		embeddingClientCfg.Timeout = cfg.Embedding.Timeout
	}
	embeddingClient := embedding.NewSocketClient(embeddingClientCfg)
	embedder := embedding.NewService(embeddingClient, embedQueue)

	// The drain loop fans queued requests back out through the direct
	// client (not the Service, which would re-enqueue on failure) once
	// the embedding socket is reachable again.
	embedQueue.StartDrainLoop(ctx, cfg.EmbedQueue.DrainInterval, embeddingClient)

	dimService := dimension.NewService(dimCols, cfg.Dimension.CacheTTL, cfg.Dimension.EmbeddingDimensions)
	adapter := dimension.NewAdapter(dimService, embedder)

	searchConfig := searchconfig.NewAdaptiveSearchConfig(memories, searchconfig.DefaultTTL)

	drilldownRegistry := drilldown.New(cfg.Drilldown.MaxSize, cfg.Drilldown.TTL)
	drilldownRegistry.StartSweeper(ctx, cfg.Drilldown.CleanupInterval)

	minicotClientCfg := minicot.DefaultSocketClientConfig(cfg.MiniCOT.Addr)
	if cfg.MiniCOT.Timeout > 0 {
		minicotClientCfg.Timeout = cfg.MiniCOT.Timeout
	}
	minicotClient := minicot.NewSocketClient(minicotClientCfg)
	scorer := minicot.NewScorer(minicotClient, minicot.DefaultVectorWeight)

	cameraSearch := cameraroll.NewCameraZoomSearch(memories, drilldownRegistry, cameraroll.CameraZoomSearchOpts{
		Tuner:    searchConfig,
		TunerKey: cfg.Database.Database,
		Scorer:   scorer,
	})
	memoryDrilldown := cameraroll.NewMemoryDrilldown(memories, codebase, drilldownRegistry)
	codeDrilldown := cameraroll.NewCodeDrilldown(codebase)

	log.Info("project instances ready", "project_id", projectID, "path", path)

	return &Instances{
		Pool:   pool,
		Schema: schema,

		Memories:         memories,
		Codebase:         codebase,
		Projects:         projects,
		EmbeddingQueue:   queueStore,
		DimensionColumns: dimCols,

		Registry:       registry,
		ColumnDetector: columnDetector,

		Embedder:  embedder,
		Dimension: dimService,
		Adapter:   adapter,

		SearchConfig: searchConfig,
		Queue:        embedQueue,
		Drilldown:    drilldownRegistry,

		CameraRoll:      cameraSearch,
		MemoryDrilldown: memoryDrilldown,
		CodeDrilldown:   codeDrilldown,

		MiniCOT: scorer,

		log: log,
	}, nil
}

// Close releases every resource tied to this project's instances: the
// drilldown sweeper, the embed queue's sweeper and drain loop, and the
// connection pool. Satisfies io.Closer so project.Manager.Reset closes
// it automatically.
func (i *Instances) Close() error {
	i.Drilldown.Shutdown()
	i.Queue.Shutdown()
	i.Pool.Close()
	i.log.Info("project instances closed")
	return nil
}
