// SpecMem server - maintains per-project memory/codebase storage and
// exposes an operator health surface. The request-path memory/search
// API this server backs (MCP tools, HTTP handlers) is out of scope for
// this module; this binary boots the persistence and background-worker
// layer those surfaces would call into.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/specmem/specmem/pkg/app"
	"github.com/specmem/specmem/pkg/config"
	"github.com/specmem/specmem/pkg/healthserver"
	"github.com/specmem/specmem/pkg/project"
	"github.com/specmem/specmem/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config",
		getEnv("SPECMEM_CONFIG", "./specmem.yaml"),
		"Path to the SpecMem configuration file")
	flag.Parse()

	envPath := filepath.Join(filepath.Dir(*configPath), ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("no %s file found, continuing with existing environment", envPath)
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("starting specmem server",
		"version", version.Full(),
		"config_path", *configPath,
		"health_addr", cfg.HealthServer.Addr)

	ctx := context.Background()
	resolver := project.NewResolver()
	manager := app.NewManager(ctx, *cfg)
	defer manager.ResetAll()

	// Eagerly construct the active project's instances so a cold first
	// request doesn't pay the schema-migration cost.
	if _, err := manager.Get(resolver.ActivePath()); err != nil {
		log.Fatalf("failed to initialize active project: %v", err)
	}

	srv := healthserver.New(manager, resolver)
	slog.Info("health server listening", "addr", cfg.HealthServer.Addr)
	if err := srv.Run(cfg.HealthServer.Addr); err != nil {
		log.Fatalf("health server exited: %v", err)
	}
}
