// specmem-migrate applies SpecMem's embedded schema migrations to one
// project's schema without booting the full server, for use in deploy
// scripts and local setup.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/specmem/specmem/pkg/config"
	"github.com/specmem/specmem/pkg/project"
	"github.com/specmem/specmem/pkg/storage"
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
	projectPath := flag.String("project", "",
		"Project path to migrate (defaults to SPECMEM_PROJECT_PATH or the current directory)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, continuing with existing environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	resolver := project.NewResolver()
	path := *projectPath
	if path == "" {
		path = resolver.ActivePath()
	}

	schema := project.GetSchemaName(path)
	log.Printf("applying migrations to schema %s (project %s)", schema, path)

	ctx := context.Background()
	if err := storage.EnsureSchema(ctx, cfg.Database, schema); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Printf("migrations applied to schema %s", schema)
}
