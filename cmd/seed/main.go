package main

import (
	"context"
	"flag"
	"fmt"

	"cortex/internal/graph"
	"cortex/pkg/config"
	"cortex/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Seeds a small sample knowledge graph and runs one full
// auto-link + link-fix sequence over it.
func main() {
	minShared := flag.Int("min-shared", 1, "Minimum shared evidence items per pair")
	maxPerNode := flag.Int("max-per-node", 50, "Maximum outgoing auto links per note")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	ctx := context.Background()
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	notes := []struct {
		name      string
		content   string
		tags      []string
		templates []string
	}{
		{"go-concurrency", "Notes on goroutines and channels", []string{"go", "concurrency"}, []string{"tech-note"}},
		{"go-errors", "Error wrapping patterns", []string{"go", "errors"}, []string{"tech-note"}},
		{"neo4j-cypher", "Cypher query patterns", []string{"neo4j", "graph"}, []string{"tech-note"}},
		{"graph-modeling", "Modeling notes as a property graph", []string{"neo4j", "graph", "design"}, []string{"design-doc"}},
		{"weekly-review", "Review of open projects", []string{"review"}, []string{"journal"}},
	}

	for _, n := range notes {
		if err := repo.CreateNote(ctx, n.name, n.content); err != nil {
			log.Fatal("Failed to create note", zap.String("name", n.name), zap.Error(err))
		}
		for _, tag := range n.tags {
			if err := repo.TagNote(ctx, n.name, tag); err != nil {
				log.Fatal("Failed to tag note", zap.String("name", n.name), zap.Error(err))
			}
		}
		for _, tpl := range n.templates {
			if err := repo.AssignTemplate(ctx, n.name, tpl); err != nil {
				log.Fatal("Failed to assign template", zap.String("name", n.name), zap.Error(err))
			}
		}
	}
	log.Info("Sample notes created", zap.Int("count", len(notes)))

	linkReport, err := repo.AutoLink(ctx, graph.AutoLinkOptions{
		Evidence:   graph.EvidenceAll,
		MinShared:  *minShared,
		MaxPerNode: *maxPerNode,
	})
	if err != nil {
		log.Fatal("Auto-link pass failed", zap.Error(err))
	}

	fixReport, err := repo.LinkFix(ctx, graph.DefaultLinkFixOptions())
	if err != nil {
		log.Fatal("Link-fix pass failed", zap.Error(err))
	}

	log.Info("Seeding complete",
		zap.Int("links_upserted", linkReport.Upserted),
		zap.Int("links_backfilled", fixReport.Backfilled),
	)
}
