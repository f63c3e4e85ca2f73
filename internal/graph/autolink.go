package graph

import (
	"context"
	"fmt"
	"sort"

	"cortex/pkg/metrics"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Auto-Link Engine
// ============================================================================

// Pair counting uses a canonical direction (a.name < b.name) so each
// unordered pair is computed once and materialized edges always point
// from the lexically smaller note.
const (
	sharedTagsQuery = `
		MATCH (a:Note)-[:TAGGED_WITH]->(t:Tag)<-[:TAGGED_WITH]-(b:Note)
		WHERE a.name < b.name
		RETURN a.name as source, b.name as target, count(DISTINCT t) as shared
	`

	sharedTemplatesQuery = `
		MATCH (a:Note)-[:USES_TEMPLATE]->(t:Template)<-[:USES_TEMPLATE]-(b:Note)
		WHERE a.name < b.name
		RETURN a.name as source, b.name as target, count(DISTINCT t) as shared
	`

	// Merging on {auto: true} keeps human-authored edges out of reach:
	// an auto edge is created alongside a human edge for the same pair
	// rather than mutating it.
	upsertTagLinkQuery = `
		MATCH (a:Note {name: $source})
		MATCH (b:Note {name: $target})
		MERGE (a)-[l:LINKS_TO {auto: true}]->(b)
		SET l.tags_shared = $tags,
		    l.weight = $tags + coalesce(l.templates_shared, 0)
	`

	upsertTemplateLinkQuery = `
		MATCH (a:Note {name: $source})
		MATCH (b:Note {name: $target})
		MERGE (a)-[l:LINKS_TO {auto: true}]->(b)
		SET l.templates_shared = $templates,
		    l.weight = coalesce(l.tags_shared, 0) + $templates
	`

	upsertAllLinkQuery = `
		MATCH (a:Note {name: $source})
		MATCH (b:Note {name: $target})
		MERGE (a)-[l:LINKS_TO {auto: true}]->(b)
		SET l.tags_shared = $tags,
		    l.templates_shared = $templates,
		    l.weight = $tags + $templates
	`
)

// linkCandidate is one canonical note pair with its shared-evidence counts
type linkCandidate struct {
	Source          string
	Target          string
	TagsShared      int
	TemplatesShared int
}

// sharedFor returns the count that ranks this candidate for the given kind
func (c linkCandidate) sharedFor(kind EvidenceKind) int {
	switch kind {
	case EvidenceTag:
		return c.TagsShared
	case EvidenceTemplate:
		return c.TemplatesShared
	default:
		return c.TagsShared + c.TemplatesShared
	}
}

// AutoLink computes pairwise note similarity over the requested evidence
// relation(s) and upserts weighted auto edges. Running the same pass twice
// on unchanged evidence is idempotent: MERGE prevents duplicates and the
// recomputed properties land on the same values.
//
// A pass that uses a single evidence kind leaves the other shared component
// untouched on pre-existing edges; callers should follow up with
// LinkFix(BackfillShared) if evidence kinds are mixed across passes.
func (r *Repository) AutoLink(ctx context.Context, opts AutoLinkOptions) (*AutoLinkReport, error) {
	if !opts.Evidence.Valid() {
		return nil, fmt.Errorf("unknown evidence kind: %q", opts.Evidence)
	}
	if opts.MinShared < 1 {
		opts.MinShared = 1
	}
	if opts.MaxPerNode < 1 {
		opts.MaxPerNode = 50
	}

	candidates, err := r.fetchCandidates(ctx, opts.Evidence)
	if err != nil {
		return nil, err
	}

	selected := selectCandidates(candidates, opts.Evidence, opts.MinShared, opts.MaxPerNode)

	if err := r.upsertLinks(ctx, opts.Evidence, selected); err != nil {
		return nil, err
	}

	metrics.LinksUpserted.WithLabelValues(string(opts.Evidence)).Add(float64(len(selected)))
	r.logger.Info("Auto-link pass complete",
		zap.String("evidence", string(opts.Evidence)),
		zap.Int("min_shared", opts.MinShared),
		zap.Int("max_per_node", opts.MaxPerNode),
		zap.Int("candidates", len(candidates)),
		zap.Int("upserted", len(selected)),
	)

	return &AutoLinkReport{
		Evidence:   opts.Evidence,
		Candidates: len(candidates),
		Upserted:   len(selected),
	}, nil
}

// fetchCandidates reads shared-evidence counts for every canonical pair.
// An empty graph or absent evidence yields an empty slice, not an error.
func (r *Repository) fetchCandidates(ctx context.Context, kind EvidenceKind) ([]linkCandidate, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	type pairKey struct {
		source, target string
	}
	pairs := make(map[pairKey]*linkCandidate)

	count := func(query string, tags bool) error {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			return fmt.Errorf("failed to count shared evidence: %w", err)
		}
		for result.Next(ctx) {
			record := result.Record()
			key := pairKey{
				source: getStringFromRecord(record, "source"),
				target: getStringFromRecord(record, "target"),
			}
			cand, ok := pairs[key]
			if !ok {
				cand = &linkCandidate{Source: key.source, Target: key.target}
				pairs[key] = cand
			}
			if tags {
				cand.TagsShared = getIntFromRecord(record, "shared")
			} else {
				cand.TemplatesShared = getIntFromRecord(record, "shared")
			}
		}
		return result.Err()
	}

	switch kind {
	case EvidenceTag:
		if err := count(sharedTagsQuery, true); err != nil {
			return nil, err
		}
	case EvidenceTemplate:
		if err := count(sharedTemplatesQuery, false); err != nil {
			return nil, err
		}
	case EvidenceAll:
		if err := count(sharedTagsQuery, true); err != nil {
			return nil, err
		}
		if err := count(sharedTemplatesQuery, false); err != nil {
			return nil, err
		}
	}

	candidates := make([]linkCandidate, 0, len(pairs))
	for _, cand := range pairs {
		candidates = append(candidates, *cand)
	}
	return candidates, nil
}

// selectCandidates filters by min shared count and truncates to the top
// maxPerNode candidates per source node. Ordering is deterministic:
// shared count descending, then target name ascending.
func selectCandidates(candidates []linkCandidate, kind EvidenceKind, minShared, maxPerNode int) []linkCandidate {
	filtered := make([]linkCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.sharedFor(kind) >= minShared {
			filtered = append(filtered, cand)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if sa, sb := a.sharedFor(kind), b.sharedFor(kind); sa != sb {
			return sa > sb
		}
		return a.Target < b.Target
	})

	selected := make([]linkCandidate, 0, len(filtered))
	perSource := 0
	prevSource := ""
	for _, cand := range filtered {
		if cand.Source != prevSource {
			prevSource = cand.Source
			perSource = 0
		}
		if perSource >= maxPerNode {
			continue
		}
		perSource++
		selected = append(selected, cand)
	}
	return selected
}

// upsertLinks merges one directed auto edge per surviving candidate.
// Each merge is its own statement; a connectivity failure mid-loop leaves
// the edges written so far in place (no rollback).
func (r *Repository) upsertLinks(ctx context.Context, kind EvidenceKind, selected []linkCandidate) error {
	if len(selected) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, cand := range selected {
		var query string
		params := map[string]interface{}{
			"source": cand.Source,
			"target": cand.Target,
		}
		switch kind {
		case EvidenceTag:
			query = upsertTagLinkQuery
			params["tags"] = cand.TagsShared
		case EvidenceTemplate:
			query = upsertTemplateLinkQuery
			params["templates"] = cand.TemplatesShared
		case EvidenceAll:
			query = upsertAllLinkQuery
			params["tags"] = cand.TagsShared
			params["templates"] = cand.TemplatesShared
		}

		if _, err := session.Run(ctx, query, params); err != nil {
			return fmt.Errorf("failed to upsert link %s->%s: %w", cand.Source, cand.Target, err)
		}
	}

	return nil
}
