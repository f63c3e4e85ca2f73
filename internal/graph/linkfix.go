package graph

import (
	"context"
	"fmt"

	"cortex/pkg/metrics"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Link-Fix Engine
// ============================================================================

const (
	// Self-loops are never legitimate, so removal ignores the auto flag.
	removeSelfLoopsQuery = `
		MATCH (n:Note)-[l:LINKS_TO]->(n)
		DELETE l
		RETURN count(l) as removed
	`

	// Parallel edges for the same (source, target) pair keep exactly one
	// copy. Ordering puts human edges first so the kept copy is always a
	// human edge when one exists; only auto extras are deleted.
	dedupeLinksQuery = `
		MATCH (a:Note)-[l:LINKS_TO]->(b:Note)
		WITH a, b, l
		ORDER BY coalesce(l.auto, false), elementId(l)
		WITH a, b, collect(l) as links
		WHERE size(links) > 1
		UNWIND links[1..] as extra
		WITH extra
		WHERE extra.auto = true
		DELETE extra
		RETURN count(extra) as removed
	`

	backfillSharedQuery = `
		MATCH (a:Note)-[l:LINKS_TO]->(b:Note)
		WHERE l.auto = true
		OPTIONAL MATCH (a)-[:TAGGED_WITH]->(t:Tag)<-[:TAGGED_WITH]-(b)
		WITH a, b, l, count(DISTINCT t) as tags
		OPTIONAL MATCH (a)-[:USES_TEMPLATE]->(tpl:Template)<-[:USES_TEMPLATE]-(b)
		WITH l, tags, count(DISTINCT tpl) as templates
		SET l.tags_shared = tags,
		    l.templates_shared = templates
		RETURN count(l) as updated
	`

	recomputeWeightQuery = `
		MATCH (:Note)-[l:LINKS_TO]->(:Note)
		WHERE l.auto = true
		SET l.weight = coalesce(l.tags_shared, 0) + coalesce(l.templates_shared, 0)
		RETURN count(l) as updated
	`

	pruneBelowWeightQuery = `
		MATCH (:Note)-[l:LINKS_TO]->(:Note)
		WHERE l.auto = true AND coalesce(l.weight, 0) < $threshold
		DELETE l
		RETURN count(l) as removed
	`
)

// LinkFix runs the enabled cleanup steps against the link graph, in a
// fixed order: remove self-loops, dedupe parallel edges, backfill shared
// counts from current evidence, recompute weights, prune below threshold.
// Pruning runs last so the threshold is evaluated against fresh weights.
// Human edges (auto false/absent) are never modified or deleted, with the
// one exception of self-loops.
func (r *Repository) LinkFix(ctx context.Context, opts LinkFixOptions) (*LinkFixReport, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	report := &LinkFixReport{}

	runCount := func(step, key, query string, params map[string]interface{}) (int, error) {
		result, err := session.Run(ctx, query, params)
		if err != nil {
			return 0, fmt.Errorf("link-fix %s failed: %w", step, err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return 0, fmt.Errorf("link-fix %s failed: %w", step, err)
		}
		return getIntFromRecord(record, key), nil
	}

	var err error
	if opts.RemoveSelf {
		report.SelfRemoved, err = runCount("remove_self", "removed", removeSelfLoopsQuery, nil)
		if err != nil {
			return nil, err
		}
		metrics.LinkFixRemoved.WithLabelValues("self").Add(float64(report.SelfRemoved))
	}

	if opts.Dedupe {
		report.DupesRemoved, err = runCount("dedupe", "removed", dedupeLinksQuery, nil)
		if err != nil {
			return nil, err
		}
		metrics.LinkFixRemoved.WithLabelValues("dedupe").Add(float64(report.DupesRemoved))
	}

	if opts.BackfillShared {
		report.Backfilled, err = runCount("backfill_shared", "updated", backfillSharedQuery, nil)
		if err != nil {
			return nil, err
		}
		metrics.LinkFixUpdated.WithLabelValues("backfill").Add(float64(report.Backfilled))
	}

	if opts.RecomputeWeight {
		report.Reweighted, err = runCount("recompute_weight", "updated", recomputeWeightQuery, nil)
		if err != nil {
			return nil, err
		}
		metrics.LinkFixUpdated.WithLabelValues("recompute").Add(float64(report.Reweighted))
	}

	if opts.RemoveAutoBelow != nil {
		report.Pruned, err = runCount("remove_auto_below", "removed", pruneBelowWeightQuery, map[string]interface{}{
			"threshold": *opts.RemoveAutoBelow,
		})
		if err != nil {
			return nil, err
		}
		metrics.LinkFixRemoved.WithLabelValues("prune").Add(float64(report.Pruned))
	}

	r.logger.Info("Link-fix pass complete",
		zap.Int("self_removed", report.SelfRemoved),
		zap.Int("dupes_removed", report.DupesRemoved),
		zap.Int("backfilled", report.Backfilled),
		zap.Int("reweighted", report.Reweighted),
		zap.Int("pruned", report.Pruned),
	)

	return report, nil
}
