package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Graph Snapshot / Compare Harness
// ============================================================================

// Snapshot is a point-in-time capture of the note set and the full
// LINKS_TO edge set, in canonical order. Parallel edges appear as
// repeated records.
type Snapshot struct {
	Notes []string `json:"notes"`
	Links []Link   `json:"links"`
}

// SnapshotDiff lists the edges present in only one of two snapshots.
// An edge whose properties changed shows up as one removal plus one
// addition.
type SnapshotDiff struct {
	Added   []Link `json:"added"`
	Removed []Link `json:"removed"`
}

// Empty reports whether the two snapshots had an identical edge set
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Snapshot captures the current notes and links. Notes and links are
// fetched concurrently; each fetch uses its own read session.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		session := r.driver.NewSession(gctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
		defer session.Close(gctx)

		result, err := session.Run(gctx, `
			MATCH (n:Note)
			RETURN n.name as name
			ORDER BY name
		`, nil)
		if err != nil {
			return fmt.Errorf("failed to snapshot notes: %w", err)
		}
		for result.Next(gctx) {
			snap.Notes = append(snap.Notes, getStringFromRecord(result.Record(), "name"))
		}
		return result.Err()
	})

	g.Go(func() error {
		session := r.driver.NewSession(gctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
		defer session.Close(gctx)

		result, err := session.Run(gctx, `
			MATCH (a:Note)-[l:LINKS_TO]->(b:Note)
			RETURN a.name as source,
			       b.name as target,
			       coalesce(l.auto, false) as auto,
			       coalesce(l.tags_shared, 0) as tags_shared,
			       coalesce(l.templates_shared, 0) as templates_shared,
			       coalesce(l.weight, 0.0) as weight
		`, nil)
		if err != nil {
			return fmt.Errorf("failed to snapshot links: %w", err)
		}
		for result.Next(gctx) {
			record := result.Record()
			snap.Links = append(snap.Links, Link{
				Source:          getStringFromRecord(record, "source"),
				Target:          getStringFromRecord(record, "target"),
				Auto:            getBoolFromRecord(record, "auto"),
				TagsShared:      getIntFromRecord(record, "tags_shared"),
				TemplatesShared: getIntFromRecord(record, "templates_shared"),
				Weight:          getFloat64FromRecord(record, "weight"),
			})
		}
		return result.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.sortLinks()
	return snap, nil
}

func (s *Snapshot) sortLinks() {
	sort.Slice(s.Links, func(i, j int) bool {
		a, b := s.Links[i], s.Links[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Weight < b.Weight
	})
}

// LinksBetween returns every edge from source to target, parallel copies
// included
func (s *Snapshot) LinksBetween(source, target string) []Link {
	var links []Link
	for _, l := range s.Links {
		if l.Source == source && l.Target == target {
			links = append(links, l)
		}
	}
	return links
}

// SelfLoops returns every edge whose endpoints coincide
func (s *Snapshot) SelfLoops() []Link {
	var loops []Link
	for _, l := range s.Links {
		if l.Source == l.Target {
			loops = append(loops, l)
		}
	}
	return loops
}

// Diff compares the edge sets of two snapshots as multisets
func (s *Snapshot) Diff(other *Snapshot) SnapshotDiff {
	counts := make(map[Link]int)
	for _, l := range s.Links {
		counts[l]++
	}
	var diff SnapshotDiff
	for _, l := range other.Links {
		if counts[l] > 0 {
			counts[l]--
		} else {
			diff.Added = append(diff.Added, l)
		}
	}
	for l, n := range counts {
		for i := 0; i < n; i++ {
			diff.Removed = append(diff.Removed, l)
		}
	}
	sortLinkSlice(diff.Added)
	sortLinkSlice(diff.Removed)
	return diff
}

// Equal reports whether two snapshots have the same edge multiset
func (s *Snapshot) Equal(other *Snapshot) bool {
	return s.Diff(other).Empty()
}

func sortLinkSlice(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Weight < b.Weight
	})
}
