package graph

// ============================================================================
// Graph Types
// ============================================================================

// Note represents a note in the graph, keyed by name
type Note struct {
	Name      string   `json:"name"`
	Content   string   `json:"content,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Templates []string `json:"templates,omitempty"`
}

// Link represents a LINKS_TO edge between two notes
type Link struct {
	Source          string  `json:"source"`
	Target          string  `json:"target"`
	Auto            bool    `json:"auto"`
	TagsShared      int     `json:"tags_shared"`
	TemplatesShared int     `json:"templates_shared"`
	Weight          float64 `json:"weight"`
}

// EvidenceKind selects which relation(s) drive note similarity
type EvidenceKind string

const (
	// EvidenceTag scores pairs by shared TAGGED_WITH targets
	EvidenceTag EvidenceKind = "tag"
	// EvidenceTemplate scores pairs by shared USES_TEMPLATE targets
	EvidenceTemplate EvidenceKind = "template"
	// EvidenceAll scores pairs by the sum of both
	EvidenceAll EvidenceKind = "all"
)

// Valid reports whether the kind is one of the closed set
func (k EvidenceKind) Valid() bool {
	switch k {
	case EvidenceTag, EvidenceTemplate, EvidenceAll:
		return true
	}
	return false
}

// AutoLinkOptions controls a single auto-link pass
type AutoLinkOptions struct {
	Evidence   EvidenceKind `json:"evidence"`
	MinShared  int          `json:"min_shared"`
	MaxPerNode int          `json:"max_per_node"`
}

// AutoLinkReport summarizes what an auto-link pass did
type AutoLinkReport struct {
	Evidence   EvidenceKind `json:"evidence"`
	Candidates int          `json:"candidates"`
	Upserted   int          `json:"upserted"`
}

// LinkFixOptions controls a single link-fix pass. The boolean steps
// default to enabled via DefaultLinkFixOptions; RemoveAutoBelow is
// disabled when nil.
type LinkFixOptions struct {
	RemoveSelf      bool     `json:"remove_self"`
	Dedupe          bool     `json:"dedupe"`
	BackfillShared  bool     `json:"backfill_shared"`
	RecomputeWeight bool     `json:"recompute_weight"`
	RemoveAutoBelow *float64 `json:"remove_auto_below,omitempty"`
}

// DefaultLinkFixOptions returns a pass with every cleanup step enabled
// and threshold pruning disabled
func DefaultLinkFixOptions() LinkFixOptions {
	return LinkFixOptions{
		RemoveSelf:      true,
		Dedupe:          true,
		BackfillShared:  true,
		RecomputeWeight: true,
	}
}

// LinkFixReport summarizes what a link-fix pass did, per step
type LinkFixReport struct {
	SelfRemoved  int `json:"self_removed"`
	DupesRemoved int `json:"dupes_removed"`
	Backfilled   int `json:"backfilled"`
	Reweighted   int `json:"reweighted"`
	Pruned       int `json:"pruned"`
}
