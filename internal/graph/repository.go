package graph

import (
	"context"
	"fmt"

	"cortex/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// CreateNote creates or updates a note node
func (r *Repository) CreateNote(ctx context.Context, name, content string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (n:Note {name: $name})
		SET n.content = $content,
		    n.updated_at = datetime()
		RETURN n.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name":    name,
		"content": content,
	})
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	if _, err := result.Single(ctx); err != nil {
		return fmt.Errorf("failed to verify note creation: %w", err)
	}

	r.logger.Info("Note created",
		zap.String("name", name),
	)
	return nil
}

// GetNote fetches a note with its tags and templates
func (r *Repository) GetNote(ctx context.Context, name string) (*Note, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note {name: $name})
		OPTIONAL MATCH (n)-[:TAGGED_WITH]->(t:Tag)
		WITH n, collect(DISTINCT t.name) as tags
		OPTIONAL MATCH (n)-[:USES_TEMPLATE]->(tpl:Template)
		RETURN n.name as name,
		       n.content as content,
		       tags,
		       collect(DISTINCT tpl.name) as templates
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch record: %w", err)
		}
		return nil, ErrNoteNotFound{Name: name}
	}

	record := result.Record()
	return &Note{
		Name:      getStringFromRecord(record, "name"),
		Content:   getStringFromRecord(record, "content"),
		Tags:      getStringSliceFromRecord(record, "tags"),
		Templates: getStringSliceFromRecord(record, "templates"),
	}, nil
}

// ListNotes returns all note names in name order
func (r *Repository) ListNotes(ctx context.Context) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note)
		RETURN n.name as name
		ORDER BY name
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		names = append(names, getStringFromRecord(result.Record(), "name"))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	return names, nil
}

// DeleteNote removes a note and all of its relationships
func (r *Repository) DeleteNote(ctx context.Context, name string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note {name: $name})
		DETACH DELETE n
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	r.logger.Info("Note deleted",
		zap.String("name", name),
	)
	return nil
}

// TagNote attaches a tag to a note, creating the tag if needed
func (r *Repository) TagNote(ctx context.Context, noteName, tagName string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note {name: $note})
		MERGE (t:Tag {name: $tag})
		MERGE (n)-[:TAGGED_WITH]->(t)
		RETURN n.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"note": noteName,
		"tag":  tagName,
	})
	if err != nil {
		return fmt.Errorf("failed to tag note: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to verify tag: %w", err)
		}
		return ErrNoteNotFound{Name: noteName}
	}

	return nil
}

// UntagNote removes a tag from a note. Missing note or tag is a no-op.
func (r *Repository) UntagNote(ctx context.Context, noteName, tagName string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note {name: $note})-[rel:TAGGED_WITH]->(t:Tag {name: $tag})
		DELETE rel
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"note": noteName,
		"tag":  tagName,
	})
	if err != nil {
		return fmt.Errorf("failed to untag note: %w", err)
	}

	return nil
}

// AssignTemplate attaches a template to a note, creating the template if needed
func (r *Repository) AssignTemplate(ctx context.Context, noteName, templateName string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n:Note {name: $note})
		MERGE (t:Template {name: $template})
		MERGE (n)-[:USES_TEMPLATE]->(t)
		RETURN n.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"note":     noteName,
		"template": templateName,
	})
	if err != nil {
		return fmt.Errorf("failed to assign template: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to verify template: %w", err)
		}
		return ErrNoteNotFound{Name: noteName}
	}

	return nil
}

// LinkNotes creates a human-authored LINKS_TO edge between two notes.
// The MERGE keys on {auto: false} so it can never match an auto edge
// already present for the pair; human and auto edges coexist and
// link-fix only ever deletes the auto one.
func (r *Repository) LinkNotes(ctx context.Context, fromName, toName string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (a:Note {name: $from})
		MATCH (b:Note {name: $to})
		MERGE (a)-[l:LINKS_TO {auto: false}]->(b)
		ON CREATE SET l.created_at = datetime()
		RETURN a.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from": fromName,
		"to":   toName,
	})
	if err != nil {
		return fmt.Errorf("failed to link notes: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to verify link: %w", err)
		}
		return ErrNoteNotFound{Name: fromName + " or " + toName}
	}

	r.logger.Info("Notes linked",
		zap.String("from", fromName),
		zap.String("to", toName),
	)
	return nil
}

// Errors

type ErrNoteNotFound struct {
	Name string
}

func (e ErrNoteNotFound) Error() string {
	return fmt.Sprintf("note not found: %s", e.Name)
}
