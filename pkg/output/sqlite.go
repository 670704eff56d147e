package output

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/chazu/utitree/pkg/hierarchy"
)

//go:embed schema.sql
var sqliteSchema string

// writeSQLite stores the graph, its descendant closure and the proper root
// ancestors of every node in a new database at path
func writeSQLite(ctx context.Context, path string, result *hierarchy.Result) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := insertHierarchy(ctx, tx, result); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertHierarchy(ctx context.Context, tx *sql.Tx, result *hierarchy.Result) error {
	g := result.Graph
	for i, node := range g.Nodes() {
		metadata := node.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata of %s: %w", node.ID, err)
		}

		var firstParent sql.NullString
		if !node.IsRoot() {
			firstParent = sql.NullString{String: node.FirstParent(), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO types (identifier, position, first_parent, metadata_json)
			VALUES (?, ?, ?, ?)
		`, node.ID, i, firstParent, string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting type %s: %w", node.ID, err)
		}

		for pos, parent := range node.Parents {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO conforms_to (identifier, parent, position)
				VALUES (?, ?, ?)
			`, node.ID, parent, pos); err != nil {
				return fmt.Errorf("inserting parent %s of %s: %w", parent, node.ID, err)
			}
		}

		for _, root := range hierarchy.RootAncestors(g, node.ID) {
			if root == node.ID {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO root_ancestors (identifier, root)
				VALUES (?, ?)
			`, node.ID, root); err != nil {
				return fmt.Errorf("inserting root ancestor %s of %s: %w", root, node.ID, err)
			}
		}
	}

	for _, node := range g.Nodes() {
		for _, descendant := range result.Descendants.Descendants(node.ID) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO descendants (ancestor, descendant)
				VALUES (?, ?)
			`, node.ID, descendant); err != nil {
				return fmt.Errorf("inserting descendant %s of %s: %w", descendant, node.ID, err)
			}
		}
	}
	return nil
}
