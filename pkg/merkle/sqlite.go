package merkle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	hash        TEXT NOT NULL UNIQUE,
	parent_hash TEXT,
	role        TEXT NOT NULL,
	text        TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_hash);
`

const nodeColumns = `hash, parent_hash, role, text, model`

// SQLiteStorer persists transcripts in a SQLite database.
type SQLiteStorer struct {
	db *sql.DB
}

// NewSQLiteStorer opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorer{db: db}, nil
}

// Put inserts node unless its hash is already stored.
func (s *SQLiteStorer) Put(ctx context.Context, node *Node) error {
	if node == nil {
		return errors.New("cannot store nil node")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		node.Hash, node.ParentHash, node.Content.Role, node.Content.Text, node.Content.Model,
	)
	if err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	return nil
}

// Get retrieves a node by hash.
func (s *SQLiteStorer) Get(ctx context.Context, hash string) (*Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE hash = ?`, hash)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Hash: hash}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return node, nil
}

// Has reports whether hash is stored.
func (s *SQLiteStorer) Has(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM nodes WHERE hash = ?)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check node: %w", err)
	}
	return exists, nil
}

// Ancestry follows parent links with a recursive query, node first.
func (s *SQLiteStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
WITH RECURSIVE chain(hash, parent_hash, role, text, model, depth) AS (
	SELECT `+nodeColumns+`, 0 FROM nodes WHERE hash = ?
	UNION ALL
	SELECT n.hash, n.parent_hash, n.role, n.text, n.model, c.depth + 1
	FROM nodes n JOIN chain c ON n.hash = c.parent_hash
)
SELECT `+nodeColumns+` FROM chain ORDER BY depth`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query ancestry: %w", err)
	}

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound{Hash: hash}
	}
	return nodes, nil
}

// Leaves returns nodes that are nobody's parent, oldest first.
func (s *SQLiteStorer) Leaves(ctx context.Context) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+nodeColumns+` FROM nodes
WHERE hash NOT IN (SELECT parent_hash FROM nodes WHERE parent_hash IS NOT NULL)
ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	return scanNodes(rows)
}

// Close closes the database.
func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var (
		node   Node
		parent sql.NullString
		turn   llm.Turn
	)
	if err := row.Scan(&node.Hash, &parent, &turn.Role, &turn.Text, &turn.Model); err != nil {
		return nil, err
	}
	if parent.Valid {
		node.ParentHash = &parent.String
	}
	node.Content = turn
	return &node, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return nodes, nil
}
