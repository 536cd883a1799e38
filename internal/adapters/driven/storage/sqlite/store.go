package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// databaseFile is the name of the database inside the data directory.
const databaseFile = "docgraph.db"

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store is a SQLite-backed content store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the store in dataDir.
// If dataDir is empty, defaults to ~/.docgraph/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docgraph", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, databaseFile)

	// WAL for concurrent readers; foreign keys for the node_types cascade.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Sync and traversal write from many goroutines; serialise at the pool.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AddType creates the named type, or returns the existing one.
func (s *Store) AddType(ctx context.Context, name string) (driven.TypeHandle, error) {
	if name == "" {
		return nil, fmt.Errorf("adding type: %w", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO node_types (name) VALUES (?) ON CONFLICT(name) DO NOTHING", name)
	if err != nil {
		return nil, fmt.Errorf("adding type: %w", err)
	}
	return &typeStore{store: s, name: name}, nil
}

// Types returns all type names, sorted.
func (s *Store) Types(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM node_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying types: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating types: %w", err)
	}
	return names, nil
}

// CreateReference returns a domain.NodeReference, which the codec persists
// as a tagged object and restores on read.
func (s *Store) CreateReference(typeName, id string) any {
	return domain.NodeReference{TypeName: typeName, ID: id}
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Type Store ====================

// typeStore implements driven.TypeHandle for one type.
type typeStore struct {
	store *Store
	name  string
}

var _ driven.TypeHandle = (*typeStore)(nil)

// Name returns the type name.
func (t *typeStore) Name() string {
	return t.name
}

// AddNode stores a new node.
func (t *typeStore) AddNode(ctx context.Context, node domain.Node) error {
	fields, parent, err := encodeNode(node)
	if err != nil {
		return err
	}

	res, err := t.store.db.ExecContext(ctx, `
		INSERT INTO nodes (type_name, id, path, fields, parent_ref, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(type_name, id) DO NOTHING
	`, t.name, node.ID, node.Path, fields, parent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adding node: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// UpdateNode replaces an existing node.
func (t *typeStore) UpdateNode(ctx context.Context, node domain.Node) error {
	fields, parent, err := encodeNode(node)
	if err != nil {
		return err
	}

	res, err := t.store.db.ExecContext(ctx, `
		UPDATE nodes SET path = ?, fields = ?, parent_ref = ?, updated_at = ?
		WHERE type_name = ? AND id = ?
	`, node.Path, fields, parent, time.Now().UTC(), t.name, node.ID)
	if err != nil {
		return fmt.Errorf("updating node: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveNode deletes a node.
func (t *typeStore) RemoveNode(ctx context.Context, id string) error {
	_, err := t.store.db.ExecContext(ctx,
		"DELETE FROM nodes WHERE type_name = ? AND id = ?", t.name, id)
	if err != nil {
		return fmt.Errorf("removing node: %w", err)
	}
	return nil
}

// GetNode retrieves a node by id.
func (t *typeStore) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	row := t.store.db.QueryRowContext(ctx, `
		SELECT id, path, fields, parent_ref FROM nodes
		WHERE type_name = ? AND id = ?
	`, t.name, id)

	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// NodeIDs returns all node ids, sorted.
func (t *typeStore) NodeIDs(ctx context.Context) ([]string, error) {
	rows, err := t.store.db.QueryContext(ctx,
		"SELECT id FROM nodes WHERE type_name = ? ORDER BY id", t.name)
	if err != nil {
		return nil, fmt.Errorf("querying node ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning node id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating node ids: %w", err)
	}
	return ids, nil
}

// Nodes returns all nodes, sorted by id.
func (t *typeStore) Nodes(ctx context.Context) ([]domain.Node, error) {
	rows, err := t.store.db.QueryContext(ctx, `
		SELECT id, path, fields, parent_ref FROM nodes
		WHERE type_name = ? ORDER BY id
	`, t.name)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node //nolint:prealloc // size unknown from query
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*domain.Node, error) {
	var node domain.Node
	var fieldsJSON string
	var parentJSON sql.NullString
	if err := row.Scan(&node.ID, &node.Path, &fieldsJSON, &parentJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}

	fields, err := decodeFields(fieldsJSON)
	if err != nil {
		return nil, err
	}
	node.Fields = fields

	if parentJSON.Valid {
		parent, err := decodeValue(parentJSON.String)
		if err != nil {
			return nil, err
		}
		node.ParentRef = parent
	}
	return &node, nil
}
