// Package db manages the SQLite database holding search contexts, temporary
// settings, recorded telemetry and the viewer's own repositories.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/go-ports/searchctx/internal/models"
)

// ErrDuplicate is returned when a context with the same namespace and name exists.
var ErrDuplicate = errors.New("search context already exists")

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path and initialises the schema.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open createSchema: %w", err)
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS search_contexts (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			namespace   TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			public      INTEGER NOT NULL DEFAULT 1,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			UNIQUE (namespace, name)
		)`,
		`CREATE TABLE IF NOT EXISTS search_context_repos (
			context_id TEXT NOT NULL REFERENCES search_contexts(id) ON DELETE CASCADE,
			repository TEXT NOT NULL,
			revisions  TEXT NOT NULL,
			position   INTEGER NOT NULL,
			PRIMARY KEY (context_id, repository)
		)`,
		`CREATE TABLE IF NOT EXISTS temporary_settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_repositories (
			name     TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_external_services (
			kind     TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Search contexts
// ---------------------------------------------------------------------------

const contextColumns = `id, name, namespace, description, public, created_at, updated_at`

// InsertContext stores sc and its repositories.
// Returns ErrDuplicate when the namespace/name pair is taken.
func (d *DB) InsertContext(sc *models.SearchContext) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("InsertContext: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO search_contexts (`+contextColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Namespace, sc.Description, sc.Public,
		sc.CreatedAt.UTC().Format(time.RFC3339), sc.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("InsertContext %s: %w", sc.Spec(), ErrDuplicate)
		}
		return fmt.Errorf("InsertContext: %w", err)
	}
	if err := replaceRepos(tx, sc.ID, sc.Repositories); err != nil {
		return fmt.Errorf("InsertContext repos: %w", err)
	}
	return tx.Commit()
}

// GetContext fetches a context by namespace and name.
func (d *DB) GetContext(namespace, name string) (*models.SearchContext, bool, error) {
	row := d.db.QueryRow(
		`SELECT `+contextColumns+` FROM search_contexts WHERE namespace = ? AND name = ?`,
		namespace, name,
	)
	return d.scanOne(row)
}

// GetContextByID fetches a context by exact ID.
func (d *DB) GetContextByID(id string) (*models.SearchContext, bool, error) {
	row := d.db.QueryRow(`SELECT `+contextColumns+` FROM search_contexts WHERE id = ?`, id)
	return d.scanOne(row)
}

// UpdateContext overwrites the editable fields and the repository list of
// the context with the given ID. Returns false when no such context exists.
func (d *DB) UpdateContext(id string, edits models.EditInput, repos []models.RepositoryRevisions) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("UpdateContext: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE search_contexts
		SET name = ?, description = ?, public = ?, updated_at = ?
		WHERE id = ?`,
		edits.Name, edits.Description, edits.Public,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("UpdateContext: %w", ErrDuplicate)
		}
		return false, fmt.Errorf("UpdateContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := replaceRepos(tx, id, repos); err != nil {
		return false, fmt.Errorf("UpdateContext repos: %w", err)
	}
	return true, tx.Commit()
}

// DeleteContext removes a context and its repositories.
// Returns true if a record was found and deleted.
func (d *DB) DeleteContext(id string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM search_contexts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("DeleteContext: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListContexts returns stored contexts whose name, namespace or description
// contains filter (case-insensitive), ordered by namespace then name.
// limit <= 0 means no limit.
func (d *DB) ListContexts(filter string, limit int) ([]*models.SearchContext, error) {
	q := `SELECT ` + contextColumns + ` FROM search_contexts`
	var params []any
	if filter = strings.TrimSpace(filter); filter != "" {
		like := "%" + escapeLike(strings.ToLower(filter)) + "%"
		q += ` WHERE lower(name) LIKE ? ESCAPE '\' OR lower(namespace) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'`
		params = append(params, like, like, like)
	}
	q += ` ORDER BY namespace, name`
	if limit > 0 {
		q += ` LIMIT ?`
		params = append(params, limit)
	}

	rows, err := d.db.Query(q, params...)
	if err != nil {
		return nil, fmt.Errorf("ListContexts: %w", err)
	}
	var out []*models.SearchContext
	for rows.Next() {
		sc, err := scanContext(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("ListContexts: scan: %w", err)
		}
		out = append(out, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListContexts: rows: %w", err)
	}

	for _, sc := range out {
		if sc.Repositories, err = d.repos(sc.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CountContexts returns the number of stored contexts.
func (d *DB) CountContexts() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM search_contexts`).Scan(&n)
	return n, err
}

func (d *DB) repos(contextID string) ([]models.RepositoryRevisions, error) {
	rows, err := d.db.Query(
		`SELECT repository, revisions FROM search_context_repos WHERE context_id = ? ORDER BY position`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("repos: %w", err)
	}
	defer rows.Close()

	var out []models.RepositoryRevisions
	for rows.Next() {
		var repo, revs string
		if err := rows.Scan(&repo, &revs); err != nil {
			return nil, err
		}
		rr := models.RepositoryRevisions{Repository: repo}
		if err := json.Unmarshal([]byte(revs), &rr.Revisions); err != nil {
			slog.Debug("repos: bad revisions column", "context", contextID, "repo", repo, "err", err)
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func replaceRepos(tx *sql.Tx, contextID string, repos []models.RepositoryRevisions) error {
	if _, err := tx.Exec(`DELETE FROM search_context_repos WHERE context_id = ?`, contextID); err != nil {
		return err
	}
	for i, r := range repos {
		revs := r.Revisions
		if revs == nil {
			revs = make([]string, 0)
		}
		b, err := json.Marshal(revs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO search_context_repos (context_id, repository, revisions, position) VALUES (?, ?, ?, ?)`,
			contextID, r.Repository, string(b), i,
		); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) scanOne(row *sql.Row) (*models.SearchContext, bool, error) {
	sc, err := scanContext(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if sc.Repositories, err = d.repos(sc.ID); err != nil {
		return nil, false, err
	}
	return sc, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContext(s scanner) (*models.SearchContext, error) {
	var (
		sc               models.SearchContext
		created, updated string
	)
	if err := s.Scan(&sc.ID, &sc.Name, &sc.Namespace, &sc.Description, &sc.Public, &created, &updated); err != nil {
		return nil, err
	}
	sc.CreatedAt, _ = time.Parse(time.RFC3339, created)
	sc.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &sc, nil
}

// ---------------------------------------------------------------------------
// Temporary settings
// ---------------------------------------------------------------------------

// GetSetting returns the value for key, or ("", false, nil) if not set.
func (d *DB) GetSetting(key string) (string, bool, error) {
	var val string
	err := d.db.QueryRow(`SELECT value FROM temporary_settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetSetting upserts a key-value pair.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO temporary_settings (key, value) VALUES (?, ?)`, key, value,
	)
	return err
}

// Settings exposes the temporary settings table as a settings.Store.
type Settings struct{ DB *DB }

// Get implements settings.Store.
func (s Settings) Get(key string) (string, bool, error) { return s.DB.GetSetting(key) }

// Set implements settings.Store.
func (s Settings) Set(key, value string) error { return s.DB.SetSetting(key, value) }

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// RecordEvent appends a telemetry event.
func (d *DB) RecordEvent(name string) error {
	_, err := d.db.Exec(
		`INSERT INTO events (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListEvents returns the most recent events, oldest first.
func (d *DB) ListEvents(limit int) ([]models.Event, error) {
	rows, err := d.db.Query(`
		SELECT id, name, created_at FROM (
			SELECT id, name, created_at FROM events ORDER BY id DESC LIMIT ?
		) ORDER BY id`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		var ts string
		if err := rows.Scan(&e.ID, &e.Name, &ts); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventRecorder persists telemetry events. It implements telemetry.Sink;
// write failures are logged and otherwise ignored.
type EventRecorder struct{ DB *DB }

// Log implements telemetry.Sink.
func (r EventRecorder) Log(event string) {
	if err := r.DB.RecordEvent(event); err != nil {
		slog.Warn("telemetry: record event failed", "event", event, "err", err)
	}
}

// ---------------------------------------------------------------------------
// Viewer's repositories and code hosts
// ---------------------------------------------------------------------------

// AddUserRepository records a repository the viewer added.
// Returns false when it was already present.
func (d *DB) AddUserRepository(name string) (bool, error) {
	return d.insertIgnore(`INSERT OR IGNORE INTO user_repositories (name, added_at) VALUES (?, ?)`, name)
}

// ListUserRepositories returns the viewer's repositories in name order.
func (d *DB) ListUserRepositories() ([]string, error) {
	rows, err := d.db.Query(`SELECT name FROM user_repositories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListUserRepositories: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUserRepositories returns how many repositories the viewer added.
func (d *DB) CountUserRepositories() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM user_repositories`).Scan(&n)
	return n, err
}

// AddExternalService records a code host connection of the given kind.
func (d *DB) AddExternalService(kind string) (bool, error) {
	return d.insertIgnore(`INSERT OR IGNORE INTO user_external_services (kind, added_at) VALUES (?, ?)`, kind)
}

// CountExternalServices returns how many code hosts the viewer connected.
func (d *DB) CountExternalServices() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM user_external_services`).Scan(&n)
	return n, err
}

func (d *DB) insertIgnore(stmt, key string) (bool, error) {
	res, err := d.db.Exec(stmt, key, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("insertIgnore: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// escapeLike escapes LIKE wildcards so filter text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
