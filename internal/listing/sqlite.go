package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"modelfolio/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	tags             TEXT NOT NULL DEFAULT '[]',
	preview_image_url TEXT,
	model_file_url   TEXT,
	notebook_url     TEXT,
	is_public        INTEGER NOT NULL DEFAULT 0,
	demo_type        TEXT NOT NULL DEFAULT '',
	api_endpoint     TEXT,
	user_id          TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	likes_count      INTEGER NOT NULL DEFAULT 0,
	downloads_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_listings_user ON listings(user_id);
CREATE INDEX IF NOT EXISTS idx_listings_public ON listings(is_public, created_at);
`

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, title, description, tags, preview_image_url, model_file_url,
	notebook_url, is_public, demo_type, api_endpoint, user_id, created_at, updated_at,
	likes_count, downloads_count`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Upsert inserts l or replaces the row with the same id.
func (s *SQLiteStore) Upsert(ctx context.Context, l types.Listing) error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("listing id is required")
	}
	if strings.TrimSpace(l.UserID) == "" {
		return errors.New("listing user_id is required")
	}
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO listings (`+selectColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title, description=excluded.description, tags=excluded.tags,
	preview_image_url=excluded.preview_image_url, model_file_url=excluded.model_file_url,
	notebook_url=excluded.notebook_url, is_public=excluded.is_public, demo_type=excluded.demo_type,
	api_endpoint=excluded.api_endpoint, user_id=excluded.user_id, updated_at=excluded.updated_at,
	likes_count=excluded.likes_count, downloads_count=excluded.downloads_count`,
		l.ID, l.Title, l.Description, string(tagJSON),
		nullString(l.PreviewImageURL), nullString(l.ModelFileURL), nullString(l.NotebookURL),
		boolInt(l.IsPublic), string(l.DemoType), nullString(l.APIEndpoint), l.UserID,
		l.CreatedAt.UTC().Format(timeLayout), l.UpdatedAt.UTC().Format(timeLayout),
		l.LikesCount, l.DownloadsCount,
	)
	return err
}

// Get returns the listing with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Listing{}, ErrNotFound
	}
	return l, err
}

// ByOwner returns all listings of userID, newest first.
func (s *SQLiteStore) ByOwner(ctx context.Context, userID string) ([]types.Listing, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM listings WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// Public returns all public listings, newest first.
func (s *SQLiteStore) Public(ctx context.Context) ([]types.Listing, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM listings WHERE is_public = 1 ORDER BY created_at DESC`)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]types.Listing, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []types.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(sc scanner) (types.Listing, error) {
	var (
		l                      types.Listing
		tags, demoType         string
		preview, file, nb, api sql.NullString
		isPublic               int
		createdAt, updatedAt   string
	)
	if err := sc.Scan(&l.ID, &l.Title, &l.Description, &tags, &preview, &file, &nb,
		&isPublic, &demoType, &api, &l.UserID, &createdAt, &updatedAt,
		&l.LikesCount, &l.DownloadsCount); err != nil {
		return types.Listing{}, err
	}
	if err := json.Unmarshal([]byte(tags), &l.Tags); err != nil {
		return types.Listing{}, fmt.Errorf("decode tags of %s: %w", l.ID, err)
	}
	l.PreviewImageURL, l.ModelFileURL, l.NotebookURL, l.APIEndpoint = preview.String, file.String, nb.String, api.String
	l.IsPublic = isPublic != 0
	l.DemoType = types.DemoType(demoType)
	var err error
	if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return types.Listing{}, err
	}
	if l.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return types.Listing{}, err
	}
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
