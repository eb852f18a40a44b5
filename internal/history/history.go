// Package history persists watch sessions in SQLite so a title can be
// resumed with the same address state, language and position.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cinestream/internal/media"
)

// ErrNotFound is returned when no session exists for a title.
var ErrNotFound = errors.New("no history for title")

// timeLayout sorts lexicographically, unlike RFC3339Nano which trims zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    imdb_id     TEXT    NOT NULL,
    season      INTEGER NOT NULL DEFAULT 0,
    episode     INTEGER NOT NULL DEFAULT 0,
    kind        TEXT    NOT NULL,
    provider    TEXT    NOT NULL,
    provider_id TEXT    NOT NULL DEFAULT '',
    lang        TEXT    NOT NULL DEFAULT '',
    query       TEXT    NOT NULL DEFAULT '',
    stream_url  TEXT    NOT NULL DEFAULT '',
    position    REAL    NOT NULL DEFAULT 0,
    updated_at  TEXT    NOT NULL,
    PRIMARY KEY (imdb_id, season, episode)
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions (updated_at DESC);
`

const sessionColumns = "imdb_id, season, episode, kind, provider, provider_id, lang, query, stream_url, position, updated_at"

// Session is one persisted watch session.
type Session struct {
	Ref       media.Ref
	Language  media.LanguageTag
	Query     string // Encoded address query, e.g. "lang=en"
	StreamURL string
	Position  float64 // Seconds
	UpdatedAt time.Time
}

// Store manages session persistence backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the per-connection pragmas in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces the whole session for sess.Ref.
func (s *Store) Save(ctx context.Context, sess Session) error {
	ref := sess.Ref
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (imdb_id, season, episode) DO UPDATE SET
            kind = excluded.kind,
            provider = excluded.provider,
            provider_id = excluded.provider_id,
            lang = excluded.lang,
            query = excluded.query,
            stream_url = excluded.stream_url,
            position = excluded.position,
            updated_at = excluded.updated_at`,
		ref.IMDbID, ref.Season, ref.Episode, ref.Kind.String(), ref.Provider, ref.ProviderID,
		string(sess.Language), sess.Query, sess.StreamURL, sess.Position, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// UpdateQuery records the address query and language for ref, creating the
// session if needed. Stream and position are left untouched.
func (s *Store) UpdateQuery(ctx context.Context, ref media.Ref, lang media.LanguageTag, query string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (imdb_id, season, episode, kind, provider, provider_id, lang, query, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (imdb_id, season, episode) DO UPDATE SET
            provider = excluded.provider,
            provider_id = excluded.provider_id,
            lang = excluded.lang,
            query = excluded.query,
            updated_at = excluded.updated_at`,
		ref.IMDbID, ref.Season, ref.Episode, ref.Kind.String(), ref.Provider, ref.ProviderID,
		string(lang), query, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("update session query: %w", err)
	}
	return nil
}

// UpdatePlayback records the last played stream and position for ref.
func (s *Store) UpdatePlayback(ctx context.Context, ref media.Ref, streamURL string, position float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (imdb_id, season, episode, kind, provider, provider_id, stream_url, position, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (imdb_id, season, episode) DO UPDATE SET
            stream_url = excluded.stream_url,
            position = excluded.position,
            updated_at = excluded.updated_at`,
		ref.IMDbID, ref.Season, ref.Episode, ref.Kind.String(), ref.Provider, ref.ProviderID,
		streamURL, position, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("update session playback: %w", err)
	}
	return nil
}

// Get returns the session for ref, keyed by IMDb id, season and episode.
func (s *Store) Get(ctx context.Context, ref media.Ref) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE imdb_id = ? AND season = ? AND episode = ?`,
		ref.IMDbID, ref.Season, ref.Episode,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns all sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC, imdb_id, season, episode`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Remove deletes the session for ref.
func (s *Store) Remove(ctx context.Context, ref media.Ref) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE imdb_id = ? AND season = ? AND episode = ?`,
		ref.IMDbID, ref.Season, ref.Episode,
	)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (Session, error) {
	var (
		sess       Session
		kindRaw    string
		lang       string
		updatedRaw string
	)
	if err := scanner.Scan(
		&sess.Ref.IMDbID,
		&sess.Ref.Season,
		&sess.Ref.Episode,
		&kindRaw,
		&sess.Ref.Provider,
		&sess.Ref.ProviderID,
		&lang,
		&sess.Query,
		&sess.StreamURL,
		&sess.Position,
		&updatedRaw,
	); err != nil {
		return Session{}, err
	}

	kind, err := media.ParseKind(kindRaw)
	if err != nil {
		return Session{}, err
	}
	sess.Ref.Kind = kind
	sess.Language = media.LanguageTag(lang)

	if t, err := time.Parse(timeLayout, updatedRaw); err == nil {
		sess.UpdatedAt = t
	}
	return sess, nil
}
