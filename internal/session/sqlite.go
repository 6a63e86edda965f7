package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/timecode"
)

// Info is a row of List.
type Info struct {
	ID        string    `json:"id"`
	VideoPath string    `json:"video_path"`
	State     State     `json:"state"`
	Moments   int       `json:"moments"`
	Deleted   int       `json:"deleted"`
	FramesDir string    `json:"frames_dir,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SQLiteStore persists sessions. Moments marked for deletion are kept as
// soft-deleted rows until the session is committed and saved again.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		video_path  TEXT NOT NULL,
		state       TEXT NOT NULL DEFAULT 'editing',
		frames_dir  TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);

	CREATE TABLE IF NOT EXISTS moments (
		session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		id              INTEGER NOT NULL,
		seq             INTEGER NOT NULL,
		seconds         REAL NOT NULL,
		kind            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		navigation_path TEXT,
		deleted         INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (session_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_moments_session ON moments(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new session together with its current moments.
func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, video_path, state, frames_dir, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.VideoPath, string(sess.State), nullable(sess.FramesDir),
		sess.CreatedAt.UTC().Format(time.RFC3339), now)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if err := writeMoments(ctx, tx, sess); err != nil {
		return err
	}
	return tx.Commit()
}

// Save replaces the stored state and moments of an existing session. The
// frames directory is only written by SetFramesDir.
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET video_path = ?, state = ?, updated_at = ? WHERE id = ?`,
		sess.VideoPath, string(sess.State), time.Now().UTC().Format(time.RFC3339), sess.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sess.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM moments WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear moments: %w", err)
	}
	if err := writeMoments(ctx, tx, sess); err != nil {
		return err
	}
	return tx.Commit()
}

func writeMoments(ctx context.Context, tx *sql.Tx, sess *Session) error {
	deleted := make(map[int]bool)
	for _, id := range sess.Moments.Deleted() {
		deleted[id] = true
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO moments (session_id, id, seq, seconds, kind, description, navigation_path, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, m := range sess.Moments.All() {
		del := 0
		if deleted[m.ID] {
			del = 1
		}
		_, err := stmt.ExecContext(ctx, sess.ID, m.ID, seq, m.Time.Seconds(), string(m.Kind),
			m.Description, nullable(m.NavigationPath), del)
		if err != nil {
			return fmt.Errorf("insert moment %d: %w", m.ID, err)
		}
	}
	return nil
}

// Load reads a session back. An extracted session whose frames can no
// longer be read falls back to Committed.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		sess      Session
		state     string
		framesDir sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, video_path, state, frames_dir, created_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.VideoPath, &state, &framesDir, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.State = State(state)
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	sess.Moments, err = s.loadMoments(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.State == StateEditing {
		return &sess, nil
	}
	sess.Committed = moments.Sorted(sess.Moments.Live())

	if sess.State == StateExtracted {
		sess.FramesDir = framesDir.String
		if err := sess.LoadFrames(); err != nil {
			log.Printf("[!] %v, session is back to committed", err)
			sess.State = StateCommitted
			sess.FramesDir = ""
		}
	}
	return &sess, nil
}

func (s *SQLiteStore) loadMoments(ctx context.Context, id string) (*moments.Store, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seconds, kind, description, navigation_path, deleted
		 FROM moments WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load moments: %w", err)
	}
	defer rows.Close()

	store := moments.NewStore()
	var deleted []int
	for rows.Next() {
		var (
			m       moments.Moment
			seconds float64
			kind    string
			nav     sql.NullString
			del     int
		)
		if err := rows.Scan(&m.ID, &seconds, &kind, &m.Description, &nav, &del); err != nil {
			return nil, err
		}
		m.Time = timecode.FromSeconds(seconds)
		m.Kind = moments.Kind(kind)
		m.NavigationPath = nav.String
		store.Add(m)
		if del != 0 {
			deleted = append(deleted, m.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := store.Delete(deleted...); err != nil {
		return nil, err
	}
	return store, nil
}

// List returns all sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.video_path, s.state, s.frames_dir, s.created_at, s.updated_at,
		        COUNT(m.id) - COALESCE(SUM(m.deleted), 0), COALESCE(SUM(m.deleted), 0)
		 FROM sessions s LEFT JOIN moments m ON m.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info                 Info
			state                string
			framesDir            sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&info.ID, &info.VideoPath, &state, &framesDir, &createdAt, &updatedAt,
			&info.Moments, &info.Deleted); err != nil {
			return nil, err
		}
		info.State = State(state)
		info.FramesDir = framesDir.String
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		info.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// SetFramesDir records where the frames of an extracted session live. It is
// only read back while the session is in the extracted state.
func (s *SQLiteStore) SetFramesDir(ctx context.Context, id, dir string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET frames_dir = ?, updated_at = ? WHERE id = ?`,
		nullable(dir), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set frames dir: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
