package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/manpreetbhatti/roomsync/internal/room"
)

// Database is the room activity journal. It records when each room
// instance opened and closed and what happened in it; room contents are
// never stored and nothing is restored from here.
type Database struct {
	db  *sql.DB
	log *zap.Logger
}

// Session is one lifetime of a room id, from creation to eviction.
type Session struct {
	SessionID   string     `json:"session_id"`
	RoomID      string     `json:"room_id"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Accepted    int        `json:"accepted"`
	Clears      int        `json:"clears"`
	PeakMembers int        `json:"peak_members"`
}

type Stats struct {
	SessionCount     int `json:"session_count"`
	OpenSessionCount int `json:"open_session_count"`
	RoomCount        int `json:"room_count"`
	EventsAccepted   int `json:"events_accepted"`
}

var _ room.Recorder = (*Database)(nil)

func New(dbPath string, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Info("database initialized", zap.String("path", dbPath))
	return &Database{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_sessions (
		session_id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		opened_at INTEGER NOT NULL,
		closed_at INTEGER,
		accepted INTEGER NOT NULL DEFAULT 0,
		clears INTEGER NOT NULL DEFAULT 0,
		peak_members INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_room_sessions_room_id ON room_sessions(room_id, opened_at DESC);
	CREATE INDEX IF NOT EXISTS idx_room_sessions_closed_at ON room_sessions(closed_at);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Journal writes. Rows are keyed by session id, so an open that lands after
// the matching close does not reopen the session.

func (d *Database) RoomOpened(info room.Info) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO room_sessions (session_id, room_id, opened_at) VALUES (?, ?, ?)",
		info.SessionID, info.ID, info.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record open of %s: %w", info.ID, err)
	}
	return nil
}

func (d *Database) RoomClosed(info room.Info, closedAt time.Time) error {
	_, err := d.db.Exec(`
		INSERT INTO room_sessions (session_id, room_id, opened_at, closed_at, accepted, clears, peak_members)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			closed_at = excluded.closed_at,
			accepted = excluded.accepted,
			clears = excluded.clears,
			peak_members = excluded.peak_members
	`, info.SessionID, info.ID, info.CreatedAt.UnixMilli(), closedAt.UnixMilli(), info.Accepted, info.Clears, info.PeakMembers)
	if err != nil {
		return fmt.Errorf("record close of %s: %w", info.ID, err)
	}
	return nil
}

// Journal reads

const sessionColumns = "session_id, room_id, opened_at, closed_at, accepted, clears, peak_members"

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		s        Session
		openedAt int64
		closedAt sql.NullInt64
	)
	if err := row.Scan(&s.SessionID, &s.RoomID, &openedAt, &closedAt, &s.Accepted, &s.Clears, &s.PeakMembers); err != nil {
		return s, err
	}
	s.OpenedAt = time.UnixMilli(openedAt).UTC()
	if closedAt.Valid {
		t := time.UnixMilli(closedAt.Int64).UTC()
		s.ClosedAt = &t
	}
	return s, nil
}

// GetSession returns nil, nil when the session is unknown.
func (d *Database) GetSession(sessionID string) (*Session, error) {
	row := d.db.QueryRow("SELECT "+sessionColumns+" FROM room_sessions WHERE session_id = ?", sessionID)

	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions newest first. An empty roomID lists every room.
func (d *Database) ListSessions(roomID string, limit, offset int) ([]Session, error) {
	query := "SELECT " + sessionColumns + " FROM room_sessions"
	args := []any{}
	if roomID != "" {
		query += " WHERE room_id = ?"
		args = append(args, roomID)
	}
	query += " ORDER BY opened_at DESC, session_id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (d *Database) GetSessionCount(roomID string) (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM room_sessions WHERE room_id = ?", roomID).Scan(&count)
	return count, err
}

// PruneSessions deletes closed sessions that ended before cutoff, except the
// keep most recently closed ones. Open sessions are never pruned.
func (d *Database) PruneSessions(cutoff time.Time, keep int) (int64, error) {
	result, err := d.db.Exec(`
		DELETE FROM room_sessions
		WHERE closed_at IS NOT NULL AND closed_at < ? AND session_id NOT IN (
			SELECT session_id FROM room_sessions
			WHERE closed_at IS NOT NULL
			ORDER BY closed_at DESC
			LIMIT ?
		)
	`, cutoff.UnixMilli(), keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Stats

func (d *Database) GetStats() (Stats, error) {
	var stats Stats
	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) - COUNT(closed_at),
			COUNT(DISTINCT room_id),
			COALESCE(SUM(accepted), 0)
		FROM room_sessions
	`).Scan(&stats.SessionCount, &stats.OpenSessionCount, &stats.RoomCount, &stats.EventsAccepted)
	return stats, err
}
