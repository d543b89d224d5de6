package progress

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"roadnerd/internal/logging"
	"roadnerd/internal/roadmap"
)

// Snapshot is one stored roadmap state.
type Snapshot struct {
	ID             int64     `json:"id"`
	Taken          time.Time `json:"taken"`
	RunID          string    `json:"run_id"`
	TotalItems     int       `json:"total_items"`
	CompletedItems int       `json:"completed_items"`
	CompletedHours float64   `json:"completed_hours"`

	// Roadmap is populated only when the snapshot is loaded with its body.
	Roadmap *roadmap.Roadmap `json:"-"`
}

// Store persists roadmap snapshots in a SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewStore creates or opens a snapshot store under workDir.
func NewStore(workDir string) (*Store, error) {
	dbPath := filepath.Join(workDir, "progress.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken DATETIME NOT NULL,
		run_id TEXT NOT NULL,
		total_items INTEGER NOT NULL,
		completed_items INTEGER NOT NULL,
		completed_hours REAL NOT NULL,
		roadmap_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot stores the current roadmap state.
func (s *Store) SaveSnapshot(rm *roadmap.Roadmap) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	completedHours := 0.0
	for _, it := range rm.Items {
		if it.Status == roadmap.StatusCompleted {
			completed++
			completedHours += it.Effort.Range.Realistic
		}
	}

	body, err := json.Marshal(rm)
	if err != nil {
		return 0, fmt.Errorf("marshal roadmap: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO snapshots (taken, run_id, total_items, completed_items, completed_hours, roadmap_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), rm.Metadata.RunID, len(rm.Items), completed, completedHours, string(body))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	logging.Progress("Saved snapshot %d (%d/%d items complete)", id, completed, len(rm.Items))
	return id, nil
}

// ListSnapshots returns snapshot headers oldest first, without bodies.
// limit <= 0 means all.
func (s *Store) ListSnapshots(limit int) ([]Snapshot, error) {
	query := `
		SELECT id, taken, run_id, total_items, completed_items, completed_hours
		FROM snapshots ORDER BY taken ASC, id ASC`
	args := []any{}
	if limit > 0 {
		// Most recent N, still returned oldest first.
		query = `
			SELECT id, taken, run_id, total_items, completed_items, completed_hours
			FROM (
				SELECT id, taken, run_id, total_items, completed_items, completed_hours
				FROM snapshots ORDER BY taken DESC, id DESC LIMIT ?
			) ORDER BY taken ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Taken, &snap.RunID,
			&snap.TotalItems, &snap.CompletedItems, &snap.CompletedHours); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// LoadSnapshot loads one snapshot including its full roadmap body.
func (s *Store) LoadSnapshot(id int64) (*Snapshot, error) {
	var snap Snapshot
	var body string
	err := s.db.QueryRow(`
		SELECT id, taken, run_id, total_items, completed_items, completed_hours, roadmap_json
		FROM snapshots WHERE id = ?`, id).Scan(
		&snap.ID, &snap.Taken, &snap.RunID,
		&snap.TotalItems, &snap.CompletedItems, &snap.CompletedHours, &body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", id, err)
	}

	var rm roadmap.Roadmap
	if err := json.Unmarshal([]byte(body), &rm); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	snap.Roadmap = &rm
	return &snap, nil
}

// LatestSnapshot loads the most recent snapshot with its body, or nil when
// the store is empty.
func (s *Store) LatestSnapshot() (*Snapshot, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM snapshots ORDER BY taken DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.LoadSnapshot(id)
}
