package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is a fixed-width RFC 3339 layout with zero-padded
// nanoseconds. The TEXT columns are compared lexicographically, so the
// encoding must keep chronological and byte order identical; the
// trimmed fractions of RFC3339Nano do not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a SQLite database holding the interaction log and target
// profiles.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "wingman.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: concurrent callers each append a single record,
	// and serialized writes keep every append atomic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// --- Interactions (append-only) ---

// SaveInteraction appends one interaction record. There is no update or
// delete path for interactions by design.
func (s *Store) SaveInteraction(i Interaction) error {
	_, err := s.db.Exec(`
		INSERT INTO interactions (id, user_id, target_id, goal, mode, conversation, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.TargetID, i.Goal, i.Mode, i.Conversation, i.ResultJSON,
		i.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// InteractionsSince returns the user's interactions created at or after
// the cutoff, newest first.
func (s *Store) InteractionsSince(userID string, since time.Time) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, target_id, goal, mode, conversation, result_json, created_at
		FROM interactions
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC`,
		userID, since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		var i Interaction
		var createdAt string
		if err := rows.Scan(&i.ID, &i.UserID, &i.TargetID, &i.Goal, &i.Mode, &i.Conversation, &i.ResultJSON, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		i.CreatedAt = t
		results = append(results, i)
	}
	return results, rows.Err()
}

// --- Targets ---

func (s *Store) CreateTarget(t Target) error {
	profileJSON := t.ProfileJSON
	if profileJSON == "" {
		profileJSON = "{}"
	}
	_, err := s.db.Exec(`
		INSERT INTO targets (id, user_id, name, profile_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, profileJSON, t.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

func (s *Store) GetTarget(id string) (Target, error) {
	var t Target
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, name, profile_json, created_at
		FROM targets WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.ProfileJSON, &createdAt)
	if err == sql.ErrNoRows {
		return Target{}, ErrNotFound
	}
	if err != nil {
		return Target{}, err
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Target{}, fmt.Errorf("parsing created_at: %w", err)
	}
	t.CreatedAt = ts
	return t, nil
}

func (s *Store) ListTargets(userID string) ([]Target, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, profile_json, created_at
		FROM targets WHERE user_id = ? ORDER BY created_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Target
	for rows.Next() {
		var t Target
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.ProfileJSON, &createdAt); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		t.CreatedAt = ts
		results = append(results, t)
	}
	return results, rows.Err()
}

func (s *Store) UpdateTargetProfile(id string, profileJSON string) error {
	res, err := s.db.Exec(`UPDATE targets SET profile_json = ? WHERE id = ?`, profileJSON, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
