// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for sessions and flips.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			source TEXT NOT NULL,
			history_size INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS flips (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			label INTEGER NOT NULL,
			prob_zero REAL NOT NULL,
			flipped_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flips_flipped_at ON flips(flipped_at);`,
		`CREATE INDEX IF NOT EXISTS idx_flips_session_id ON flips(session_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartSession stores a new session and returns its ID.
func (s *Store) StartSession(ctx context.Context, info model.SessionInfo) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, source, history_size) VALUES (?, ?, ?, ?)`,
		id,
		formatTime(info.StartedAt),
		info.Source,
		info.HistorySize,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertFlip stores a settled flip.
func (s *Store) InsertFlip(ctx context.Context, sessionID string, result coin.FlipResult) error {
	id := result.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flips (id, session_id, label, prob_zero, flipped_at) VALUES (?, ?, ?, ?, ?)`,
		id,
		sessionID,
		int(result.Label),
		result.ProbabilityOfZero,
		formatTime(result.Timestamp),
	)
	return err
}

// ListFlips returns flips in chronological order, filtered by since and
// limited to the last cfg.Last flips when set.
func (s *Store) ListFlips(ctx context.Context, cfg model.StatsConfig) ([]coin.FlipResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "flipped_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, label, prob_zero, flipped_at
		FROM flips
		WHERE %s
		ORDER BY flipped_at DESC, rowid DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var flips []coin.FlipResult
	for rows.Next() {
		var (
			r         coin.FlipResult
			label     int
			flippedAt string
		)
		if err := rows.Scan(&r.ID, &label, &r.ProbabilityOfZero, &flippedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, flippedAt)
		if err != nil {
			return nil, err
		}
		r.Label = coin.Label(label)
		r.Timestamp = parsed
		flips = append(flips, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(flips)-1; i < j; i, j = i+1, j-1 {
		flips[i], flips[j] = flips[j], flips[i]
	}
	return flips, nil
}

// ListSessions returns sessions started since cfg.Since with per-session
// counts, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT s.id, s.started_at, s.source,
			COUNT(f.id) AS flips,
			COALESCE(SUM(CASE WHEN f.label = 0 THEN 1 ELSE 0 END), 0) AS heads,
			COALESCE(SUM(CASE WHEN f.label = 1 THEN 1 ELSE 0 END), 0) AS tails,
			COALESCE(MAX(f.flipped_at), '') AS last_flip
		FROM sessions s
		LEFT JOIN flips f ON f.session_id = s.id
		WHERE %s
		GROUP BY s.id
		ORDER BY s.started_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt, lastFlip string
		if err := rows.Scan(&agg.SessionID, &startedAt, &agg.Source, &agg.Flips, &agg.Heads, &agg.Tails, &lastFlip); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, err
		}
		agg.StartedAt = parsed
		if lastFlip != "" {
			last, err := time.Parse(timeLayout, lastFlip)
			if err != nil {
				return nil, err
			}
			agg.LastFlipAt = last
		}
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Reset deletes every stored session and flip.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flips`); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
