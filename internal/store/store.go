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

	"github.com/verte-zerg/nback/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Preference keys used by the trainer.
const (
	PrefNLevel = "n-level"
)

// Store wraps SQLite access for session history and preferences.
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
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			n_level INTEGER NOT NULL,
			trials INTEGER NOT NULL,
			stimulus_ms INTEGER NOT NULL,
			audio_enabled INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			visual_accuracy REAL NOT NULL,
			audio_accuracy REAL NOT NULL,
			avg_response_ms REAL NOT NULL,
			response_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_modality_stats (
			session_id INTEGER NOT NULL,
			modality TEXT NOT NULL,
			actual_matches INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			false_alarms INTEGER NOT NULL,
			correct_rejections INTEGER NOT NULL,
			scored_trials INTEGER NOT NULL,
			PRIMARY KEY (session_id, modality)
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_modality_stats_modality ON session_modality_stats(modality);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its per-modality counts.
func (s *Store) InsertSession(ctx context.Context, session model.GameSession) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	audioEnabled := 0
	if session.AudioEnabled {
		audioEnabled = 1
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, mode, n_level, trials, stimulus_ms, audio_enabled, accuracy, visual_accuracy, audio_accuracy, avg_response_ms, response_count, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.StartedAt.Format(time.RFC3339Nano),
		session.EndedAt.Format(time.RFC3339Nano),
		string(session.Mode),
		session.NLevel,
		session.NumTrials,
		session.StimulusDurationMs,
		audioEnabled,
		session.Accuracy,
		session.VisualAccuracy,
		session.AudioAccuracy,
		session.AverageResponseTimeMs,
		session.ResponseCount,
		session.EndedAt.Sub(session.StartedAt).Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_modality_stats (session_id, modality, actual_matches, hits, misses, false_alarms, correct_rejections, scored_trials)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	if session.Mode.ScoresVisual() {
		if _, err = stmt.ExecContext(ctx, id, "visual", session.Visual.ActualMatches, session.Visual.Hits, session.Visual.Misses, session.Visual.FalseAlarms, session.Visual.CorrectRejections, session.Visual.ScoredTrials); err != nil {
			return 0, err
		}
	}
	if session.Mode.ScoresAudio() {
		if _, err = stmt.ExecContext(ctx, id, "audio", session.Audio.ActualMatches, session.Audio.Hits, session.Audio.Misses, session.Audio.FalseAlarms, session.Audio.CorrectRejections, session.Audio.ScoredTrials); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, mode, n_level, trials, accuracy, avg_response_ms, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
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
		var endedAt, mode string
		if err := rows.Scan(&agg.SessionID, &endedAt, &mode, &agg.NLevel, &agg.NumTrials, &agg.Accuracy, &agg.AvgRTMs, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Mode = model.GameMode(mode)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListModalityAggregatesForSessions sums per-modality counts across sessions.
func (s *Store) ListModalityAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.ModalityAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT modality, SUM(actual_matches), SUM(hits), SUM(misses),
		SUM(false_alarms), SUM(correct_rejections), SUM(scored_trials)
		FROM session_modality_stats
		WHERE session_id IN (%s)
		GROUP BY modality
		ORDER BY modality DESC`, strings.Join(placeholders, ","))
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

	var result []model.ModalityAggregate
	for rows.Next() {
		var agg model.ModalityAggregate
		if err := rows.Scan(&agg.Modality, &agg.ActualMatches, &agg.Hits, &agg.Misses, &agg.FalseAlarms, &agg.CorrectRejections, &agg.ScoredTrials); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPreference reads a stored preference value.
func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreference writes a preference value, replacing any existing one.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
