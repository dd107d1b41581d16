// Package sqlite provides a SQLite-backed session journal for single-device
// deployments. It stores the same records as the PostgreSQL journal.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

//go:embed schema.sql
var schemaSQL string

// Journal persists sessions and their events in SQLite.
type Journal struct {
	sqlDB *sql.DB
}

var _ session.Journal = (*Journal)(nil)

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal and applies the embedded schema.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps the sequence check and insert atomic.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (j *Journal) Close() error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	return j.sqlDB.Close()
}

// Create implements session.Journal.
func (j *Journal) Create(ctx context.Context, rec session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = j.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, student_name, class_id, profile, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Profile.Name, rec.Profile.ClassID, string(profile), toMillis(rec.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrSessionExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Append implements session.Journal.
func (j *Journal) Append(ctx context.Context, id shared.SessionID, entry session.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := j.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return shared.ErrSessionNotFound
	}

	var last int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM session_events WHERE session_id = ?`, id.String()).Scan(&last)
	if err != nil {
		return fmt.Errorf("read last sequence: %w", err)
	}
	if entry.Seq != last+1 {
		return shared.ErrSequenceGap
	}

	var payload sql.NullString
	if len(entry.Envelope.Payload) > 0 {
		payload = sql.NullString{String: string(entry.Envelope.Payload), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_events (session_id, seq, kind, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), entry.Seq, string(entry.Envelope.Kind), payload, toMillis(entry.OccurredAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrSequenceGap
		}
		return fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load implements session.Journal.
func (j *Journal) Load(ctx context.Context, id shared.SessionID) (session.Record, []session.Entry, error) {
	if err := ctx.Err(); err != nil {
		return session.Record{}, nil, err
	}

	var (
		profile string
		created int64
	)
	err := j.sqlDB.QueryRowContext(ctx, `SELECT profile, created_at FROM sessions WHERE id = ?`, id.String()).Scan(&profile, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Record{}, nil, shared.ErrSessionNotFound
		}
		return session.Record{}, nil, fmt.Errorf("load session: %w", err)
	}

	rec := session.Record{ID: id, CreatedAt: fromMillis(created)}
	if err := json.Unmarshal([]byte(profile), &rec.Profile); err != nil {
		return session.Record{}, nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	rows, err := j.sqlDB.QueryContext(ctx,
		`SELECT seq, kind, payload, occurred_at FROM session_events WHERE session_id = ? ORDER BY seq`,
		id.String(),
	)
	if err != nil {
		return session.Record{}, nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []session.Entry
	for rows.Next() {
		var (
			e        session.Entry
			kind     string
			payload  sql.NullString
			occurred int64
		)
		if err := rows.Scan(&e.Seq, &kind, &payload, &occurred); err != nil {
			return session.Record{}, nil, fmt.Errorf("scan event: %w", err)
		}
		e.Envelope = session.Envelope{Kind: session.Kind(kind)}
		if payload.Valid {
			e.Envelope.Payload = json.RawMessage(payload.String)
		}
		e.OccurredAt = fromMillis(occurred)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return session.Record{}, nil, fmt.Errorf("iterate events: %w", err)
	}

	return rec, entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
