package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// JournalRepository implements session.Journal for PostgreSQL.
type JournalRepository struct {
	conn *Connection
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(conn *Connection) *JournalRepository {
	return &JournalRepository{conn: conn}
}

var _ session.Journal = (*JournalRepository)(nil)

// Create stores the starting state of a session.
func (r *JournalRepository) Create(ctx context.Context, rec session.Record) error {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO sessions (id, student_name, class_id, profile, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID.String(), rec.Profile.Name, rec.Profile.ClassID, profile, createdAt(rec.CreatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Append stores the next event of a session. The session row is locked for
// the duration of the check so concurrent writers are serialised.
func (r *JournalRepository) Append(ctx context.Context, id shared.SessionID, entry session.Entry) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var locked int
		err := tx.QueryRow(ctx, `SELECT 1 FROM sessions WHERE id = $1 FOR UPDATE`, id.String()).Scan(&locked)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session: %w", err)
		}

		var last int
		err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM session_events WHERE session_id = $1`, id.String()).Scan(&last)
		if err != nil {
			return fmt.Errorf("failed to read last sequence: %w", err)
		}
		if entry.Seq != last+1 {
			return shared.ErrSequenceGap
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO session_events (session_id, seq, kind, payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5)
		`, id.String(), entry.Seq, string(entry.Envelope.Kind), payloadArg(entry.Envelope.Payload), createdAt(entry.OccurredAt))
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrSequenceGap
			}
			return fmt.Errorf("failed to append event: %w", err)
		}
		return nil
	})
}

// Load returns the starting state and the ordered events of a session.
func (r *JournalRepository) Load(ctx context.Context, id shared.SessionID) (session.Record, []session.Entry, error) {
	rec := session.Record{ID: id}

	var profile []byte
	err := r.conn.QueryRow(ctx, `SELECT profile, created_at FROM sessions WHERE id = $1`, id.String()).
		Scan(&profile, &rec.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return session.Record{}, nil, shared.ErrSessionNotFound
		}
		return session.Record{}, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(profile, &rec.Profile); err != nil {
		return session.Record{}, nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT seq, kind, payload, occurred_at
		FROM session_events
		WHERE session_id = $1
		ORDER BY seq
	`, id.String())
	if err != nil {
		return session.Record{}, nil, fmt.Errorf("failed to query events: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (session.Entry, error) {
		var (
			e       session.Entry
			kind    string
			payload []byte
		)
		if err := row.Scan(&e.Seq, &kind, &payload, &e.OccurredAt); err != nil {
			return session.Entry{}, err
		}
		e.Envelope = session.Envelope{Kind: session.Kind(kind), Payload: payload}
		return e, nil
	})
	if err != nil {
		return session.Record{}, nil, fmt.Errorf("failed to scan events: %w", err)
	}

	return rec, entries, nil
}

func payloadArg(p json.RawMessage) any {
	if len(p) == 0 {
		return nil
	}
	return []byte(p)
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
