package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_sessions",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_session_events",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Starting state of every session. The profile is the snapshot taken
-- before the first event; it never changes afterwards.
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY,
    student_name VARCHAR(100) NOT NULL,
    class_id VARCHAR(16) NOT NULL,
    profile JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_class_id ON sessions(class_id);
`

const migration001Down = `
DROP TABLE IF EXISTS sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE SESSION EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Ordered event journal. (session_id, seq) is the primary key, so two
-- writers racing for the same sequence number cannot both succeed.
CREATE TABLE IF NOT EXISTS session_events (
    session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    kind VARCHAR(32) NOT NULL,
    payload JSONB,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (session_id, seq),
    CONSTRAINT valid_seq CHECK (seq > 0),
    CONSTRAINT valid_kind CHECK (kind IN ('lesson_completed', 'xp_awarded', 'item_toggled', 'milestone_reached', 'kit_reset'))
);
`

const migration002Down = `
DROP TABLE IF EXISTS session_events;
`
