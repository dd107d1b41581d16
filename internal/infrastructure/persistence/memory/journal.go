// Package memory provides in-process implementations of the session journal
// and the class score board. They back development runs and tests when
// PostgreSQL, SQLite or Redis are not configured.
package memory

import (
	"context"
	"sync"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// Journal is a mutex-guarded map of session records and event entries.
type Journal struct {
	mu      sync.RWMutex
	records map[shared.SessionID]session.Record
	entries map[shared.SessionID][]session.Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{
		records: make(map[shared.SessionID]session.Record),
		entries: make(map[shared.SessionID][]session.Entry),
	}
}

var _ session.Journal = (*Journal)(nil)

// Create implements session.Journal.
func (j *Journal) Create(ctx context.Context, rec session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.records[rec.ID]; ok {
		return shared.ErrSessionExists
	}
	j.records[rec.ID] = rec
	j.entries[rec.ID] = nil
	return nil
}

// Append implements session.Journal.
func (j *Journal) Append(ctx context.Context, id shared.SessionID, entry session.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.records[id]; !ok {
		return shared.ErrSessionNotFound
	}
	if entry.Seq != len(j.entries[id])+1 {
		return shared.ErrSequenceGap
	}
	j.entries[id] = append(j.entries[id], entry)
	return nil
}

// Load implements session.Journal.
func (j *Journal) Load(ctx context.Context, id shared.SessionID) (session.Record, []session.Entry, error) {
	if err := ctx.Err(); err != nil {
		return session.Record{}, nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	rec, ok := j.records[id]
	if !ok {
		return session.Record{}, nil, shared.ErrSessionNotFound
	}
	entries := make([]session.Entry, len(j.entries[id]))
	copy(entries, j.entries[id])
	return rec, entries, nil
}

// Len returns the number of stored sessions.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}
