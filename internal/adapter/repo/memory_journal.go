package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"fundraiser/internal/domain"
)

// MemoryJournal keeps the journal in process. It backs development runs and
// tests.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
}

func NewMemoryJournal() *MemoryJournal { return &MemoryJournal{} }

func (j *MemoryJournal) Append(_ context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.Seq = uint64(len(j.entries)) + 1
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	entry.Payload = slices.Clone(entry.Payload)
	j.entries = append(j.entries, entry)
	return entry, nil
}

func (j *MemoryJournal) List(_ context.Context, afterSeq uint64, limit int) ([]domain.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if afterSeq >= uint64(len(j.entries)) || limit <= 0 {
		return nil, nil
	}
	end := min(uint64(len(j.entries)), afterSeq+uint64(limit))
	return slices.Clone(j.entries[afterSeq:end]), nil
}

var _ domain.Journal = (*MemoryJournal)(nil)
