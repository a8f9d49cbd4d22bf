package repo

import (
	"context"
	"fmt"
	"time"

	"fundraiser/internal/domain"
	"fundraiser/internal/infra"
	"fundraiser/internal/sqlinline"
)

// JournalRepositoryPG stores the campaign journal in PostgreSQL.
type JournalRepositoryPG struct {
	db  infra.SQLExecutor
	now func() time.Time
}

func NewJournalRepository(db infra.SQLExecutor) *JournalRepositoryPG {
	return &JournalRepositoryPG{db: db, now: time.Now}
}

// Append inserts entry and returns it with the sequence number the database
// assigned.
func (r *JournalRepositoryPG) Append(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = r.now().UTC()
	}
	var seq int64
	err := r.db.QueryRow(ctx, sqlinline.QAppendJournal,
		entry.EntryID,
		string(entry.Kind),
		entry.Campaign.String(),
		entry.Caller,
		[]byte(entry.Payload),
		entry.RecordedAt,
	).Scan(&seq)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("append journal entry %s: %w", entry.Kind, err)
	}
	entry.Seq = uint64(seq)
	return entry, nil
}

// List returns up to limit entries with a sequence number above afterSeq, in
// sequence order.
func (r *JournalRepositoryPG) List(ctx context.Context, afterSeq uint64, limit int) ([]domain.JournalEntry, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListJournal, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var items []domain.JournalEntry
	for rows.Next() {
		var (
			seq      int64
			kind     string
			campaign string
			payload  []byte
			entry    domain.JournalEntry
		)
		if err := rows.Scan(&seq, &entry.EntryID, &kind, &campaign, &entry.Caller, &payload, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		id, err := domain.ParseID(campaign)
		if err != nil {
			return nil, fmt.Errorf("journal entry %d: %w", seq, err)
		}
		entry.Seq = uint64(seq)
		entry.Kind = domain.JournalKind(kind)
		entry.Campaign = id
		entry.Payload = payload
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return items, nil
}

var _ domain.Journal = (*JournalRepositoryPG)(nil)
