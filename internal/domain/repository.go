package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Authorizer restricts gated operations to the designated owner.
type Authorizer interface {
	CurrentCaller(ctx context.Context) string
	IsAuthorized(caller string) bool
}

// Authorize rejects with ErrUnauthorized unless the current caller is
// authorized.
func Authorize(ctx context.Context, a Authorizer) error {
	if a == nil {
		return Fail(ErrUnauthorized, "caller", "")
	}
	caller := a.CurrentCaller(ctx)
	if !a.IsAuthorized(caller) {
		return Fail(ErrUnauthorized, "caller", caller)
	}
	return nil
}

// Notifier receives events. Delivery is fire and forget: implementations
// must not panic and report their own failures.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// JournalKind names a journaled mutation.
type JournalKind string

const (
	JournalCampaignCreated    JournalKind = "campaign.created"
	JournalDetailsUpdated     JournalKind = "campaign.details_updated"
	JournalCampaignArchived   JournalKind = "campaign.archived"
	JournalDonationRegistered JournalKind = "donation.registered"
	JournalDonationUpdated    JournalKind = "donation.updated"
)

// JournalEntry is one committed mutation. Seq is assigned by the journal.
type JournalEntry struct {
	Seq        uint64
	EntryID    string
	Kind       JournalKind
	Campaign   ID
	Caller     string
	Payload    json.RawMessage
	RecordedAt time.Time
}

// Journal is the durable, append-only record of committed mutations.
type Journal interface {
	Append(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	List(ctx context.Context, afterSeq uint64, limit int) ([]JournalEntry, error)
}
