// Package campaign holds a single campaign: its details, its lock state, its
// position in the owning registry's active view and its donation ledger.
package campaign

import (
	"context"

	"fundraiser/internal/domain"
	"fundraiser/internal/ledger"
)

// Sentinel is the position of a record that is not in an active view.
const Sentinel = -1

// Owner is the registry a record belongs to. Records reach their
// collaborators through it so that the registry can swap them as a whole.
type Owner interface {
	Name() string
	Authorizer() domain.Authorizer
	Notifier() domain.Notifier
}

// Record is one campaign. It is created by its registry and never destroyed.
type Record struct {
	exists    bool
	owner     Owner
	placement *Placement
	position  int
	details   domain.CampaignDetails
	donations *ledger.Ledger
}

// New binds a record to owner at the given position. Only the holder of
// placement can move it later on.
func New(owner Owner, placement *Placement, position int, details domain.CampaignDetails, maxUpdates int) *Record {
	return &Record{
		exists:    true,
		owner:     owner,
		placement: placement,
		position:  position,
		details:   details,
		donations: ledger.New(maxUpdates),
	}
}

func (r *Record) Exists() bool { return r.exists }

func (r *Record) ID() domain.ID { return r.details.ID }

func (r *Record) Details() domain.CampaignDetails { return r.details }

// Position is the record's index in the active view, or Sentinel.
func (r *Record) Position() int { return r.position }

func (r *Record) Archived() bool { return r.position == Sentinel }

// Locked reports whether the campaign accepted funding. Details are frozen
// from then on.
func (r *Record) Locked() bool { return r.donations.Lineages() > 0 }

// TotalDonations is the number of distinct donation lineages.
func (r *Record) TotalDonations() uint64 { return r.donations.Lineages() }

// TotalFunds is the sum of every lineage's latest amount.
func (r *Record) TotalFunds() domain.Amount { return r.donations.Funds() }

// UpdateDetails replaces the details of an unlocked campaign.
func (r *Record) UpdateDetails(ctx context.Context, details domain.CampaignDetails) error {
	if err := domain.Authorize(ctx, r.owner.Authorizer()); err != nil {
		return err
	}
	if !details.ID.Equal(r.details.ID) {
		return domain.Fail(domain.ErrCampaignMismatch, "campaign", r.details.ID, "got", details.ID)
	}
	if r.Locked() {
		return domain.Fail(domain.ErrLockedCampaign, "campaign", r.details.ID)
	}
	r.details = details
	return nil
}

// RegisterDonation opens the lineage of d.ID. The stored value has version 0
// and is linked to this campaign.
func (r *Record) RegisterDonation(ctx context.Context, d domain.Donation) (domain.Donation, error) {
	if err := domain.Authorize(ctx, r.owner.Authorizer()); err != nil {
		return domain.Donation{}, err
	}
	if r.Archived() {
		return domain.Donation{}, domain.Fail(domain.ErrAlreadyArchivedCampaign, "campaign", r.details.ID)
	}
	d.Campaign = r.details.ID
	stored, err := r.donations.Register(d)
	if err != nil {
		return domain.Donation{}, err
	}
	r.notify(ctx, domain.DonationRegistered{Campaign: r.details.ID, Donation: stored.ID})
	return stored, nil
}

// UpdateDonation appends a correction to the lineage of d.ID and returns the
// version it was stored under.
func (r *Record) UpdateDonation(ctx context.Context, d domain.Donation) (domain.Version, error) {
	if err := domain.Authorize(ctx, r.owner.Authorizer()); err != nil {
		return 0, err
	}
	d.Campaign = r.details.ID
	stored, err := r.donations.Update(d)
	if err != nil {
		return 0, err
	}
	r.notify(ctx, domain.DonationUpdated{Campaign: r.details.ID, Donation: stored.ID, Version: stored.Version})
	return stored.Version, nil
}

// RetrieveDonation returns the latest version of the lineage of id.
func (r *Record) RetrieveDonation(id domain.ID) (domain.Donation, error) {
	d, ok := r.FindDonation(id, -1)
	if !ok {
		return domain.Donation{}, domain.Fail(domain.ErrDonationNotFound, "campaign", r.details.ID, "donation", id)
	}
	return d, nil
}

// FindDonation addresses a version of the lineage of id; see ledger.Resolve.
func (r *Record) FindDonation(id domain.ID, version int) (domain.Donation, bool) {
	return r.donations.Find(id, version)
}

// DonationHistory returns all versions of the lineage of id, oldest first.
func (r *Record) DonationHistory(id domain.ID) []domain.Donation {
	return r.donations.History(id)
}

// EachLatestDonation visits the latest version of every lineage in
// registration order.
func (r *Record) EachLatestDonation(fn func(domain.Donation)) {
	r.donations.Latest(fn)
}

// Snapshot copies the record's observable state.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		Registry:       r.owner.Name(),
		Details:        r.details,
		Position:       r.position,
		Archived:       r.Archived(),
		Locked:         r.Locked(),
		TotalDonations: r.TotalDonations(),
		TotalFunds:     r.TotalFunds(),
	}
}

func (r *Record) notify(ctx context.Context, evt domain.Event) {
	if n := r.owner.Notifier(); n != nil {
		n.Notify(ctx, evt)
	}
}

// Snapshot is a read-only copy of a record.
type Snapshot struct {
	Registry       string
	Details        domain.CampaignDetails
	Position       int
	Archived       bool
	Locked         bool
	TotalDonations uint64
	TotalFunds     domain.Amount
}
