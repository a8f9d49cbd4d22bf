// Package ledger keeps the versioned donation history of one campaign.
//
// Each donation identifier owns a lineage: an append-only sequence of
// versions numbered from 0 without gaps. Versions are never replaced or
// removed. The ledger maintains two aggregates across all lineages: the
// number of lineages and the sum of every lineage's latest amount.
package ledger

import (
	"math"

	"fundraiser/internal/domain"
)

// MaxUpdates is the widest number of corrections a lineage can hold given
// the width of domain.Version.
const MaxUpdates = math.MaxUint8

type Ledger struct {
	maxUpdates int
	lineages   map[domain.DonationHandle][]domain.Donation
	order      []domain.DonationHandle
	funds      domain.Amount
}

// New returns an empty ledger accepting up to maxUpdates corrections per
// lineage. Values outside [0, MaxUpdates] fall back to MaxUpdates.
func New(maxUpdates int) *Ledger {
	if maxUpdates < 0 || maxUpdates > MaxUpdates {
		maxUpdates = MaxUpdates
	}
	return &Ledger{
		maxUpdates: maxUpdates,
		lineages:   make(map[domain.DonationHandle][]domain.Donation),
	}
}

// Register starts the lineage of d.ID with version 0.
func (l *Ledger) Register(d domain.Donation) (domain.Donation, error) {
	key := domain.DonationKey(d.ID)
	if len(l.lineages[key]) > 0 {
		return domain.Donation{}, domain.Fail(domain.ErrDonationAlreadyExists, "donation", d.ID)
	}
	d = d.Clone()
	d.Version = 0
	l.lineages[key] = []domain.Donation{d}
	l.order = append(l.order, key)
	l.funds = l.funds.Add(d.Amount)
	return d.Clone(), nil
}

// Update appends a correction to the lineage of d.ID and returns the stored
// version.
func (l *Ledger) Update(d domain.Donation) (domain.Donation, error) {
	key := domain.DonationKey(d.ID)
	versions := l.lineages[key]
	if len(versions) == 0 {
		return domain.Donation{}, domain.Fail(domain.ErrDonationNotFound, "donation", d.ID)
	}
	if len(versions)-1 >= l.maxUpdates {
		return domain.Donation{}, domain.Fail(domain.ErrTooManyDonationUpdates,
			"donation", d.ID, "limit", l.maxUpdates)
	}
	previous := versions[len(versions)-1]
	d = d.Clone()
	d.Version = domain.Version(len(versions))
	l.lineages[key] = append(versions, d)
	l.funds = l.funds.Replace(previous.Amount, d.Amount)
	return d.Clone(), nil
}

// Find addresses a version of the lineage of id. See Resolve for the
// addressing rule.
func (l *Ledger) Find(id domain.ID, version int) (domain.Donation, bool) {
	versions := l.lineages[domain.DonationKey(id)]
	idx, ok := Resolve(version, len(versions))
	if !ok {
		return domain.Donation{}, false
	}
	return versions[idx].Clone(), true
}

// History returns every version of the lineage of id, oldest first.
func (l *Ledger) History(id domain.ID) []domain.Donation {
	versions := l.lineages[domain.DonationKey(id)]
	out := make([]domain.Donation, 0, len(versions))
	for _, d := range versions {
		out = append(out, d.Clone())
	}
	return out
}

// Versions returns the length of the lineage of id.
func (l *Ledger) Versions(id domain.ID) int {
	return len(l.lineages[domain.DonationKey(id)])
}

// Latest calls fn with the latest version of each lineage in registration
// order.
func (l *Ledger) Latest(fn func(domain.Donation)) {
	for _, key := range l.order {
		versions := l.lineages[key]
		fn(versions[len(versions)-1].Clone())
	}
}

// Lineages is the number of registered donation identifiers.
func (l *Ledger) Lineages() uint64 { return uint64(len(l.order)) }

// Funds is the sum of every lineage's latest amount.
func (l *Ledger) Funds() domain.Amount { return l.funds }

// MaxUpdates is the configured correction ceiling per lineage.
func (l *Ledger) MaxUpdates() int { return l.maxUpdates }
