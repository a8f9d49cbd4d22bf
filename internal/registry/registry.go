// Package registry owns every campaign of a deployment.
//
// Records are keyed by identifier and never removed. The active view is a
// compact ordered slice of the records that are not archived; each record
// keeps its own index into it. Only the registry moves records inside the
// view, through its campaign.Placement, and only while an archive runs.
package registry

import (
	"context"
	"fmt"
	"math"

	"fundraiser/internal/campaign"
	"fundraiser/internal/domain"
	"fundraiser/internal/ledger"
)

const (
	DefaultMaxActiveCampaigns = 1000
	DefaultMaxSelectLimit     = 100
)

// Limits are the registry's observable ceilings.
type Limits struct {
	// MaxActiveCampaigns bounds the active view so that scans over it stay
	// cheap.
	MaxActiveCampaigns int
	// MaxSelectLimit caps the page size of SelectActive.
	MaxSelectLimit int
	// DonationUpdatesLimit bounds corrections per donation lineage.
	DonationUpdatesLimit int
	// MaxTotalCampaigns is the ceiling of the created counter.
	MaxTotalCampaigns uint64
	// AllowDuplicateIDs disables the identifier uniqueness check on create.
	// A duplicate then replaces the keyed entry of the earlier record.
	AllowDuplicateIDs bool
}

func DefaultLimits() Limits {
	return Limits{
		MaxActiveCampaigns:   DefaultMaxActiveCampaigns,
		MaxSelectLimit:       DefaultMaxSelectLimit,
		DonationUpdatesLimit: ledger.MaxUpdates,
		MaxTotalCampaigns:    math.MaxUint64,
	}
}

type Registry struct {
	name      string
	limits    Limits
	auth      domain.Authorizer
	notifier  domain.Notifier
	placement *campaign.Placement
	records   map[domain.CampaignHandle]*campaign.Record
	active    []*campaign.Record
	total     uint64
}

// New returns an empty registry. Zero limits fall back to DefaultLimits.
func New(name string, limits Limits, auth domain.Authorizer, notifier domain.Notifier) *Registry {
	defaults := DefaultLimits()
	if limits.MaxActiveCampaigns <= 0 {
		limits.MaxActiveCampaigns = defaults.MaxActiveCampaigns
	}
	if limits.MaxSelectLimit <= 0 {
		limits.MaxSelectLimit = defaults.MaxSelectLimit
	}
	if limits.DonationUpdatesLimit <= 0 || limits.DonationUpdatesLimit > ledger.MaxUpdates {
		limits.DonationUpdatesLimit = defaults.DonationUpdatesLimit
	}
	if limits.MaxTotalCampaigns == 0 {
		limits.MaxTotalCampaigns = defaults.MaxTotalCampaigns
	}
	return &Registry{
		name:      name,
		limits:    limits,
		auth:      auth,
		notifier:  notifier,
		placement: campaign.NewPlacement(),
		records:   make(map[domain.CampaignHandle]*campaign.Record),
	}
}

func (r *Registry) Name() string { return r.name }

func (r *Registry) Authorizer() domain.Authorizer { return r.auth }

func (r *Registry) Notifier() domain.Notifier { return r.notifier }

func (r *Registry) Limits() Limits { return r.limits }

// Attach swaps the registry's collaborators. Records pick them up through
// their owner reference.
func (r *Registry) Attach(auth domain.Authorizer, notifier domain.Notifier) {
	r.auth = auth
	r.notifier = notifier
}

// Create issues a new record at the end of the active view.
func (r *Registry) Create(ctx context.Context, details domain.CampaignDetails) (*campaign.Record, error) {
	if err := domain.Authorize(ctx, r.auth); err != nil {
		return nil, err
	}
	if r.total >= r.limits.MaxTotalCampaigns {
		return nil, domain.Fail(domain.ErrTotalOverflow, "total", r.total)
	}
	if len(r.active) >= r.limits.MaxActiveCampaigns {
		return nil, domain.Fail(domain.ErrTooManyActiveCampaigns,
			"active", len(r.active), "limit", r.limits.MaxActiveCampaigns)
	}
	key := domain.CampaignKey(details.ID)
	if _, exists := r.records[key]; exists && !r.limits.AllowDuplicateIDs {
		return nil, domain.Fail(domain.ErrDuplicatedCampaign, "campaign", details.ID)
	}

	rec := campaign.New(r, r.placement, len(r.active), details, r.limits.DonationUpdatesLimit)
	r.records[key] = rec
	r.active = append(r.active, rec)
	r.total++
	r.notify(ctx, domain.CampaignCreated{Registry: r.name, Campaign: details.ID})
	return rec, nil
}

// Count returns the campaigns ever created, the active ones and the archived
// ones.
func (r *Registry) Count() (total, active, archived uint64) {
	active = uint64(len(r.active))
	return r.total, active, r.total - active
}

// SelectActive returns a page of the active view starting at offset.
func (r *Registry) SelectActive(offset, limit int) ([]*campaign.Record, error) {
	if offset < 0 || offset >= len(r.active) || limit < 0 {
		return nil, domain.Fail(domain.ErrIllegalOffsetLimit,
			"offset", offset, "limit", limit, "active", len(r.active))
	}
	end := offset + min(limit, len(r.active)-offset, r.limits.MaxSelectLimit)
	out := make([]*campaign.Record, end-offset)
	copy(out, r.active[offset:end])
	return out, nil
}

// Lookup finds a record by identifier, archived or not.
func (r *Registry) Lookup(id domain.ID) (*campaign.Record, error) {
	rec, ok := r.records[domain.CampaignKey(id)]
	if !ok {
		return nil, domain.Fail(domain.ErrCampaignNotFound, "campaign", id)
	}
	return rec, nil
}

// Archive removes a record from the active view. With preserveOrdering the
// tail shifts left by one; otherwise the last record fills the hole.
func (r *Registry) Archive(ctx context.Context, id domain.ID, preserveOrdering bool) error {
	if err := domain.Authorize(ctx, r.auth); err != nil {
		return err
	}
	rec, err := r.Lookup(id)
	if err != nil {
		return err
	}
	if rec.Archived() {
		return domain.Fail(domain.ErrAlreadyArchivedCampaign, "campaign", id)
	}
	index := rec.Position()
	if index < 0 || index >= len(r.active) || r.active[index] != rec {
		return fmt.Errorf("registry: active view out of sync for campaign %s at %d", id, index)
	}

	closePlacement := r.placement.Open()
	defer closePlacement()

	if err := r.placement.Assign(rec, campaign.Sentinel); err != nil {
		return err
	}
	if preserveOrdering {
		err = r.shiftRemove(index)
	} else {
		err = r.swapRemove(index)
	}
	if err != nil {
		return err
	}
	r.notify(ctx, domain.CampaignArchived{Registry: r.name, Campaign: id, PreviousIndex: index})
	return nil
}

func (r *Registry) swapRemove(index int) error {
	last := len(r.active) - 1
	if index != last {
		moved := r.active[last]
		if err := r.placement.Assign(moved, index); err != nil {
			return err
		}
		r.active[index] = moved
	}
	r.active[last] = nil
	r.active = r.active[:last]
	return nil
}

func (r *Registry) shiftRemove(index int) error {
	for i := index + 1; i < len(r.active); i++ {
		if err := r.placement.Assign(r.active[i], i-1); err != nil {
			return err
		}
		r.active[i-1] = r.active[i]
	}
	last := len(r.active) - 1
	r.active[last] = nil
	r.active = r.active[:last]
	return nil
}

func (r *Registry) notify(ctx context.Context, evt domain.Event) {
	if r.notifier != nil {
		r.notifier.Notify(ctx, evt)
	}
}
