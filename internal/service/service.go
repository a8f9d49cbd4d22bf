// Package service serializes access to a campaign registry and makes every
// mutation durable.
//
// A mutation is applied in memory first and then appended to the journal.
// When the append fails the registry is rebuilt from the journal, so the
// failed mutation leaves no trace. Events raised by a mutation reach the
// notifier only after its journal entry is committed.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fundraiser/internal/campaign"
	"fundraiser/internal/domain"
	"fundraiser/internal/notify"
	"fundraiser/internal/registry"
)

// ErrUnavailable is returned while the in-memory state cannot be trusted
// because the journal could not be read back after a failed append.
var ErrUnavailable = errors.New("campaign service unavailable")

const replayPageSize = 500

type Options struct {
	Name     string
	Limits   registry.Limits
	Auth     domain.Authorizer
	Notifier domain.Notifier
	Journal  domain.Journal
	Logger   zerolog.Logger
}

type Service struct {
	mu       sync.Mutex
	name     string
	limits   registry.Limits
	auth     domain.Authorizer
	notifier domain.Notifier
	journal  domain.Journal
	logger   zerolog.Logger

	reg     *registry.Registry
	pending notify.Buffer
	head    uint64
	stale   bool

	now     func() time.Time
	entryID func() string
}

// New replays the journal into a fresh registry and returns a service ready
// to accept operations.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Journal == nil {
		return nil, errors.New("service: journal is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("service: authorizer is required")
	}
	s := &Service{
		name:     opts.Name,
		limits:   opts.Limits,
		auth:     opts.Auth,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		logger:   opts.Logger.With().Str("component", "service").Str("registry", opts.Name).Logger(),
		now:      time.Now,
		entryID:  uuid.NewString,
	}
	if err := s.rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild replaces the registry with one replayed from the journal.
func (s *Service) rebuild(ctx context.Context) error {
	reg, head, err := Replay(ctx, s.journal, s.name, s.limits)
	if err != nil {
		s.stale = true
		return err
	}
	reg.Attach(s.auth, &s.pending)
	s.reg, s.head, s.stale = reg, head, false
	s.logger.Info().Uint64("head", head).Msg("registry rebuilt from journal")
	return nil
}

// ready must be called with mu held.
func (s *Service) ready(ctx context.Context) error {
	if !s.stale {
		return nil
	}
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// commit runs op against the registry and journals it under kind. op must
// leave the registry unchanged when it fails. Events raised by op are
// delivered after mu is released.
func (s *Service) commit(ctx context.Context, kind domain.JournalKind, campaignID domain.ID, payload any, op func() error) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	events, err := s.apply(ctx, kind, campaignID, raw, op)
	if err != nil {
		return err
	}
	notify.Deliver(ctx, s.notifier, events)
	return nil
}

// apply runs op and appends its journal entry under mu. It returns the
// events op raised once the entry is durable.
func (s *Service) apply(ctx context.Context, kind domain.JournalKind, campaignID domain.ID, raw []byte, op func() error) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.pending.Reset()
	if err := op(); err != nil {
		s.pending.Reset()
		return nil, err
	}

	entry, err := s.journal.Append(ctx, domain.JournalEntry{
		EntryID:    s.entryID(),
		Kind:       kind,
		Campaign:   campaignID,
		Caller:     s.auth.CurrentCaller(ctx),
		Payload:    raw,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		s.pending.Reset()
		s.logger.Error().Err(err).Str("kind", string(kind)).Str("campaign", campaignID.String()).Msg("journal append failed, rolling back")
		if rerr := s.rebuild(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Error().Err(rerr).Msg("rollback rebuild failed")
			return nil, fmt.Errorf("%w: journal append: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("journal append: %w", err)
	}
	s.head = entry.Seq
	return s.pending.Drain(), nil
}

func (s *Service) CreateCampaign(ctx context.Context, details domain.CampaignDetails) (campaign.Snapshot, error) {
	var snap campaign.Snapshot
	err := s.commit(ctx, domain.JournalCampaignCreated, details.ID, details, func() error {
		rec, err := s.reg.Create(ctx, details)
		if err != nil {
			return err
		}
		snap = rec.Snapshot()
		return nil
	})
	return snap, err
}

// UpdateCampaignDetails replaces the details of campaign id. details.ID must
// name the same campaign.
func (s *Service) UpdateCampaignDetails(ctx context.Context, id domain.ID, details domain.CampaignDetails) (campaign.Snapshot, error) {
	var snap campaign.Snapshot
	err := s.commit(ctx, domain.JournalDetailsUpdated, id, details, func() error {
		rec, err := s.reg.Lookup(id)
		if err != nil {
			return err
		}
		if err := rec.UpdateDetails(ctx, details); err != nil {
			return err
		}
		snap = rec.Snapshot()
		return nil
	})
	return snap, err
}

type archivePayload struct {
	PreserveOrdering bool `json:"preserve_ordering"`
}

func (s *Service) ArchiveCampaign(ctx context.Context, id domain.ID, preserveOrdering bool) error {
	return s.commit(ctx, domain.JournalCampaignArchived, id, archivePayload{PreserveOrdering: preserveOrdering}, func() error {
		return s.reg.Archive(ctx, id, preserveOrdering)
	})
}

func (s *Service) RegisterDonation(ctx context.Context, campaignID domain.ID, d domain.Donation) (domain.Donation, error) {
	var stored domain.Donation
	err := s.commit(ctx, domain.JournalDonationRegistered, campaignID, d, func() error {
		rec, err := s.reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		stored, err = rec.RegisterDonation(ctx, d)
		return err
	})
	return stored, err
}

func (s *Service) UpdateDonation(ctx context.Context, campaignID domain.ID, d domain.Donation) (domain.Version, error) {
	var version domain.Version
	err := s.commit(ctx, domain.JournalDonationUpdated, campaignID, d, func() error {
		rec, err := s.reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		version, err = rec.UpdateDonation(ctx, d)
		return err
	})
	return version, err
}

// read runs fn under the lock against a registry that reflects every
// committed mutation.
func (s *Service) read(ctx context.Context, fn func(*registry.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	return fn(s.reg)
}

type Counts struct {
	Total    uint64 `json:"total"`
	Active   uint64 `json:"active"`
	Archived uint64 `json:"archived"`
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.read(ctx, func(reg *registry.Registry) error {
		c.Total, c.Active, c.Archived = reg.Count()
		return nil
	})
	return c, err
}

func (s *Service) SelectActive(ctx context.Context, offset, limit int) ([]campaign.Snapshot, error) {
	var out []campaign.Snapshot
	err := s.read(ctx, func(reg *registry.Registry) error {
		page, err := reg.SelectActive(offset, limit)
		if err != nil {
			return err
		}
		out = make([]campaign.Snapshot, 0, len(page))
		for _, rec := range page {
			out = append(out, rec.Snapshot())
		}
		return nil
	})
	return out, err
}

func (s *Service) Campaign(ctx context.Context, id domain.ID) (campaign.Snapshot, error) {
	var snap campaign.Snapshot
	err := s.read(ctx, func(reg *registry.Registry) error {
		rec, err := reg.Lookup(id)
		if err != nil {
			return err
		}
		snap = rec.Snapshot()
		return nil
	})
	return snap, err
}

func (s *Service) RetrieveDonation(ctx context.Context, campaignID, donationID domain.ID) (domain.Donation, error) {
	var d domain.Donation
	err := s.read(ctx, func(reg *registry.Registry) error {
		rec, err := reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		d, err = rec.RetrieveDonation(donationID)
		return err
	})
	return d, err
}

// FindDonation addresses one version of a lineage. Non-negative versions
// count from the oldest, negative ones from the latest.
func (s *Service) FindDonation(ctx context.Context, campaignID, donationID domain.ID, version int) (domain.Donation, bool, error) {
	var (
		d  domain.Donation
		ok bool
	)
	err := s.read(ctx, func(reg *registry.Registry) error {
		rec, err := reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		d, ok = rec.FindDonation(donationID, version)
		return nil
	})
	return d, ok, err
}

func (s *Service) DonationHistory(ctx context.Context, campaignID, donationID domain.ID) ([]domain.Donation, error) {
	var history []domain.Donation
	err := s.read(ctx, func(reg *registry.Registry) error {
		rec, err := reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		history = rec.DonationHistory(donationID)
		if len(history) == 0 {
			return domain.Fail(domain.ErrDonationNotFound, "campaign", campaignID, "donation", donationID)
		}
		return nil
	})
	return history, err
}

// LatestDonations returns the latest version of every lineage of a campaign
// in registration order.
func (s *Service) LatestDonations(ctx context.Context, campaignID domain.ID) (campaign.Snapshot, []domain.Donation, error) {
	var (
		snap campaign.Snapshot
		out  []domain.Donation
	)
	err := s.read(ctx, func(reg *registry.Registry) error {
		rec, err := reg.Lookup(campaignID)
		if err != nil {
			return err
		}
		snap = rec.Snapshot()
		rec.EachLatestDonation(func(d domain.Donation) { out = append(out, d) })
		return nil
	})
	return snap, out, err
}

// Check verifies the registry's structural invariants.
func (s *Service) Check(ctx context.Context) error {
	return s.read(ctx, func(reg *registry.Registry) error { return reg.Check() })
}

// Head is the sequence number of the last committed journal entry.
func (s *Service) Head() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// Ping reports whether the service can serve consistent reads.
func (s *Service) Ping(ctx context.Context) error {
	return s.read(ctx, func(*registry.Registry) error { return nil })
}
